package mathx

import "testing"

func TestVec3Distance(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{3, 4, 0}
	if got := a.Distance(b); got != 5 {
		t.Fatalf("Distance = %v, want 5", got)
	}
}

func TestLerpEndpoints(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{10, 10, 10}
	if got := Lerp(a, b, 0); got != a {
		t.Fatalf("Lerp(t=0) = %v, want %v", got, a)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Fatalf("Lerp(t=1) = %v, want %v", got, b)
	}
}

func TestQuatInverseComposeIsIdentity(t *testing.T) {
	q := Quat{0.5, 0.5, 0.5, 0.5}
	got := q.Inverse().Mul(q).Normalize()
	if !got.NearIdentity(1e-9) {
		t.Fatalf("q.Inverse() * q = %+v, want identity", got)
	}
}

func TestSlerpEndpoints(t *testing.T) {
	a := IdentityQuat
	b := Quat{0, 0, 0.7071, 0.7071}
	if got := SlerpQuat(a, b, 0); got != a {
		t.Fatalf("Slerp(t=0) = %+v, want %+v", got, a)
	}
	got := SlerpQuat(a, b, 1)
	if !got.NearIdentity(0) && got.Dot(b) < 0.999 {
		t.Fatalf("Slerp(t=1) = %+v, want ~%+v", got, b)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	got := Quat{0, 0, 0, 0}.Normalize()
	if got != IdentityQuat {
		t.Fatalf("Normalize(zero) = %+v, want identity", got)
	}
}
