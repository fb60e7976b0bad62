package auth

import "testing"

func TestGenerateAndVerifyRoundTrip(t *testing.T) {
	i := NewIssuer("test-secret")
	tok, err := i.GenerateSessionToken(7, 42)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	room, entity, err := i.VerifySessionToken(tok)
	if err != nil {
		t.Fatalf("VerifySessionToken: %v", err)
	}
	if room != 7 || entity != 42 {
		t.Fatalf("got room=%d entity=%d, want room=7 entity=42", room, entity)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := NewIssuer("secret-a").GenerateSessionToken(1, 1)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	if _, _, err := NewIssuer("secret-b").VerifySessionToken(tok); err == nil {
		t.Fatalf("expected verification with the wrong secret to fail")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, _, err := NewIssuer("secret").VerifySessionToken("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to fail verification")
	}
}
