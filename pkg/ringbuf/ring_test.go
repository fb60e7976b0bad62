package ringbuf

import "testing"

type rec struct {
	tick uint32
	val  string
}

func (r rec) TickNumber() uint32 { return r.tick }

func TestPushRejectsOlderOrEqual(t *testing.T) {
	r := New[rec](4)
	if !r.Push(rec{tick: 5, val: "a"}) {
		t.Fatal("expected first push to succeed")
	}
	if r.Push(rec{tick: 5, val: "b"}) {
		t.Fatal("expected equal-tick push to be rejected")
	}
	if r.Push(rec{tick: 3, val: "c"}) {
		t.Fatal("expected older-tick push to be rejected")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

func TestPushEvictsOldestAtCapacity(t *testing.T) {
	r := New[rec](3)
	for i := uint32(1); i <= 5; i++ {
		if !r.Push(rec{tick: i}) {
			t.Fatalf("push %d unexpectedly rejected", i)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	oldest, ok := r.Oldest()
	if !ok || oldest.tick != 3 {
		t.Fatalf("Oldest() = %+v, want tick 3", oldest)
	}
	newest, ok := r.Newest()
	if !ok || newest.tick != 5 {
		t.Fatalf("Newest() = %+v, want tick 5", newest)
	}
}

func TestGetAndAfter(t *testing.T) {
	r := New[rec](10)
	for i := uint32(1); i <= 5; i++ {
		r.Push(rec{tick: i})
	}
	if _, ok := r.Get(3); !ok {
		t.Fatal("expected Get(3) to find a record")
	}
	after := r.After(3)
	if len(after) != 2 || after[0].tick != 4 || after[1].tick != 5 {
		t.Fatalf("After(3) = %+v, want ticks [4 5]", after)
	}
}

func TestDropUpTo(t *testing.T) {
	r := New[rec](10)
	for i := uint32(1); i <= 5; i++ {
		r.Push(rec{tick: i})
	}
	r.DropUpTo(3)
	if r.Len() != 2 {
		t.Fatalf("Len() after DropUpTo(3) = %d, want 2", r.Len())
	}
	if _, ok := r.Get(3); ok {
		t.Fatal("tick 3 should have been dropped")
	}
	if _, ok := r.Get(4); !ok {
		t.Fatal("tick 4 should remain")
	}
}

func TestResetEmpties(t *testing.T) {
	r := New[rec](10)
	r.Push(rec{tick: 1})
	r.Reset()
	if r.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", r.Len())
	}
	// history must accept a fresh tick 1 again after reset.
	if !r.Push(rec{tick: 1}) {
		t.Fatal("expected push after reset to succeed")
	}
}
