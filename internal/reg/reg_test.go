package reg

import "testing"

func TestSetClear(t *testing.T) {
	var r Register

	r.Set(3)

	if r.Get(3, 0b1) != 1 {
		t.Fatalf("expected bit 3 set")
	}

	r.Clear(3)

	if r.Get(3, 0b1) != 0 {
		t.Fatalf("expected bit 3 clear")
	}
}

func TestSetNClearN(t *testing.T) {
	var r Register

	r.SetN(1, 0b11, 0b10)

	if got := r.Get(1, 0b11); got != 0b10 {
		t.Fatalf("got %#b, want %#b", got, 0b10)
	}

	r.ClearN(1, 0b11)

	if got := r.Get(1, 0b11); got != 0 {
		t.Fatalf("got %#b, want 0", got)
	}
}

func TestReadWriteOr(t *testing.T) {
	var r Register

	r.Write(0x0F)

	if r.Read() != 0x0F {
		t.Fatalf("unexpected read")
	}

	r.Or(0xF0)

	if r.Read() != 0xFF {
		t.Fatalf("unexpected value after Or")
	}
}

func TestWaitFor(t *testing.T) {
	var r Register

	r.Write(0)

	if r.WaitFor(0, 0, 0b1, 1) {
		t.Fatalf("expected timeout")
	}

	r.Set(0)

	if !r.WaitFor(0, 0, 0b1, 1) {
		t.Fatalf("expected condition already met")
	}
}
