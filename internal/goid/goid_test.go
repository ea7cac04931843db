package goid

import "testing"

func TestIDStablePerGoroutine(t *testing.T) {
	id := ID()
	if id == 0 {
		t.Fatal("ID() = 0")
	}
	if ID() != id {
		t.Error("ID changed within one goroutine")
	}

	other := make(chan uint64)
	go func() { other <- ID() }()
	if got := <-other; got == id || got == 0 {
		t.Errorf("other goroutine ID = %d, main = %d", got, id)
	}
}
