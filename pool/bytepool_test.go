package pool

import "testing"

func TestBytePool_GetPut(t *testing.T) {
	p := NewBytePool(512)
	buf := p.Get()
	if len(buf) != 512 {
		t.Fatalf("expected 512-byte buffer, got %d", len(buf))
	}
	p.Put(buf[:10])
	again := p.Get()
	if len(again) != 512 {
		t.Fatalf("reused buffer has wrong length %d", len(again))
	}
	// foreign buffers are ignored
	p.Put(make([]byte, 3))
	if got := len(p.Get()); got != 512 {
		t.Fatalf("foreign buffer leaked into pool, len=%d", got)
	}
}

func TestSyncPool_Creator(t *testing.T) {
	calls := 0
	p := NewSyncPool(func() int { calls++; return 7 })
	if v := p.Get(); v != 7 {
		t.Fatalf("expected creator value, got %d", v)
	}
	if calls == 0 {
		t.Fatal("creator was not invoked")
	}
}

func TestSyncPool_ResetVeto(t *testing.T) {
	created := 0
	p := NewSyncPool(func() []int { created++; return make([]int, 0, 4) }).
		WithReset(func(s []int) bool { return cap(s) == 4 })
	p.Put(make([]int, 0, 99))
	if s := p.Get(); cap(s) != 4 {
		t.Fatalf("vetoed object was pooled, cap=%d", cap(s))
	}
	if created == 0 {
		t.Fatal("creator was not invoked")
	}
}
