package concurrency

import (
	"sync"
	"testing"
)

func TestSynchronized_TransformIsAtomic(t *testing.T) {
	s := NewSynchronized(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Transform(incr)
			}
		}()
	}
	wg.Wait()
	if got := s.Get(); got != 5000 {
		t.Fatalf("expected 5000, got %d", got)
	}
}

func TestSynchronized_SetSwapApply(t *testing.T) {
	s := NewSynchronized(true)
	if old := s.Swap(false); !old {
		t.Fatal("Swap should return the previous value")
	}
	if s.Get() {
		t.Fatal("value should be false after Swap")
	}
	s.Set(true)
	got := Apply(s, func(v bool) string {
		if v {
			return "alive"
		}
		return "dead"
	})
	if got != "alive" {
		t.Fatalf("Apply returned %q", got)
	}

	list := NewSynchronized([]int{1})
	list.Do(func(v *[]int) { *v = append(*v, 2) })
	if n := len(list.Get()); n != 2 {
		t.Fatalf("Do did not mutate in place, len=%d", n)
	}
}
