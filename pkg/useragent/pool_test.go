package useragent

import (
	"sync"
	"testing"
)

func TestPool_GetSequential(t *testing.T) {
	p := NewPool([]string{"A", "B", "C"})

	for _, want := range []string{"A", "B", "C", "A"} {
		if got := p.GetSequential(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestPool_DefaultAndBlank(t *testing.T) {
	p := NewPool([]string{"", "   "})
	if p.Len() != len(DefaultPool) {
		t.Errorf("expected pool length %d, got %d", len(DefaultPool), p.Len())
	}
	if got := p.Next(); got != DefaultPool[0] {
		t.Errorf("expected %s, got %s", DefaultPool[0], got)
	}
}

func TestPool_RandomStrategy(t *testing.T) {
	p := NewPoolWithStrategy([]string{"A", "B"}, Random)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		got := p.Next()
		if got != "A" && got != "B" {
			t.Fatalf("unexpected UA: %s", got)
		}
		seen[got] = true
	}

	if !seen["A"] || !seen["B"] {
		t.Errorf("expected to see both A and B randomly, got %v", seen)
	}
}

func TestPool_UnknownStrategyIsSequential(t *testing.T) {
	p := NewPoolWithStrategy([]string{"A", "B"}, Strategy("bogus"))
	if p.Next() != "A" || p.Next() != "B" {
		t.Errorf("expected unknown strategy to fall back to sequential")
	}
}

func TestPool_Concurrent(t *testing.T) {
	uas := []string{"X", "Y", "Z"}
	p := NewPool(uas)

	var wg sync.WaitGroup
	const routines = 50
	const iterations = 300

	results := make(chan string, routines*iterations)
	for i := 0; i < routines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				results <- p.GetSequential()
			}
		}()
	}
	wg.Wait()
	close(results)

	counts := map[string]int{}
	for r := range results {
		counts[r]++
	}

	// 15000 picks over 3 agents divide evenly.
	for _, ua := range uas {
		if counts[ua] != routines*iterations/len(uas) {
			t.Errorf("expected %d hits for %s, got %d", routines*iterations/len(uas), ua, counts[ua])
		}
	}
}

func TestPool_Empty(t *testing.T) {
	p := &Pool{uas: []string{}}

	if got := p.GetSequential(); got != "" {
		t.Errorf("expected empty string on empty sequential, got %s", got)
	}
	if got := p.GetRandom(); got != "" {
		t.Errorf("expected empty string on empty random, got %s", got)
	}
}
