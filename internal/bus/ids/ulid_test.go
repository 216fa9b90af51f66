package ids

import (
	"sync"
	"testing"
)

func TestNewULID(t *testing.T) {
	id := NewULID()
	if len(id) != 26 {
		t.Fatalf("ULID length = %d, want 26", len(id))
	}

	// Monotonic entropy keeps ids unique and ordered within one process.
	prev := NewULID()
	for i := 0; i < 1000; i++ {
		next := NewULID()
		if next <= prev {
			t.Fatalf("ULIDs not strictly increasing: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestNewULIDConcurrent(t *testing.T) {
	t.Parallel()

	const workers = 16
	const perWorker = 500

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, NewULID())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("got %d unique ids, want %d", len(seen), workers*perWorker)
	}
}
