package testkit

import (
	"context"
	"sync"
	"testing"

	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/nodeutil"
	"xdao.co/ensbridge/storage"
)

// NewStore constructs a fresh, empty Store for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.Store

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()
	host := nodeutil.Namehash("fuckingfucker.eth")
	d1 := nodeutil.Namehash("fucking.badass")
	d2 := nodeutil.Namehash("other.badass")

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, host, d1); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := s.Get(ctx, host)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != d1 {
			t.Fatalf("Get = %s want %s", got, d1)
		}
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, host, d1); err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		if err := s.Put(ctx, host, d2); err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		got, err := s.Get(ctx, host)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != d2 {
			t.Fatalf("Get = %s want %s", got, d2)
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 2; i++ {
			if err := s.Put(ctx, host, d1); err != nil {
				t.Fatalf("Put(%d) failed: %v", i, err)
			}
		}
		got, err := s.Get(ctx, host)
		if err != nil || got != d1 {
			t.Fatalf("Get = %s, %v", got, err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, host); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("ZeroValueOverwrite", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, host, d1); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Put(ctx, host, model.ZeroNode); err != nil {
			t.Fatalf("Put(zero) failed: %v", err)
		}
		got, err := s.Get(ctx, host)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.IsZero() {
			t.Fatalf("expected zero node after overwrite, got %s", got)
		}
	})

	t.Run("IndependentHosts", func(t *testing.T) {
		s := newStore(t)
		other := nodeutil.Namehash("other.eth")
		if err := s.Put(ctx, host, d1); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Put(ctx, other, d2); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if got, _ := s.Get(ctx, host); got != d1 {
			t.Fatalf("host record disturbed: %s", got)
		}
		if got, _ := s.Get(ctx, other); got != d2 {
			t.Fatalf("other record wrong: %s", got)
		}
	})

	t.Run("ConcurrentWritersSameHost", func(t *testing.T) {
		s := newStore(t)
		candidates := []model.Node{d1, d2}
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = s.Put(ctx, host, candidates[i%2])
			}(i)
		}
		wg.Wait()
		got, err := s.Get(ctx, host)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != d1 && got != d2 {
			t.Fatalf("concurrent writes produced a merged value %s", got)
		}
	})

	t.Run("ListOrderedByHost", func(t *testing.T) {
		s := newStore(t)
		l, ok := s.(storage.Lister)
		if !ok {
			t.Skip("store does not enumerate")
		}
		other := nodeutil.Namehash("other.eth")
		if err := s.Put(ctx, host, d1); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Put(ctx, other, d2); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := l.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		want := []storage.Record{{Host: host, Delegated: d1}, {Host: other, Delegated: d2}}
		storage.SortRecords(want)
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("List = %v want %v", got, want)
		}
	})
}
