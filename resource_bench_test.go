package datacache

import (
	"context"
	"testing"

	"github.com/justifica/datacache/internal/backend"
	"github.com/justifica/datacache/internal/backend/lru"
	"github.com/justifica/datacache/internal/backend/memory"
)

var benchmarkBackends = map[string]func() (backend.Backend, error){
	"memory": func() (backend.Backend, error) { return memory.New(), nil },
	"lru":    func() (backend.Backend, error) { return lru.New(64) },
}

func newBenchResource(b *testing.B, be backend.Backend) *Resource[[]int] {
	b.Helper()
	s, err := New(WithBackend(be))
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}
	b.Cleanup(func() { s.Close() })

	payload := make([]int, 100)
	r, err := NewResource(s, KeyStudents, func(context.Context) ([]int, error) {
		return payload, nil
	})
	if err != nil {
		b.Fatalf("NewResource() error = %v", err)
	}
	return r
}

// BenchmarkRead_Hit measures a read served from a fresh entry.
func BenchmarkRead_Hit(b *testing.B) {
	for name, newBackend := range benchmarkBackends {
		b.Run(name, func(b *testing.B) {
			be, err := newBackend()
			if err != nil {
				b.Fatalf("creating backend: %v", err)
			}
			r := newBenchResource(b, be)
			ctx := context.Background()
			if _, err := r.Read(ctx, false); err != nil {
				b.Fatalf("warming: %v", err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := r.Read(ctx, false); err != nil {
					b.Fatalf("Read() error = %v", err)
				}
			}
		})
	}
}

// BenchmarkRead_Refresh measures a forced retrieval and store.
func BenchmarkRead_Refresh(b *testing.B) {
	r := newBenchResource(b, memory.New())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Refresh(ctx); err != nil {
			b.Fatalf("Refresh() error = %v", err)
		}
	}
}

// BenchmarkRead_HitParallel measures concurrent reads of one fresh key.
func BenchmarkRead_HitParallel(b *testing.B) {
	r := newBenchResource(b, memory.New())
	ctx := context.Background()
	if _, err := r.Read(ctx, false); err != nil {
		b.Fatalf("warming: %v", err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := r.Read(ctx, false); err != nil {
				b.Errorf("Read() error = %v", err)
				return
			}
		}
	})
}
