package datacache

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/justifica/datacache/internal/backend/lru"
	"github.com/justifica/datacache/internal/stats"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeCollector records counters and gauges in memory.
type fakeCollector struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]int64
	observed map[string]int
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{
		counters: make(map[string]int64),
		gauges:   make(map[string]int64),
		observed: make(map[string]int),
	}
}

func (c *fakeCollector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += delta
}

func (c *fakeCollector) SetGauge(name string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
}

func (c *fakeCollector) ObserveHistogram(name string, _ float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observed[name]++
}

func (c *fakeCollector) counter(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[name]
}

func (c *fakeCollector) gauge(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gauges[name]
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s, err := New(append([]Option{WithClock(clock.Now)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func TestNew_Defaults(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if !slices.Equal(s.Keys(), DefaultKeys()) {
		t.Errorf("Keys() = %v, want %v", s.Keys(), DefaultKeys())
	}
	if got := s.Stats(); got != (Stats{}) {
		t.Errorf("Stats() = %+v, want zero", got)
	}
	for _, k := range DefaultKeys() {
		if _, ok := s.Get(k); ok {
			t.Errorf("Get(%q) on new store should be absent", k)
		}
	}
}

func TestNew_RequiresBackendAndClock(t *testing.T) {
	if _, err := New(WithBackend(nil)); err == nil {
		t.Error("New(WithBackend(nil)) should fail")
	}
	if _, err := New(WithClock(nil)); err == nil {
		t.Error("New(WithClock(nil)) should fail")
	}
}

func TestStore_IsValid_Boundary(t *testing.T) {
	const maxAge = 5 * time.Second

	tests := []struct {
		elapsed time.Duration
		want    bool
	}{
		{0, true},
		{4 * time.Second, true},
		{maxAge - time.Millisecond, true},
		{maxAge - time.Nanosecond, true},
		{maxAge, false},
		{maxAge + time.Millisecond, false},
		{time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			s, clock := newTestStore(t)
			s.Set(KeyDashboard, map[string]int{"total": 10})
			clock.Advance(tt.elapsed)

			if got := s.IsValid(KeyDashboard, maxAge); got != tt.want {
				t.Errorf("IsValid() after %v = %v, want %v", tt.elapsed, got, tt.want)
			}
			// Stale entries stay readable.
			if _, ok := s.Get(KeyDashboard); !ok {
				t.Error("Get() should return the entry regardless of age")
			}
		})
	}
}

func TestStore_IsValid_Unset(t *testing.T) {
	s, _ := newTestStore(t)
	if s.IsValid(KeyStudents, time.Hour) {
		t.Error("IsValid() on an unset key should be false")
	}
}

func TestStore_Overwrite(t *testing.T) {
	s, clock := newTestStore(t)

	s.Set(KeyStudents, "v1")
	first, _ := s.LastUpdated(KeyStudents)
	clock.Advance(3 * time.Second)
	s.Set(KeyStudents, "v2")

	v, ok := s.Get(KeyStudents)
	if !ok || v != "v2" {
		t.Errorf("Get() = %v, %v; want v2, true", v, ok)
	}
	last, ok := s.LastUpdated(KeyStudents)
	if !ok {
		t.Fatal("LastUpdated() should be present")
	}
	if got := last.Sub(first); got != 3*time.Second {
		t.Errorf("LastUpdated moved by %v, want 3s", got)
	}

	// Validity is measured from the second write.
	clock.Advance(4 * time.Second)
	if !s.IsValid(KeyStudents, 5*time.Second) {
		t.Error("IsValid() should measure age from the latest Set")
	}
}

func TestStore_NilValueIsAbsent(t *testing.T) {
	s, _ := newTestStore(t)
	s.Set(KeyReports, nil)

	if _, ok := s.Get(KeyReports); ok {
		t.Error("Get() should treat a nil value as absent")
	}
	if s.IsValid(KeyReports, time.Hour) {
		t.Error("IsValid() should be false for a nil value")
	}
}

func TestStore_Invalidate_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)

	// Invalidating an unset key is a no-op.
	s.Invalidate(KeyAttendance)
	if s.Stats().Size != 0 {
		t.Errorf("Size = %d after invalidating unset key, want 0", s.Stats().Size)
	}

	s.Set(KeyAttendance, []int{1, 2})
	s.Set(KeyProfessors, []int{3})
	s.Invalidate(KeyAttendance)
	s.Invalidate(KeyAttendance)

	if _, ok := s.Get(KeyAttendance); ok {
		t.Error("Get() should be absent after Invalidate")
	}
	if _, ok := s.LastUpdated(KeyAttendance); ok {
		t.Error("LastUpdated() should be absent after Invalidate")
	}
	if _, ok := s.Get(KeyProfessors); !ok {
		t.Error("Invalidate should not touch other keys")
	}
}

func TestStore_InvalidateAll(t *testing.T) {
	s, _ := newTestStore(t)
	for i, k := range DefaultKeys() {
		s.Set(k, i+1)
	}
	s.Set("custom", "x")

	s.InvalidateAll()

	for _, k := range append(DefaultKeys(), "custom") {
		if _, ok := s.Get(k); ok {
			t.Errorf("Get(%q) should be absent after InvalidateAll", k)
		}
		if s.IsValid(k, time.Hour) {
			t.Errorf("IsValid(%q) should be false after InvalidateAll", k)
		}
	}
}

func TestGetAs(t *testing.T) {
	s, _ := newTestStore(t)
	s.Set(KeyStudents, []string{"ana", "luis"})

	got, ok := GetAs[[]string](s, KeyStudents)
	if !ok || len(got) != 2 {
		t.Errorf("GetAs[[]string]() = %v, %v", got, ok)
	}
	if _, ok := GetAs[int](s, KeyStudents); ok {
		t.Error("GetAs[int]() should report a type mismatch as absent")
	}
	if _, ok := GetAs[[]string](s, KeyReports); ok {
		t.Error("GetAs() on unset key should be absent")
	}
}

func TestStore_UnknownKeysTolerated(t *testing.T) {
	s, _ := newTestStore(t)
	if s.Known("grades") {
		t.Error("Known(grades) should be false")
	}
	s.Set("grades", 1)
	if _, ok := s.Get("grades"); !ok {
		t.Error("store should accept keys outside the known set")
	}
}

func TestStore_Close(t *testing.T) {
	s, _ := newTestStore(t)
	s.Set(KeyDashboard, 1)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}

	if _, ok := s.Get(KeyDashboard); ok {
		t.Error("Get() after Close should be absent")
	}
	s.Set(KeyDashboard, 2)
	if s.Stats().Size != 0 {
		t.Error("Set() after Close should be dropped")
	}
}

func TestStore_LRUBackend(t *testing.T) {
	b, err := lru.New(2)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	s, _ := newTestStore(t, WithBackend(b))

	s.Set(KeyDashboard, 1)
	s.Set(KeyStudents, 2)
	s.Set(KeyReports, 3)

	if _, ok := s.Get(KeyDashboard); ok {
		t.Error("oldest entry should be evicted by the bounded backend")
	}
	if s.Stats().Size != 2 {
		t.Errorf("Size = %d, want 2", s.Stats().Size)
	}
}

func TestStore_Metrics(t *testing.T) {
	c := newFakeCollector()
	s, _ := newTestStore(t, WithStats(c))

	s.Set(KeyDashboard, 1)
	s.Set(KeyStudents, 2)
	if got := c.gauge(stats.MetricEntries); got != 2 {
		t.Errorf("%s = %d, want 2", stats.MetricEntries, got)
	}

	s.Invalidate(KeyDashboard)
	s.InvalidateAll()
	if got := c.counter(stats.MetricInvalidations); got != 2 {
		t.Errorf("%s = %d, want 2", stats.MetricInvalidations, got)
	}
	if got := c.gauge(stats.MetricEntries); got != 0 {
		t.Errorf("%s = %d, want 0", stats.MetricEntries, got)
	}
}

func TestStats_HitRate(t *testing.T) {
	tests := []struct {
		name     string
		hits     int64
		misses   int64
		expected float64
	}{
		{"no reads", 0, 0, 0},
		{"all hits", 8, 0, 100},
		{"all misses", 0, 3, 0},
		{"one in four", 1, 3, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{Hits: tt.hits, Misses: tt.misses}
			if got := s.HitRate(); got != tt.expected {
				t.Errorf("HitRate() = %v, want %v", got, tt.expected)
			}
		})
	}
}
