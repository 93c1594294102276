package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeResource — тестовый ресурс с управляемой валидностью.
type fakeResource struct {
	id    int
	valid atomic.Bool
}

// fakeFactory считает созданные и уничтоженные ресурсы.
type fakeFactory struct {
	mu        sync.Mutex
	nextID    int
	created   int
	destroyed int
	createErr error
}

func (f *fakeFactory) Create(_ context.Context) (*fakeResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	f.created++
	r := &fakeResource{id: f.nextID}
	r.valid.Store(true)
	return r, nil
}

func (f *fakeFactory) Destroy(_ context.Context, _ *fakeResource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed++
	return nil
}

func (f *fakeFactory) Validate(r *fakeResource) bool {
	return r.valid.Load()
}

func (f *fakeFactory) counts() (created, destroyed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, f.destroyed
}

func newTestPool(t *testing.T, cfg Config) (*Pool[*fakeResource], *fakeFactory) {
	t.Helper()
	factory := &fakeFactory{}
	p, err := New[*fakeResource](factory, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(p.Close)
	return p, factory
}

func TestPoolAcquireCreatesResource(t *testing.T) {
	p, factory := newTestPool(t, Config{MaxSize: 2})

	r, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if r.Value == nil {
		t.Fatal("Acquire() returned nil resource")
	}

	created, _ := factory.counts()
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}

	st := p.Stats()
	if st.Active != 1 || st.Idle != 0 {
		t.Errorf("Stats() = %+v, want 1 active / 0 idle", st)
	}

	p.Release(r)
	st = p.Stats()
	if st.Active != 0 || st.Idle != 1 {
		t.Errorf("Stats() after release = %+v, want 0 active / 1 idle", st)
	}
}

func TestPoolReusesIdleResource(t *testing.T) {
	p, factory := newTestPool(t, Config{MaxSize: 2})

	r1, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	first := r1.Value.id
	p.Release(r1)

	r2, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	defer p.Release(r2)

	if r2.Value.id != first {
		t.Errorf("acquired resource id = %d, want reused %d", r2.Value.id, first)
	}
	if created, _ := factory.counts(); created != 1 {
		t.Errorf("created = %d, want 1", created)
	}
}

func TestPoolSequentialReuseAtCapacity(t *testing.T) {
	// MaxSize=1: два последовательных scoped-использования должны
	// пройти через один и тот же ресурс.
	p, factory := newTestPool(t, Config{MaxSize: 1})

	seen := make(map[int]int)
	for i := 0; i < 2; i++ {
		err := p.WithResource(context.Background(), time.Second, func(r *fakeResource) error {
			seen[r.id]++
			return nil
		})
		if err != nil {
			t.Fatalf("WithResource() error = %v", err)
		}
	}

	if len(seen) != 1 {
		t.Errorf("used %d distinct resources, want 1", len(seen))
	}
	if created, _ := factory.counts(); created != 1 {
		t.Errorf("created = %d, want 1", created)
	}
}

func TestPoolAcquireTimeout(t *testing.T) {
	p, _ := newTestPool(t, Config{MaxSize: 1})

	r, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer p.Release(r)

	_, err = p.Acquire(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, ErrAcquireTimeout) {
		t.Errorf("Acquire() error = %v, want ErrAcquireTimeout", err)
	}
}

func TestPoolWaiterWokenOnRelease(t *testing.T) {
	p, _ := newTestPool(t, Config{MaxSize: 1})

	r, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	got := make(chan error, 1)
	go func() {
		r2, err := p.Acquire(context.Background(), 2*time.Second)
		if err == nil {
			p.Release(r2)
		}
		got <- err
	}()

	time.Sleep(50 * time.Millisecond)
	p.Release(r)

	select {
	case err := <-got:
		if err != nil {
			t.Errorf("waiting Acquire() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiting acquire was not woken by release")
	}
}

func TestPoolReleaseHandsResourceToQueuedWaiter(t *testing.T) {
	p, _ := newTestPool(t, Config{MaxSize: 1})

	holder, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	type result struct {
		r   *Resource[*fakeResource]
		err error
	}
	got := make(chan result, 1)
	go func() {
		r, err := p.Acquire(context.Background(), 2*time.Second)
		got <- result{r, err}
	}()

	deadline := time.Now().Add(time.Second)
	for p.Stats().Waiters == 0 {
		if time.Now().After(deadline) {
			t.Fatal("waiter never queued")
		}
		time.Sleep(time.Millisecond)
	}

	p.Release(holder)
	// Устаревший handle: ресурс уже вручён очереди.
	p.Release(holder)

	// Свежий acquire не может перехватить ресурс у ожидающего.
	if _, err := p.Acquire(context.Background(), 50*time.Millisecond); !errors.Is(err, ErrAcquireTimeout) {
		t.Fatalf("barging Acquire() error = %v, want ErrAcquireTimeout", err)
	}

	res := <-got
	if res.err != nil {
		t.Fatalf("waiting Acquire() error = %v", res.err)
	}
	if res.r.ID() != holder.ID() {
		t.Errorf("waiter got resource %s, want handed-off %s", res.r.ID(), holder.ID())
	}

	st := p.Stats()
	if st.Active != 1 || st.Total != 1 {
		t.Errorf("Stats() = %+v, want 1 active / 1 total", st)
	}
	p.Release(res.r)
}

func TestPoolInvalidResourceReplaced(t *testing.T) {
	p, factory := newTestPool(t, Config{MaxSize: 1})

	r1, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	r1.Value.valid.Store(false)
	p.Release(r1)

	// Невалидный ресурс уничтожен на release, следующий acquire
	// создаёт новый.
	r2, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	defer p.Release(r2)

	if r2.Value.id == r1.Value.id {
		t.Error("invalid resource was handed out again")
	}
	created, destroyed := factory.counts()
	if created != 2 || destroyed != 1 {
		t.Errorf("created/destroyed = %d/%d, want 2/1", created, destroyed)
	}
}

func TestPoolDoubleReleaseIsNoop(t *testing.T) {
	p, _ := newTestPool(t, Config{MaxSize: 2})

	r, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	p.Release(r)
	p.Release(r)

	st := p.Stats()
	if st.Idle != 1 || st.Total != 1 {
		t.Errorf("Stats() = %+v, want 1 idle / 1 total", st)
	}
}

func TestPoolCreateErrorSurfacesToCaller(t *testing.T) {
	factory := &fakeFactory{createErr: errors.New("boom")}
	p, err := New[*fakeResource](factory, Config{MaxSize: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Close()

	if _, err := p.Acquire(context.Background(), time.Second); err == nil {
		t.Fatal("Acquire() error = nil, want creation error")
	}
}

func TestPoolWarmUp(t *testing.T) {
	p, factory := newTestPool(t, Config{MinSize: 2, MaxSize: 3})

	if err := p.WarmUp(context.Background()); err != nil {
		t.Fatalf("WarmUp() error = %v", err)
	}

	st := p.Stats()
	if st.Idle != 2 {
		t.Errorf("Stats().Idle = %d, want 2", st.Idle)
	}
	if created, _ := factory.counts(); created != 2 {
		t.Errorf("created = %d, want 2", created)
	}
}

func TestPoolReaperEvictsByMaxUses(t *testing.T) {
	p, factory := newTestPool(t, Config{
		MaxSize:      1,
		MaxUses:      1,
		ReapInterval: 10 * time.Millisecond,
	})

	r, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	p.Release(r)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, destroyed := factory.counts(); destroyed >= 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("reaper did not evict resource past its use budget")
}

func TestPoolCloseRejectsAcquire(t *testing.T) {
	factory := &fakeFactory{}
	p, err := New[*fakeResource](factory, Config{MaxSize: 2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	r, err := p.Acquire(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	_ = r

	p.Close()

	if _, err := p.Acquire(context.Background(), time.Second); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire() after Close error = %v, want ErrPoolClosed", err)
	}

	_, destroyed := factory.counts()
	if destroyed != 1 {
		t.Errorf("destroyed = %d, want 1", destroyed)
	}
}

func TestPoolCloseWakesWaiters(t *testing.T) {
	factory := &fakeFactory{}
	p, err := New[*fakeResource](factory, Config{MaxSize: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := p.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	got := make(chan error, 1)
	go func() {
		_, err := p.Acquire(context.Background(), 5*time.Second)
		got <- err
	}()

	time.Sleep(50 * time.Millisecond)
	p.Close()

	select {
	case err := <-got:
		if !errors.Is(err, ErrPoolClosed) {
			t.Errorf("waiting Acquire() error = %v, want ErrPoolClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiting acquire was not woken by Close")
	}
}
