package pool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ResourceState — состояние ресурса внутри пула.
type ResourceState string

const (
	// StateIdle — ресурс свободен и доступен для выдачи.
	StateIdle ResourceState = "idle"

	// StateActive — ресурс выдан вызывающей стороне.
	StateActive ResourceState = "active"

	// StateError — ресурс не прошёл валидацию и будет уничтожен.
	StateError ResourceState = "error"

	// StateClosed — ресурс уничтожен.
	StateClosed ResourceState = "closed"
)

// Default pool configuration.
const (
	defaultMaxSize        = 3
	defaultMaxIdleTime    = 5 * time.Minute
	defaultReapInterval   = time.Minute
	defaultAcquireTimeout = 30 * time.Second
)

// Factory создаёт, уничтожает и проверяет ресурсы пула.
type Factory[T any] interface {
	// Create создаёт новый ресурс.
	Create(ctx context.Context) (T, error)

	// Destroy освобождает ресурс. Ошибка логируется, но не
	// останавливает работу пула.
	Destroy(ctx context.Context, resource T) error

	// Validate проверяет пригодность ресурса перед повторной выдачей.
	Validate(resource T) bool
}

// Config — конфигурация пула.
type Config struct {
	// MinSize — число ресурсов, создаваемых заранее при WarmUp.
	MinSize int

	// MaxSize — максимальное число ресурсов (default: 3).
	MaxSize int

	// MaxIdleTime — простой, после которого ресурс уничтожается
	// reaper'ом (default: 5m). 0 отключает проверку.
	MaxIdleTime time.Duration

	// MaxUses — число использований, после которого ресурс
	// уничтожается. 0 отключает проверку.
	MaxUses int

	// TTL — максимальное время жизни ресурса с момента создания.
	// 0 отключает проверку.
	TTL time.Duration

	// ReapInterval — период фоновой уборки (default: 60s).
	ReapInterval time.Duration

	// AcquireTimeout — таймаут ожидания ресурса по умолчанию
	// (default: 30s).
	AcquireTimeout time.Duration

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// Resource — handle выданного ресурса. Действителен строго между
// Acquire и Release.
type Resource[T any] struct {
	// Value — сам ресурс.
	Value T

	id  uuid.UUID
	seq int64
}

// ID возвращает идентификатор ресурса в пуле.
func (r *Resource[T]) ID() uuid.UUID { return r.id }

// ResourceInfo — снимок метаданных одного ресурса.
type ResourceInfo struct {
	ID         uuid.UUID
	State      ResourceState
	CreatedAt  time.Time
	LastUsedAt time.Time
	UseCount   int
}

// Stats — агрегированный снимок состояния пула.
type Stats struct {
	Total    int
	Idle     int
	Active   int
	Waiters  int
	MaxSize  int
	Created  int64
	Reaped   int64
	Timeouts int64
}

// entry — внутренняя запись о ресурсе. seq растёт при каждой выдаче:
// устаревший handle (уже отданный release) не может вернуть ресурс
// повторно.
type entry[T any] struct {
	id        uuid.UUID
	resource  T
	state     ResourceState
	createdAt time.Time
	lastUsed  time.Time
	useCount  int
	seq       int64
}

// waiter — ожидающий acquire. Будится через ch; ready выставляется
// под мьютексом, чтобы release и таймаут не разбудили одного и того же
// ожидающего дважды. При release ресурс вручается первому ожидающему
// напрямую через granted: свежий acquire не может перехватить его у
// очереди.
type waiter[T any] struct {
	ch         chan struct{}
	ready      bool
	granted    *entry[T]
	grantedSeq int64
}

// Pool — пул ресурсов фиксированного максимального размера.
//
// Acquire сначала ищет свободный валидный ресурс, затем создаёт новый
// при наличии места, иначе встаёт в FIFO-очередь ожидания. Release
// возвращает ресурс в пул и будит первого ожидающего.
type Pool[T any] struct {
	factory Factory[T]
	cfg     Config
	logger  *slog.Logger

	mu       sync.Mutex
	entries  map[uuid.UUID]*entry[T]
	creating int
	waiters  []*waiter[T]
	closed   bool

	created  int64
	reaped   int64
	timeouts int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New создаёт пул и запускает фоновый reaper.
func New[T any](factory Factory[T], cfg Config) (*Pool[T], error) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultMaxSize
	}
	if cfg.MaxSize < 0 {
		return nil, ErrInvalidMaxSize
	}
	if cfg.MinSize < 0 {
		cfg.MinSize = 0
	}
	if cfg.MinSize > cfg.MaxSize {
		cfg.MinSize = cfg.MaxSize
	}
	if cfg.MaxIdleTime == 0 {
		cfg.MaxIdleTime = defaultMaxIdleTime
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = defaultReapInterval
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Pool[T]{
		factory: factory,
		cfg:     cfg,
		logger:  cfg.Logger,
		entries: make(map[uuid.UUID]*entry[T]),
		stopCh:  make(chan struct{}),
	}

	p.wg.Add(1)
	go p.reapLoop()

	return p, nil
}

// WarmUp создаёт MinSize ресурсов заранее, чтобы первые acquire не
// платили за создание.
func (p *Pool[T]) WarmUp(ctx context.Context) error {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return ErrPoolClosed
		}
		if len(p.entries)+p.creating >= p.cfg.MinSize {
			p.mu.Unlock()
			return nil
		}
		p.creating++
		p.mu.Unlock()

		resource, err := p.factory.Create(ctx)

		p.mu.Lock()
		p.creating--
		if err != nil {
			p.mu.Unlock()
			return err
		}
		e := &entry[T]{
			id:        uuid.New(),
			resource:  resource,
			state:     StateIdle,
			createdAt: time.Now(),
			lastUsed:  time.Now(),
		}
		p.entries[e.id] = e
		p.created++
		p.mu.Unlock()
	}
}

// Acquire выдаёт ресурс, ожидая не дольше timeout.
// timeout <= 0 означает значение из Config.
func (p *Pool[T]) Acquire(ctx context.Context, timeout time.Duration) (*Resource[T], error) {
	if timeout <= 0 {
		timeout = p.cfg.AcquireTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}

		// Сначала — свободный валидный ресурс.
		if e := p.takeIdleLocked(); e != nil {
			handle := &Resource[T]{Value: e.resource, id: e.id, seq: e.seq}
			p.mu.Unlock()
			return handle, nil
		}

		// Затем — создание нового при наличии места.
		if len(p.entries)+p.creating < p.cfg.MaxSize {
			p.creating++
			p.mu.Unlock()
			return p.createAcquired(ctx)
		}

		// Иначе — в очередь ожидания.
		w := &waiter[T]{ch: make(chan struct{})}
		p.waiters = append(p.waiters, w)
		p.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.abandonWaiter(w)
			return nil, ErrAcquireTimeout
		}

		timer := time.NewTimer(remaining)
		select {
		case <-w.ch:
			timer.Stop()
			if w.granted != nil {
				// Ресурс вручён напрямую при release.
				e := w.granted
				p.mu.Lock()
				if p.closed {
					p.mu.Unlock()
					return nil, ErrPoolClosed
				}
				p.mu.Unlock()
				return &Resource[T]{Value: e.resource, id: e.id, seq: w.grantedSeq}, nil
			}
			// Место появилось: новая итерация.

		case <-timer.C:
			p.abandonWaiter(w)
			return nil, ErrAcquireTimeout

		case <-ctx.Done():
			timer.Stop()
			p.abandonWaiter(w)
			return nil, ctx.Err()
		}
	}
}

// createAcquired создаёт ресурс вне мьютекса и сразу отдаёт его
// вызывающей стороне. Слот заранее зарезервирован через creating.
func (p *Pool[T]) createAcquired(ctx context.Context) (*Resource[T], error) {
	resource, err := p.factory.Create(ctx)

	p.mu.Lock()
	p.creating--
	if err != nil {
		// Слот освободился — даём шанс следующему ожидающему.
		p.wakeOneLocked()
		p.mu.Unlock()
		return nil, err
	}
	if p.closed {
		p.mu.Unlock()
		p.destroy(resource)
		return nil, ErrPoolClosed
	}

	e := &entry[T]{
		id:        uuid.New(),
		resource:  resource,
		state:     StateActive,
		createdAt: time.Now(),
		lastUsed:  time.Now(),
		useCount:  1,
		seq:       1,
	}
	p.entries[e.id] = e
	p.created++
	p.mu.Unlock()

	p.logger.Debug("pool resource created", "resource_id", e.id)
	return &Resource[T]{Value: resource, id: e.id, seq: e.seq}, nil
}

// takeIdleLocked находит свободный ресурс, валидирует и помечает
// активным. Невалидные ресурсы уничтожаются на месте.
// Вызывается под мьютексом.
func (p *Pool[T]) takeIdleLocked() *entry[T] {
	for _, e := range p.entries {
		if e.state != StateIdle {
			continue
		}
		if !p.factory.Validate(e.resource) {
			e.state = StateError
			delete(p.entries, e.id)
			p.logger.Warn("pool resource failed validation, destroying", "resource_id", e.id)
			go p.destroy(e.resource)
			continue
		}
		e.state = StateActive
		e.lastUsed = time.Now()
		e.useCount++
		e.seq++
		return e
	}
	return nil
}

// Release возвращает ресурс в пул. Повторный release того же handle —
// no-op. Невалидный ресурс уничтожается, его место освобождается.
func (p *Pool[T]) Release(r *Resource[T]) {
	if r == nil {
		return
	}

	p.mu.Lock()
	e, ok := p.entries[r.id]
	if !ok || e.state != StateActive || e.seq != r.seq {
		p.mu.Unlock()
		return
	}

	if p.closed || !p.factory.Validate(e.resource) {
		delete(p.entries, e.id)
		e.state = StateClosed
		p.wakeOneLocked()
		p.mu.Unlock()
		p.destroy(e.resource)
		return
	}

	p.releaseEntryLocked(e)
	p.mu.Unlock()
}

// releaseEntryLocked возвращает валидный ресурс в оборот: вручает его
// первому ожидающему напрямую, либо помечает свободным. Вызывается
// под мьютексом.
func (p *Pool[T]) releaseEntryLocked(e *entry[T]) {
	e.lastUsed = time.Now()

	for len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		if w.ready {
			continue
		}
		// Ресурс остаётся Active — теперь от имени ожидающего.
		e.useCount++
		e.seq++
		w.granted = e
		w.grantedSeq = e.seq
		w.ready = true
		close(w.ch)
		return
	}

	e.state = StateIdle
}

// WithResource выполняет fn с ресурсом из пула и гарантированно
// возвращает его обратно.
func (p *Pool[T]) WithResource(ctx context.Context, timeout time.Duration, fn func(resource T) error) error {
	r, err := p.Acquire(ctx, timeout)
	if err != nil {
		return err
	}
	defer p.Release(r)
	return fn(r.Value)
}

// Stats возвращает снимок состояния пула.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Stats{
		Total:    len(p.entries),
		Waiters:  len(p.waiters),
		MaxSize:  p.cfg.MaxSize,
		Created:  p.created,
		Reaped:   p.reaped,
		Timeouts: p.timeouts,
	}
	for _, e := range p.entries {
		switch e.state {
		case StateIdle:
			st.Idle++
		case StateActive:
			st.Active++
		}
	}
	return st
}

// Resources возвращает снимки метаданных всех ресурсов.
func (p *Pool[T]) Resources() []ResourceInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]ResourceInfo, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, ResourceInfo{
			ID:         e.id,
			State:      e.state,
			CreatedAt:  e.createdAt,
			LastUsedAt: e.lastUsed,
			UseCount:   e.useCount,
		})
	}
	return out
}

// Close останавливает reaper, будит всех ожидающих (они получат
// ErrPoolClosed) и уничтожает все ресурсы, включая активные.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true

	for _, w := range p.waiters {
		if !w.ready {
			w.ready = true
			close(w.ch)
		}
	}
	p.waiters = nil

	victims := make([]T, 0, len(p.entries))
	for id, e := range p.entries {
		victims = append(victims, e.resource)
		e.state = StateClosed
		delete(p.entries, id)
	}
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()

	for _, resource := range victims {
		p.destroy(resource)
	}

	p.logger.Info("resource pool closed", "destroyed", len(victims))
}

// abandonWaiter убирает ожидающего из очереди после таймаута или
// отмены. Уже вручённый ему ресурс возвращается в оборот; простой
// сигнал пробуждения передаётся следующему, чтобы освободившееся
// место не зависло.
func (p *Pool[T]) abandonWaiter(w *waiter[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, cand := range p.waiters {
		if cand == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			break
		}
	}
	if w.granted != nil {
		e := w.granted
		w.granted = nil
		if p.closed || e.state != StateActive {
			// Close уже уничтожил ресурс.
			p.timeouts++
			return
		}
		p.releaseEntryLocked(e)
	} else if w.ready {
		p.wakeOneLocked()
	}
	p.timeouts++
}

// wakeOneLocked будит первого ожидающего. Вызывается под мьютексом.
func (p *Pool[T]) wakeOneLocked() {
	for len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		if !w.ready {
			w.ready = true
			close(w.ch)
			return
		}
	}
}

// reapLoop — фоновая уборка просроченных ресурсов.
func (p *Pool[T]) reapLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.reap()
		case <-p.stopCh:
			return
		}
	}
}

// reap уничтожает свободные ресурсы, отслужившие своё: по простою,
// числу использований или TTL. Активные ресурсы не трогаются.
func (p *Pool[T]) reap() {
	now := time.Now()

	p.mu.Lock()
	var victims []T
	for id, e := range p.entries {
		if e.state != StateIdle {
			continue
		}
		expired := p.cfg.MaxIdleTime > 0 && now.Sub(e.lastUsed) > p.cfg.MaxIdleTime ||
			p.cfg.MaxUses > 0 && e.useCount >= p.cfg.MaxUses ||
			p.cfg.TTL > 0 && now.Sub(e.createdAt) > p.cfg.TTL
		if !expired {
			continue
		}
		victims = append(victims, e.resource)
		e.state = StateClosed
		delete(p.entries, id)
		p.reaped++
		p.logger.Debug("pool resource reaped",
			"resource_id", id,
			"use_count", e.useCount,
			"idle", now.Sub(e.lastUsed),
		)
	}
	// Освободившиеся слоты позволяют ожидающим создать новые ресурсы.
	for range victims {
		p.wakeOneLocked()
	}
	p.mu.Unlock()

	for _, resource := range victims {
		p.destroy(resource)
	}
}

// destroy уничтожает ресурс через фабрику, ошибки только логируются.
func (p *Pool[T]) destroy(resource T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.factory.Destroy(ctx, resource); err != nil {
		p.logger.Warn("failed to destroy pool resource", "error", err)
	}
}
