// Package events implements the threaded, multi-producer/single-consumer
// event manager: producers call Dispatch from any goroutine, a single
// worker goroutine drains the queue and invokes per-type subscriber
// callbacks outside any lock.
package events

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vkforge/corepool/arena"
	"github.com/vkforge/corepool/memtag"
	"github.com/vkforge/corepool/ringbuffer"
)

// ErrInvalidEventType is returned by Subscribe/Unsubscribe for a type
// outside [0, EventTypeMax).
var ErrInvalidEventType = errors.New("events: event type out of range")

// ErrManagerShutDown describes a manager that has been shut down. No
// method returns it: Dispatch reports a shut-down manager by returning
// false.
var ErrManagerShutDown = errors.New("events: manager is shut down")

// Config configures a Manager at construction time.
type Config struct {
	// EventTypeMax is the exclusive upper bound of the closed event-type
	// enum; types >= EventTypeMax are dropped at dispatch and at drain.
	EventTypeMax uint32
	// QueueCapacity bounds the number of in-flight events.
	QueueCapacity int
	// DataBufferCapacity bounds the event-data ring buffer in bytes.
	DataBufferCapacity uint64
	// WorkerArenaReserve/WorkerArenaCommit size the worker's thread-local
	// scratch arena, used to take a private copy of each event's payload
	// before invoking callbacks.
	WorkerArenaReserve uintptr
	WorkerArenaCommit  uintptr
}

// DefaultConfig returns reasonable defaults, mirroring typical per-frame
// event volumes in a renderer.
func DefaultConfig() Config {
	return Config{
		EventTypeMax:       64,
		QueueCapacity:      256,
		DataBufferCapacity: 64 * 1024,
		WorkerArenaReserve: 1 << 20,
		WorkerArenaCommit:  4096,
	}
}

// Manager coordinates producers calling Dispatch with a single drain
// worker goroutine.
type Manager struct {
	cfg Config

	mu        sync.Mutex
	running   bool
	callbacks [][]subscriber

	dataBuf     *ringbuffer.Buffer
	bufArena    *arena.Arena
	workerArena *arena.Arena
	workerAlloc arena.Allocator

	queueCh chan Event
	doneCh  chan struct{}
	wg      sync.WaitGroup
}

// New constructs and starts a Manager with its drain worker running.
func New(cfg Config) (*Manager, error) {
	if cfg.EventTypeMax == 0 {
		return nil, fmt.Errorf("events: EventTypeMax must be > 0")
	}
	if cfg.QueueCapacity <= 0 {
		return nil, fmt.Errorf("events: QueueCapacity must be > 0")
	}

	bufArena, err := arena.Create(uintptr(cfg.DataBufferCapacity*2+4096), uintptr(cfg.DataBufferCapacity+4096), 0)
	if err != nil {
		return nil, fmt.Errorf("events: create data buffer arena: %w", err)
	}
	bufAlloc := arena.NewArenaAllocator(bufArena, memtag.NewCounters())

	dataBuf, err := ringbuffer.Create(bufAlloc, cfg.DataBufferCapacity)
	if err != nil {
		_ = bufArena.Destroy()
		return nil, fmt.Errorf("events: create data buffer: %w", err)
	}

	workerArena, err := arena.Create(cfg.WorkerArenaReserve, cfg.WorkerArenaCommit, 0)
	if err != nil {
		_ = bufArena.Destroy()
		return nil, fmt.Errorf("events: create worker arena: %w", err)
	}

	m := &Manager{
		cfg:         cfg,
		running:     true,
		callbacks:   make([][]subscriber, cfg.EventTypeMax),
		dataBuf:     dataBuf,
		bufArena:    bufArena,
		workerArena: workerArena,
		workerAlloc: arena.NewArenaAllocator(workerArena, memtag.NewCounters()),
		queueCh:     make(chan Event, cfg.QueueCapacity),
		doneCh:      make(chan struct{}),
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.drainLoop()
	}()

	return m, nil
}

// Subscribe registers callback/userData for eventType. Subscribing an exact
// duplicate (same callback and userData) is a silent no-op. Subscriptions
// may be issued from any goroutine.
func (m *Manager) Subscribe(eventType uint32, callback Callback, userData any) error {
	if eventType >= m.cfg.EventTypeMax {
		return ErrInvalidEventType
	}
	if callback == nil {
		return fmt.Errorf("events: callback must not be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := subscriber{callback: callback, userData: userData}
	for _, existing := range m.callbacks[eventType] {
		if existing.equals(next) {
			slog.Debug("events: duplicate subscription rejected", "type", eventType)
			return nil
		}
	}
	m.callbacks[eventType] = append(m.callbacks[eventType], next)
	return nil
}

// Unsubscribe removes the first subscription matching (eventType,
// callback, userData). Returns true if a matching subscription was
// removed.
func (m *Manager) Unsubscribe(eventType uint32, callback Callback, userData any) bool {
	if eventType >= m.cfg.EventTypeMax {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target := subscriber{callback: callback, userData: userData}
	list := m.callbacks[eventType]
	for i, existing := range list {
		if existing.equals(target) {
			m.callbacks[eventType] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Dispatch publishes an event of the given type with an optional payload.
// Returns false if the manager is shut down, the event type is out of
// range, the queue is full, or the data buffer cannot satisfy the
// reservation; in every failure case the data buffer's state is left
// exactly as it was before the call.
func (m *Manager) Dispatch(eventType uint32, payload []byte) bool {
	if eventType >= m.cfg.EventTypeMax {
		slog.Warn("events: dropping out-of-range event type", "type", eventType, "max", m.cfg.EventTypeMax)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return false
	}

	size := uint64(len(payload))
	var data []byte
	if size > 0 {
		if !m.dataBuf.CanAlloc(size) {
			return false
		}
		var ok bool
		data, ok = m.dataBuf.Alloc(size)
		if !ok {
			return false
		}
		copy(data, payload)
	}

	ev := Event{Type: eventType, Data: data, DataSize: size}

	select {
	case m.queueCh <- ev:
		return true
	default:
		if size > 0 {
			m.dataBuf.RollbackLastAlloc()
		}
		return false
	}
}

// QueueDepth returns the number of events currently queued, awaiting the
// worker.
func (m *Manager) QueueDepth() int {
	return len(m.queueCh)
}

// DataBufferFill returns the current fill level of the event-data buffer.
func (m *Manager) DataBufferFill() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dataBuf.Fill()
}

// drainLoop is the body of the single worker goroutine.
func (m *Manager) drainLoop() {
	for {
		select {
		case ev := <-m.queueCh:
			m.handleEvent(ev)
		case <-m.doneCh:
			m.drainRemaining()
			return
		}
	}
}

// drainRemaining processes whatever is left in the queue once shutdown has
// been signaled, so no dispatched event is silently lost.
func (m *Manager) drainRemaining() {
	for {
		select {
		case ev := <-m.queueCh:
			m.handleEvent(ev)
		default:
			return
		}
	}
}

// handleEvent implements one iteration of the drain algorithm: validate
// the type, take a private scoped copy of the payload, release the data
// buffer slot, snapshot subscribers, release the lock, then invoke
// callbacks outside the lock.
func (m *Manager) handleEvent(ev Event) {
	if ev.Type >= m.cfg.EventTypeMax {
		m.mu.Lock()
		if ev.DataSize > 0 {
			m.dataBuf.Free(ev.DataSize)
		}
		m.mu.Unlock()
		slog.Warn("events: dropping out-of-range event type", "type", ev.Type, "max", m.cfg.EventTypeMax)
		return
	}

	scope := arena.BeginScope(m.workerAlloc)
	defer arena.EndScope(scope, memtag.Renderer)

	m.mu.Lock()
	var localData []byte
	if ev.DataSize > 0 {
		localData = m.workerAlloc.Alloc(uintptr(ev.DataSize), memtag.Renderer)
		copy(localData, ev.Data)
		m.dataBuf.Free(ev.DataSize)
	}
	subs := make([]subscriber, len(m.callbacks[ev.Type]))
	copy(subs, m.callbacks[ev.Type])
	m.mu.Unlock()

	local := Event{Type: ev.Type, Data: localData, DataSize: ev.DataSize}
	for _, s := range subs {
		if s.callback == nil {
			continue
		}
		s.callback(&local, s.userData)
	}
}

// Shutdown stops accepting new dispatches, signals the worker to drain the
// remaining queue and exit, joins it, then releases every owned resource.
// Safe to call once; subsequent calls are no-ops.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.doneCh)
	m.wg.Wait()

	m.mu.Lock()
	m.callbacks = nil
	m.dataBuf.Destroy()
	m.mu.Unlock()

	_ = m.bufArena.Destroy()
	_ = m.workerArena.Destroy()
}
