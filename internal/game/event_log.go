package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize      = 1024                   // Circular buffer size
	MaxEventsPerSec      = 5000                   // Global rate limit
	MaxEventsPerSource   = 50                     // Per-source rate limit per second
	BatchFlushSize       = 64                     // Events per batch write
	BatchFlushInterval   = 100 * time.Millisecond // How often to flush
	SourceLimiterCleanup = 5 * time.Minute        // Cleanup interval for source limiters
)

// SourceSim marks events produced by the simulation itself. They are only
// subject to the global limiter.
const SourceSim = "sim"

// EventLog is a bounded, rate-limited NDJSON event log.
// Emit has a single producer (the engine loop); the writer goroutine is the
// single consumer.
type EventLog struct {
	buffer    [EventBufferSize]Event
	writeHead atomic.Uint64 // next slot to write
	readHead  atomic.Uint64 // next slot to flush
	seq       uint64

	globalLimiter  *rate.Limiter
	sourceLimiters sync.Map // map[string]*sourceLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	out    *bufio.Writer
	closer io.Closer
	outMu  sync.Mutex

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
}

type sourceLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// NewEventLog creates a new bounded event log
func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens filePath for append and begins flushing. An empty path keeps
// events in memory only.
func (el *EventLog) Start(filePath string) error {
	if filePath == "" {
		return el.StartWriter(nil)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	if err := el.StartWriter(file); err != nil {
		file.Close()
		return err
	}
	el.closer = file
	return nil
}

// StartWriter begins flushing to w. A nil writer discards flushed events.
func (el *EventLog) StartWriter(w io.Writer) error {
	if !el.running.CompareAndSwap(false, true) {
		return nil
	}
	if w != nil {
		el.out = bufio.NewWriter(w)
	}

	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes pending events and closes the output.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Swap(false) {
			return
		}
		close(el.stopChan)
		el.writerWg.Wait()

		el.outMu.Lock()
		if el.out != nil {
			el.out.Flush()
		}
		if el.closer != nil {
			el.closer.Close()
		}
		el.outMu.Unlock()
	})
}

// Emit adds an event. Returns false if rate limited, full or not running.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}

	if event.Source != "" && event.Source != SourceSim {
		if !el.sourceLimiter(event.Source).Allow() {
			el.droppedCount.Add(1)
			return false
		}
	}

	head := el.writeHead.Load()
	if head-el.readHead.Load() >= EventBufferSize {
		el.droppedCount.Add(1)
		return false
	}

	el.seq++
	event.Sequence = el.seq
	el.buffer[head%EventBufferSize] = event
	el.writeHead.Store(head + 1)

	el.totalCount.Add(1)
	return true
}

// EmitGame logs a session event.
func (el *EventLog) EmitGame(ev GameEvent, tickNum uint64, runID string) bool {
	return el.Emit(NewEvent(ev.Type, tickNum, runID, SourceSim, PayloadFor(ev)))
}

func (el *EventLog) sourceLimiter(source string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.sourceLimiters.Load(source); ok {
		e := v.(*sourceLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &sourceLimiterEntry{limiter: rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/5)}
	entry.lastUsed.Store(now)
	actual, _ := el.sourceLimiters.LoadOrStore(source, entry)
	return actual.(*sourceLimiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// cleanupLoop drops limiters of sources that went quiet.
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(SourceLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-SourceLimiterCleanup).UnixNano()
			el.sourceLimiters.Range(func(key, value interface{}) bool {
				if value.(*sourceLimiterEntry).lastUsed.Load() < cutoff {
					el.sourceLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (el *EventLog) collectBatch(batch []Event) []Event {
	head := el.writeHead.Load()
	tail := el.readHead.Load()

	for i := tail; i < head && len(batch) < BatchFlushSize; i++ {
		batch = append(batch, el.buffer[i%EventBufferSize])
	}
	if len(batch) > 0 {
		el.readHead.Add(uint64(len(batch)))
	}
	return batch
}

// flushBatch writes newline-delimited JSON.
func (el *EventLog) flushBatch(batch []Event) {
	el.outMu.Lock()
	defer el.outMu.Unlock()

	if el.out == nil {
		return
	}
	enc := json.NewEncoder(el.out)
	for _, event := range batch {
		if err := enc.Encode(event); err != nil {
			continue
		}
	}
	el.out.Flush()
}

// GetStats returns counters for monitoring
func (el *EventLog) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"total":   el.totalCount.Load(),
		"dropped": el.droppedCount.Load(),
		"pending": el.writeHead.Load() - el.readHead.Load(),
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return el.droppedCount.Load()
}

// GetTotalCount returns the total number of events accepted
func (el *EventLog) GetTotalCount() uint64 {
	return el.totalCount.Load()
}
