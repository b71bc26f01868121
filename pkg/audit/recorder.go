package audit

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/promptwall/promptwall/pkg/infra/prometheus"
)

const (
	// DefaultBufferSize bounds the number of records waiting for the writer
	DefaultBufferSize = 1024
	// recentThreatsCap bounds the in-memory threat ring
	recentThreatsCap = 256
)

// Sink is an append-only storage backend for audit records
type Sink interface {
	Append(r Record) error
	Close() error
}

// NopSink discards records; used when audit storage is disabled
type NopSink struct{}

func (NopSink) Append(Record) error { return nil }
func (NopSink) Close() error        { return nil }

// Recorder accepts decision records without blocking the request path
type Recorder interface {
	Record(r Record)
	RecentThreats(limit int) []Record
	Close() error
}

// AsyncRecorder serializes appends through a single writer goroutine behind
// a bounded buffer. When the buffer is full the record is dropped and
// counted; a slow or failing sink never stalls request processing. Close
// drains the buffer before returning, which is the flush guarantee.
type AsyncRecorder struct {
	logger  *logrus.Logger
	sink    Sink
	queue   chan Record
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.Mutex
	recent []Record

	// closeMu orders every enqueue before the channel close: Record holds it
	// shared for the duration of the send, Close exclusively while flipping
	// closed, so no sender can race the close of queue.
	closeMu sync.RWMutex
	closed  bool
}

func NewAsyncRecorder(logger *logrus.Logger, sink Sink, bufferSize int) *AsyncRecorder {
	if sink == nil {
		sink = NopSink{}
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	r := &AsyncRecorder{
		logger: logger,
		sink:   sink,
		queue:  make(chan Record, bufferSize),
		done:   make(chan struct{}),
	}
	go r.writeLoop()
	return r
}

func (r *AsyncRecorder) writeLoop() {
	defer close(r.done)
	for record := range r.queue {
		if err := r.sink.Append(record); err != nil {
			prometheus.AuditWriteErrors.Inc()
			r.logger.WithError(err).WithField("request_id", record.ID).
				Error("audit append failed")
		}
	}
}

// Record enqueues one audit record. It never blocks: a full buffer drops
// the record and increments the drop counter instead.
func (r *AsyncRecorder) Record(record Record) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return
	}

	if record.IsThreat() {
		r.mu.Lock()
		r.recent = append(r.recent, record)
		if len(r.recent) > recentThreatsCap {
			r.recent = r.recent[len(r.recent)-recentThreatsCap:]
		}
		r.mu.Unlock()
	}

	select {
	case r.queue <- record:
	default:
		r.dropped.Add(1)
		prometheus.AuditDropped.Inc()
		r.logger.WithField("request_id", record.ID).Warn("audit buffer full, record dropped")
	}
}

// RecentThreats returns high and critical records, most recent first,
// truncated to limit.
func (r *AsyncRecorder) RecentThreats(limit int) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.recent) {
		limit = len(r.recent)
	}
	out := make([]Record, 0, limit)
	for i := len(r.recent) - 1; i >= len(r.recent)-limit; i-- {
		out = append(out, r.recent[i])
	}
	return out
}

// Dropped reports how many records were lost to a full buffer
func (r *AsyncRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting records, drains the buffer and closes the sink
func (r *AsyncRecorder) Close() error {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return nil
	}
	r.closed = true
	r.closeMu.Unlock()

	close(r.queue)
	<-r.done
	return r.sink.Close()
}
