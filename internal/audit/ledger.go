package audit

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/id"
)

// DefaultCapacity is the history size used when none is configured
const DefaultCapacity = 100

// Ledger is a bounded, append-only history of operation attempts backed by
// a fixed-size ring. When full, the oldest record is overwritten. Safe for
// concurrent use.
type Ledger struct {
	mu    sync.RWMutex
	buf   []Record
	head  int // index of the oldest record
	size  int
	seq   uint64
	ids   *id.Generator
	clock func() time.Time
}

// NewLedger creates a ledger holding at most capacity records
func NewLedger(capacity int) (*Ledger, error) {
	if capacity < 1 {
		return nil, fserr.Validationf("history", "", "history size must be at least 1, got %d", capacity)
	}
	return &Ledger{
		buf:   make([]Record, capacity),
		ids:   id.NewGenerator(),
		clock: time.Now,
	}, nil
}

// Append stores rec, assigning its sequence number, ID and (if unset) time.
// The stored record is returned.
func (l *Ledger) Append(rec Record) Record {
	rec = rec.clone()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	rec.Seq = l.seq
	rec.ID = l.ids.NewActionID()
	if rec.Time.IsZero() {
		rec.Time = l.clock()
	}

	capacity := len(l.buf)
	if l.size < capacity {
		l.buf[(l.head+l.size)%capacity] = rec
		l.size++
	} else {
		l.buf[l.head] = rec
		l.head = (l.head + 1) % capacity
	}
	return rec.clone()
}

// Query returns a snapshot of the records matching every filter, oldest
// first. Nil filters are ignored.
func (l *Ledger) Query(filters ...Filter) []Record {
	match := All(filters...)

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0, l.size)
	for i := 0; i < l.size; i++ {
		rec := l.buf[(l.head+i)%len(l.buf)]
		if match(rec) {
			out = append(out, rec.clone())
		}
	}
	return out
}

// Len returns the number of records held
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Cap returns the maximum number of records held
func (l *Ledger) Cap() int {
	return len(l.buf)
}

// Total returns how many records were ever appended, evicted ones included
func (l *Ledger) Total() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}
