// Package audit implements a checksum-chained, write-ahead-persisted
// audit trail. Every coordinator mutation must successfully append an
// audit entry before it is considered committed.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/example/fleetctl/internal/models"
)

// Store is the append-only persistence contract audit entries require.
// LoadAll is used once, at construction, to recover the chain already on
// disk; Append is called for every new entry.
type Store interface {
	LoadAll() ([]models.AuditEntry, error)
	Append(entry models.AuditEntry) error
}

// WriteError wraps a persistence failure encountered while appending.
// The coordinator converts this into a RolledBack error for callers.
type WriteError struct {
	Cause error
}

func (e *WriteError) Error() string { return fmt.Sprintf("audit write failed: %v", e.Cause) }
func (e *WriteError) Unwrap() error { return e.Cause }

// Log is the in-memory, mutex-guarded view of the chain plus its backing
// store. The audit mutex guards the sequence counter, the persistence
// write, and the in-memory append as a single atomic step; it
// is never held across a per-vehicle mutex acquisition.
type Log struct {
	mu      sync.Mutex
	store   Store
	entries []models.AuditEntry
	nextSeq uint64
}

// Open constructs a Log, recovering any entries already in store.
func Open(store Store) (*Log, error) {
	existing, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	l := &Log{store: store, entries: existing, nextSeq: uint64(len(existing)) + 1}
	return l, nil
}

// Record creates the next chain entry and appends it, persisting before
// it becomes visible in memory. On persistence failure the in-memory
// chain is left untouched and a *WriteError is returned.
func (l *Log) Record(eventType, payload string) (models.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := GenesisChecksum
	if n := len(l.entries); n > 0 {
		prev = l.entries[n-1].Checksum
	}
	entry := models.AuditEntry{
		SeqID:        l.nextSeq,
		Timestamp:    time.Now(),
		EventType:    eventType,
		Payload:      payload,
		PrevChecksum: prev,
	}
	entry.Checksum = Checksum(entry.SeqID, entry.Timestamp.Format(time.RFC3339Nano), entry.EventType, entry.Payload, entry.PrevChecksum)

	if err := l.store.Append(entry); err != nil {
		return models.AuditEntry{}, &WriteError{Cause: err}
	}
	l.entries = append(l.entries, entry)
	l.nextSeq++
	return entry, nil
}

// VerifyChain re-walks the in-memory entries, checking seq monotonicity,
// the prevChecksum linkage, and recomputed checksums.
func (l *Log) VerifyChain() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := GenesisChecksum
	var wantSeq uint64 = 1
	for _, e := range l.entries {
		if e.SeqID != wantSeq {
			return false, fmt.Errorf("audit chain gap: expected seq %d, found %d", wantSeq, e.SeqID)
		}
		if e.PrevChecksum != prev {
			return false, fmt.Errorf("audit chain broken at seq %d: prevChecksum mismatch", e.SeqID)
		}
		recomputed := Checksum(e.SeqID, e.Timestamp.Format(time.RFC3339Nano), e.EventType, e.Payload, e.PrevChecksum)
		if recomputed != e.Checksum {
			return false, fmt.Errorf("audit chain tampered at seq %d: checksum mismatch", e.SeqID)
		}
		prev = e.Checksum
		wantSeq++
	}
	return true, nil
}

// Entries returns a snapshot copy of the committed chain.
func (l *Log) Entries() []models.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
