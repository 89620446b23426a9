package audit

import (
	"errors"
	"testing"

	"github.com/example/fleetctl/internal/models"
)

type memStore struct {
	entries []models.AuditEntry
	failNext bool
}

func (m *memStore) LoadAll() ([]models.AuditEntry, error) { return m.entries, nil }
func (m *memStore) Append(e models.AuditEntry) error {
	if m.failNext {
		return errors.New("disk full")
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestRecordChainsGenesis(t *testing.T) {
	store := &memStore{}
	log, err := Open(store)
	if err != nil {
		t.Fatal(err)
	}
	e1, err := log.Record("VEHICLE_RESERVED", "vehicle=V1 user=U1")
	if err != nil {
		t.Fatal(err)
	}
	if e1.SeqID != 1 {
		t.Fatalf("expected seq 1, got %d", e1.SeqID)
	}
	if e1.PrevChecksum != GenesisChecksum {
		t.Fatalf("expected genesis sentinel, got %s", e1.PrevChecksum)
	}

	e2, err := log.Record("RENTAL_STARTED", "vehicle=V1")
	if err != nil {
		t.Fatal(err)
	}
	if e2.PrevChecksum != e1.Checksum {
		t.Fatal("expected e2.PrevChecksum to equal e1.Checksum")
	}

	ok, err := log.VerifyChain()
	if !ok || err != nil {
		t.Fatalf("expected valid chain, got ok=%v err=%v", ok, err)
	}
}

func TestRecordFailurePreservesInMemoryChain(t *testing.T) {
	store := &memStore{}
	log, _ := Open(store)
	_, _ = log.Record("VEHICLE_RESERVED", "vehicle=V1")

	store.failNext = true
	_, err := log.Record("RENTAL_STARTED", "vehicle=V1")
	if err == nil {
		t.Fatal("expected write error")
	}
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected *WriteError, got %T", err)
	}
	if len(log.Entries()) != 1 {
		t.Fatalf("expected in-memory chain unchanged at 1 entry, got %d", len(log.Entries()))
	}
}

func TestVerifyChainDetectsTamper(t *testing.T) {
	store := &memStore{}
	log, _ := Open(store)
	_, _ = log.Record("VEHICLE_RESERVED", "vehicle=V1")
	log.entries[0].Checksum = "deadbeef"

	ok, err := log.VerifyChain()
	if ok || err == nil {
		t.Fatal("expected tamper to be detected")
	}
}
