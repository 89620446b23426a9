package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/example/fleetctl/internal/models"
)

var auditHeader = []string{"seqId", "timestamp", "eventType", "payload", "prevChecksum", "checksum"}

// AuditCSVStore is the default data/audit_log.csv adapter. It
// satisfies internal/audit.Store. Append never rewrites prior rows,
// matching the append-only contract the audit chain depends on.
type AuditCSVStore struct {
	Path string
}

func NewAuditCSVStore(path string) *AuditCSVStore { return &AuditCSVStore{Path: path} }

func (s *AuditCSVStore) LoadAll() ([]models.AuditEntry, error) {
	rows, err := readCSV(s.Path)
	if err != nil {
		return nil, err
	}
	out := make([]models.AuditEntry, 0, len(rows))
	for _, row := range rows {
		e, err := auditFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *AuditCSVStore) Append(e models.AuditEntry) error {
	return appendCSV(s.Path, auditHeader, auditToRow(e))
}

func auditToRow(e models.AuditEntry) []string {
	return []string{
		strconv.FormatUint(e.SeqID, 10),
		e.Timestamp.Format(time.RFC3339Nano),
		e.EventType,
		e.Payload,
		e.PrevChecksum,
		e.Checksum,
	}
}

func auditFromRow(row []string) (models.AuditEntry, error) {
	if len(row) != len(auditHeader) {
		return models.AuditEntry{}, fmt.Errorf("audit row has %d fields, want %d", len(row), len(auditHeader))
	}
	seq, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("parse seqId: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, row[1])
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return models.AuditEntry{
		SeqID:        seq,
		Timestamp:    ts,
		EventType:    row[2],
		Payload:      row[3],
		PrevChecksum: row[4],
		Checksum:     row[5],
	}, nil
}
