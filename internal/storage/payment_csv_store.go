package storage

import (
	"fmt"
	"strconv"

	"github.com/example/fleetctl/internal/models"
)

var paymentHeader = []string{"id", "rentalId", "baseAmount", "surcharges", "total", "description"}

// PaymentCSVStore is the default data/payments.csv adapter.
type PaymentCSVStore struct {
	Path string
}

func NewPaymentCSVStore(path string) *PaymentCSVStore { return &PaymentCSVStore{Path: path} }

func (s *PaymentCSVStore) LoadAll() ([]models.Payment, error) {
	rows, err := readCSV(s.Path)
	if err != nil {
		return nil, err
	}
	out := make([]models.Payment, 0, len(rows))
	for _, row := range rows {
		p, err := paymentFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *PaymentCSVStore) SaveAll(ps []models.Payment) error {
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, paymentToRow(p))
	}
	return writeCSV(s.Path, paymentHeader, rows)
}

func (s *PaymentCSVStore) SaveOne(p models.Payment) error {
	all, err := s.LoadAll()
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == p.ID {
			all[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, p)
	}
	return s.SaveAll(all)
}

func (s *PaymentCSVStore) Find(id string) (models.Payment, bool, error) {
	all, err := s.LoadAll()
	if err != nil {
		return models.Payment{}, false, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, true, nil
		}
	}
	return models.Payment{}, false, nil
}

func paymentToRow(p models.Payment) []string {
	return []string{
		p.ID,
		p.RentalID,
		strconv.FormatFloat(p.BaseAmount, 'f', 2, 64),
		strconv.FormatFloat(p.Surcharges, 'f', 2, 64),
		strconv.FormatFloat(p.Total, 'f', 2, 64),
		p.Description,
	}
}

func paymentFromRow(row []string) (models.Payment, error) {
	if len(row) != len(paymentHeader) {
		return models.Payment{}, fmt.Errorf("payment row has %d fields, want %d", len(row), len(paymentHeader))
	}
	base, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return models.Payment{}, fmt.Errorf("parse baseAmount: %w", err)
	}
	surcharges, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return models.Payment{}, fmt.Errorf("parse surcharges: %w", err)
	}
	total, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return models.Payment{}, fmt.Errorf("parse total: %w", err)
	}
	return models.Payment{
		ID:          row[0],
		RentalID:    row[1],
		BaseAmount:  base,
		Surcharges:  surcharges,
		Total:       total,
		Description: row[5],
	}, nil
}
