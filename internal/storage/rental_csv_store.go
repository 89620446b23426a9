package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/example/fleetctl/internal/models"
)

var rentalHeader = []string{"id", "userId", "vehicleId", "startTime", "endTime", "active"}

// RentalCSVStore is the default data/rentals.csv adapter.
type RentalCSVStore struct {
	Path string
}

func NewRentalCSVStore(path string) *RentalCSVStore { return &RentalCSVStore{Path: path} }

func (s *RentalCSVStore) LoadAll() ([]models.Rental, error) {
	rows, err := readCSV(s.Path)
	if err != nil {
		return nil, err
	}
	out := make([]models.Rental, 0, len(rows))
	for _, row := range rows {
		r, err := rentalFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RentalCSVStore) SaveAll(rs []models.Rental) error {
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, rentalToRow(r))
	}
	return writeCSV(s.Path, rentalHeader, rows)
}

func (s *RentalCSVStore) SaveOne(r models.Rental) error {
	all, err := s.LoadAll()
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == r.ID {
			all[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, r)
	}
	return s.SaveAll(all)
}

func (s *RentalCSVStore) Find(id string) (models.Rental, bool, error) {
	all, err := s.LoadAll()
	if err != nil {
		return models.Rental{}, false, err
	}
	for _, r := range all {
		if r.ID == id {
			return r, true, nil
		}
	}
	return models.Rental{}, false, nil
}

func rentalToRow(r models.Rental) []string {
	endTime := ""
	if r.EndTime != nil {
		endTime = r.EndTime.Format(time.RFC3339Nano)
	}
	return []string{
		r.ID,
		r.UserID,
		r.VehicleID,
		r.StartTime.Format(time.RFC3339Nano),
		endTime,
		strconv.FormatBool(r.Active),
	}
}

func rentalFromRow(row []string) (models.Rental, error) {
	if len(row) != len(rentalHeader) {
		return models.Rental{}, fmt.Errorf("rental row has %d fields, want %d", len(row), len(rentalHeader))
	}
	start, err := time.Parse(time.RFC3339Nano, row[3])
	if err != nil {
		return models.Rental{}, fmt.Errorf("parse startTime: %w", err)
	}
	active, err := strconv.ParseBool(row[5])
	if err != nil {
		return models.Rental{}, fmt.Errorf("parse active: %w", err)
	}
	r := models.Rental{
		ID:        row[0],
		UserID:    row[1],
		VehicleID: row[2],
		StartTime: start,
		Active:    active,
	}
	if row[4] != "" {
		end, err := time.Parse(time.RFC3339Nano, row[4])
		if err != nil {
			return models.Rental{}, fmt.Errorf("parse endTime: %w", err)
		}
		r.EndTime = &end
	}
	return r, nil
}
