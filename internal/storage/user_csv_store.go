package storage

import (
	"fmt"

	"github.com/example/fleetctl/internal/models"
)

var userHeader = []string{"id", "name"}

// UserCSVStore is the default data/users.csv adapter.
type UserCSVStore struct {
	Path string
}

func NewUserCSVStore(path string) *UserCSVStore { return &UserCSVStore{Path: path} }

func (s *UserCSVStore) LoadAll() ([]models.User, error) {
	rows, err := readCSV(s.Path)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(userHeader) {
			return nil, fmt.Errorf("user row has %d fields, want %d", len(row), len(userHeader))
		}
		out = append(out, models.User{ID: row[0], Name: row[1]})
	}
	return out, nil
}

func (s *UserCSVStore) SaveAll(us []models.User) error {
	rows := make([][]string, 0, len(us))
	for _, u := range us {
		rows = append(rows, []string{u.ID, u.Name})
	}
	return writeCSV(s.Path, userHeader, rows)
}

func (s *UserCSVStore) SaveOne(u models.User) error {
	all, err := s.LoadAll()
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == u.ID {
			all[i] = u
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, u)
	}
	return s.SaveAll(all)
}

func (s *UserCSVStore) Find(id string) (models.User, bool, error) {
	all, err := s.LoadAll()
	if err != nil {
		return models.User{}, false, err
	}
	for _, u := range all {
		if u.ID == id {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}
