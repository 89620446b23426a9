// Package storage implements the persistence adapters fleetctl requires:
// table-oriented load_all/save_one/save_all/find for vehicles, users,
// rentals, and payments, plus an append-only store for the audit log.
// The CSV adapters here are the contractually-specified default; an
// alternative Postgres-backed set lives in internal/storage/postgres.
package storage

import "github.com/example/fleetctl/internal/models"

type VehicleStore interface {
	LoadAll() ([]models.Vehicle, error)
	SaveOne(v models.Vehicle) error
	SaveAll(vs []models.Vehicle) error
	Find(id string) (models.Vehicle, bool, error)
}

type UserStore interface {
	LoadAll() ([]models.User, error)
	SaveOne(u models.User) error
	SaveAll(us []models.User) error
	Find(id string) (models.User, bool, error)
}

type RentalStore interface {
	LoadAll() ([]models.Rental, error)
	SaveOne(r models.Rental) error
	SaveAll(rs []models.Rental) error
	Find(id string) (models.Rental, bool, error)
}

type PaymentStore interface {
	LoadAll() ([]models.Payment, error)
	SaveOne(p models.Payment) error
	SaveAll(ps []models.Payment) error
	Find(id string) (models.Payment, bool, error)
}
