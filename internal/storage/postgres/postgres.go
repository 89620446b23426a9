// Package postgres is an alternative to the CSV adapters in
// internal/storage, selected via PG_DSN. It satisfies the same
// load_all/save_one/save_all/find contract so the coordinator can be
// wired against either backend interchangeably.
package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/fleetctl/internal/models"
)

// Store holds a single pooled connection shared by all four entity
// adapters below, one struct per table set.
type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Vehicles returns a VehicleStore-compatible adapter backed by this pool.
func (s *Store) Vehicles() *VehicleStore { return &VehicleStore{db: s.db} }
func (s *Store) Users() *UserStore       { return &UserStore{db: s.db} }
func (s *Store) Rentals() *RentalStore   { return &RentalStore{db: s.db} }
func (s *Store) Payments() *PaymentStore { return &PaymentStore{db: s.db} }
func (s *Store) AuditLog() *AuditStore   { return &AuditStore{db: s.db} }

type VehicleStore struct{ db *sql.DB }

func (v *VehicleStore) LoadAll() ([]models.Vehicle, error) {
	rows, err := v.db.Query(`SELECT id, kind, city, lat, lon, battery_percent, temperature_c, state, helmet_detected FROM vehicles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Vehicle
	for rows.Next() {
		var vh models.Vehicle
		var kind, state string
		if err := rows.Scan(&vh.ID, &kind, &vh.City, &vh.Location.Lat, &vh.Location.Lon, &vh.BatteryPercent, &vh.TemperatureC, &state, &vh.HelmetDetected); err != nil {
			return nil, err
		}
		vh.Kind = models.VehicleKind(kind)
		vh.State = models.VehicleState(state)
		out = append(out, vh)
	}
	return out, rows.Err()
}

func (v *VehicleStore) SaveOne(vh models.Vehicle) error {
	_, err := v.db.Exec(`
		INSERT INTO vehicles(id, kind, city, lat, lon, battery_percent, temperature_c, state, helmet_detected)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			kind=$2, city=$3, lat=$4, lon=$5, battery_percent=$6, temperature_c=$7, state=$8, helmet_detected=$9`,
		vh.ID, string(vh.Kind), vh.City, vh.Location.Lat, vh.Location.Lon, vh.BatteryPercent, vh.TemperatureC, string(vh.State), vh.HelmetDetected)
	return err
}

func (v *VehicleStore) SaveAll(vs []models.Vehicle) error {
	for _, vh := range vs {
		if err := v.SaveOne(vh); err != nil {
			return err
		}
	}
	return nil
}

func (v *VehicleStore) Find(id string) (models.Vehicle, bool, error) {
	row := v.db.QueryRow(`SELECT id, kind, city, lat, lon, battery_percent, temperature_c, state, helmet_detected FROM vehicles WHERE id=$1`, id)
	var vh models.Vehicle
	var kind, state string
	err := row.Scan(&vh.ID, &kind, &vh.City, &vh.Location.Lat, &vh.Location.Lon, &vh.BatteryPercent, &vh.TemperatureC, &state, &vh.HelmetDetected)
	if err == sql.ErrNoRows {
		return models.Vehicle{}, false, nil
	}
	if err != nil {
		return models.Vehicle{}, false, err
	}
	vh.Kind = models.VehicleKind(kind)
	vh.State = models.VehicleState(state)
	return vh, true, nil
}

type UserStore struct{ db *sql.DB }

func (u *UserStore) LoadAll() ([]models.User, error) {
	rows, err := u.db.Query(`SELECT id, name FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		var usr models.User
		if err := rows.Scan(&usr.ID, &usr.Name); err != nil {
			return nil, err
		}
		out = append(out, usr)
	}
	return out, rows.Err()
}

func (u *UserStore) SaveOne(usr models.User) error {
	_, err := u.db.Exec(`INSERT INTO users(id, name) VALUES($1,$2) ON CONFLICT (id) DO UPDATE SET name=$2`, usr.ID, usr.Name)
	return err
}

func (u *UserStore) SaveAll(us []models.User) error {
	for _, usr := range us {
		if err := u.SaveOne(usr); err != nil {
			return err
		}
	}
	return nil
}

func (u *UserStore) Find(id string) (models.User, bool, error) {
	row := u.db.QueryRow(`SELECT id, name FROM users WHERE id=$1`, id)
	var usr models.User
	err := row.Scan(&usr.ID, &usr.Name)
	if err == sql.ErrNoRows {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return usr, true, nil
}

type RentalStore struct{ db *sql.DB }

func (r *RentalStore) LoadAll() ([]models.Rental, error) {
	rows, err := r.db.Query(`SELECT id, user_id, vehicle_id, start_time, end_time, active FROM rentals`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Rental
	for rows.Next() {
		var ren models.Rental
		var end sql.NullTime
		if err := rows.Scan(&ren.ID, &ren.UserID, &ren.VehicleID, &ren.StartTime, &end, &ren.Active); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			ren.EndTime = &t
		}
		out = append(out, ren)
	}
	return out, rows.Err()
}

func (r *RentalStore) SaveOne(ren models.Rental) error {
	var end interface{}
	if ren.EndTime != nil {
		end = *ren.EndTime
	}
	_, err := r.db.Exec(`
		INSERT INTO rentals(id, user_id, vehicle_id, start_time, end_time, active)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET user_id=$2, vehicle_id=$3, start_time=$4, end_time=$5, active=$6`,
		ren.ID, ren.UserID, ren.VehicleID, ren.StartTime, end, ren.Active)
	return err
}

func (r *RentalStore) SaveAll(rs []models.Rental) error {
	for _, ren := range rs {
		if err := r.SaveOne(ren); err != nil {
			return err
		}
	}
	return nil
}

func (r *RentalStore) Find(id string) (models.Rental, bool, error) {
	row := r.db.QueryRow(`SELECT id, user_id, vehicle_id, start_time, end_time, active FROM rentals WHERE id=$1`, id)
	var ren models.Rental
	var end sql.NullTime
	err := row.Scan(&ren.ID, &ren.UserID, &ren.VehicleID, &ren.StartTime, &end, &ren.Active)
	if err == sql.ErrNoRows {
		return models.Rental{}, false, nil
	}
	if err != nil {
		return models.Rental{}, false, err
	}
	if end.Valid {
		t := end.Time
		ren.EndTime = &t
	}
	return ren, true, nil
}

type PaymentStore struct{ db *sql.DB }

func (p *PaymentStore) LoadAll() ([]models.Payment, error) {
	rows, err := p.db.Query(`SELECT id, rental_id, base_amount, surcharges, total, description FROM payments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Payment
	for rows.Next() {
		var pay models.Payment
		if err := rows.Scan(&pay.ID, &pay.RentalID, &pay.BaseAmount, &pay.Surcharges, &pay.Total, &pay.Description); err != nil {
			return nil, err
		}
		out = append(out, pay)
	}
	return out, rows.Err()
}

func (p *PaymentStore) SaveOne(pay models.Payment) error {
	_, err := p.db.Exec(`
		INSERT INTO payments(id, rental_id, base_amount, surcharges, total, description)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET rental_id=$2, base_amount=$3, surcharges=$4, total=$5, description=$6`,
		pay.ID, pay.RentalID, pay.BaseAmount, pay.Surcharges, pay.Total, pay.Description)
	return err
}

func (p *PaymentStore) SaveAll(ps []models.Payment) error {
	for _, pay := range ps {
		if err := p.SaveOne(pay); err != nil {
			return err
		}
	}
	return nil
}

func (p *PaymentStore) Find(id string) (models.Payment, bool, error) {
	row := p.db.QueryRow(`SELECT id, rental_id, base_amount, surcharges, total, description FROM payments WHERE id=$1`, id)
	var pay models.Payment
	err := row.Scan(&pay.ID, &pay.RentalID, &pay.BaseAmount, &pay.Surcharges, &pay.Total, &pay.Description)
	if err == sql.ErrNoRows {
		return models.Payment{}, false, nil
	}
	if err != nil {
		return models.Payment{}, false, err
	}
	return pay, true, nil
}

// AuditStore persists audit entries to Postgres with INSERT-only writes,
// preserving the append-only contract internal/audit.Store requires.
type AuditStore struct{ db *sql.DB }

func NewAuditStore(db *sql.DB) *AuditStore { return &AuditStore{db: db} }

func (a *AuditStore) LoadAll() ([]models.AuditEntry, error) {
	rows, err := a.db.Query(`SELECT seq_id, ts, event_type, payload, prev_checksum, checksum FROM audit_log ORDER BY seq_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var ts time.Time
		if err := rows.Scan(&e.SeqID, &ts, &e.EventType, &e.Payload, &e.PrevChecksum, &e.Checksum); err != nil {
			return nil, err
		}
		e.Timestamp = ts
		out = append(out, e)
	}
	return out, rows.Err()
}

func (a *AuditStore) Append(e models.AuditEntry) error {
	_, err := a.db.Exec(`INSERT INTO audit_log(seq_id, ts, event_type, payload, prev_checksum, checksum) VALUES($1,$2,$3,$4,$5,$6)`,
		e.SeqID, e.Timestamp, e.EventType, e.Payload, e.PrevChecksum, e.Checksum)
	if err != nil {
		return fmt.Errorf("postgres audit append: %w", err)
	}
	return nil
}
