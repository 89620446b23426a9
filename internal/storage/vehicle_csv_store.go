package storage

import (
	"fmt"
	"strconv"

	"github.com/example/fleetctl/internal/geo"
	"github.com/example/fleetctl/internal/models"
)

var vehicleHeader = []string{"id", "type", "state", "batteryPercent", "temperatureC", "lat", "lon", "city"}

// VehicleCSVStore is the default data/vehicles.csv adapter.
// HelmetDetected is not part of the fixed header and is not persisted;
// it resets to false on reload.
type VehicleCSVStore struct {
	Path string
}

func NewVehicleCSVStore(path string) *VehicleCSVStore { return &VehicleCSVStore{Path: path} }

func (s *VehicleCSVStore) LoadAll() ([]models.Vehicle, error) {
	rows, err := readCSV(s.Path)
	if err != nil {
		return nil, err
	}
	out := make([]models.Vehicle, 0, len(rows))
	for _, row := range rows {
		v, err := vehicleFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *VehicleCSVStore) SaveAll(vs []models.Vehicle) error {
	rows := make([][]string, 0, len(vs))
	for _, v := range vs {
		rows = append(rows, vehicleToRow(v))
	}
	return writeCSV(s.Path, vehicleHeader, rows)
}

func (s *VehicleCSVStore) SaveOne(v models.Vehicle) error {
	all, err := s.LoadAll()
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == v.ID {
			all[i] = v
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, v)
	}
	return s.SaveAll(all)
}

func (s *VehicleCSVStore) Find(id string) (models.Vehicle, bool, error) {
	all, err := s.LoadAll()
	if err != nil {
		return models.Vehicle{}, false, err
	}
	for _, v := range all {
		if v.ID == id {
			return v, true, nil
		}
	}
	return models.Vehicle{}, false, nil
}

func vehicleKindToCSV(k models.VehicleKind) string {
	switch k {
	case models.KindBicycle:
		return "Bicycle"
	case models.KindScooter:
		return "ElectricScooter"
	case models.KindMoped:
		return "Moped"
	default:
		return string(k)
	}
}

func vehicleKindFromCSV(s string) models.VehicleKind {
	switch s {
	case "Bicycle":
		return models.KindBicycle
	case "ElectricScooter":
		return models.KindScooter
	case "Moped":
		return models.KindMoped
	default:
		return models.VehicleKind(s)
	}
}

func vehicleToRow(v models.Vehicle) []string {
	return []string{
		v.ID,
		vehicleKindToCSV(v.Kind),
		string(v.State),
		strconv.Itoa(v.BatteryPercent),
		strconv.FormatFloat(v.TemperatureC, 'f', -1, 64),
		strconv.FormatFloat(v.Location.Lat, 'f', -1, 64),
		strconv.FormatFloat(v.Location.Lon, 'f', -1, 64),
		v.City,
	}
}

func vehicleFromRow(row []string) (models.Vehicle, error) {
	if len(row) != len(vehicleHeader) {
		return models.Vehicle{}, fmt.Errorf("vehicle row has %d fields, want %d", len(row), len(vehicleHeader))
	}
	battery, err := strconv.Atoi(row[3])
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("parse batteryPercent: %w", err)
	}
	temp, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("parse temperatureC: %w", err)
	}
	lat, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return models.Vehicle{}, fmt.Errorf("parse lon: %w", err)
	}
	return models.Vehicle{
		ID:             row[0],
		Kind:           vehicleKindFromCSV(row[1]),
		State:          models.VehicleState(row[2]),
		BatteryPercent: battery,
		TemperatureC:   temp,
		Location:       geo.Coord{Lat: lat, Lon: lon},
		City:           row[7],
	}, nil
}
