package geo

import "testing"

func TestHaversineZero(t *testing.T) {
    d := Haversine(0,0,0,0)
    if d != 0 {
        t.Fatalf("expected 0, got %f", d)
    }
}

func TestZoneContains(t *testing.T) {
    z := Zone{ID: "z1", Center: Coord{Lat: 41.8902, Lon: 12.4922}, RadiusM: 300, Restricted: true}
    if !z.Contains(Coord{Lat: 41.8902, Lon: 12.4922}) {
        t.Fatal("expected center point to be contained")
    }
    if z.Contains(Coord{Lat: 45.4642, Lon: 9.1900}) {
        t.Fatal("expected far point to be outside zone")
    }
}
