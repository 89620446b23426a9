package policy

import "github.com/example/fleetctl/internal/geo"

// Canonical zone centres/radii per city. These are fixed, static tables
// — not configuration, since they encode regulatory
// geography rather than tunable behaviour.

// londonCongestionZone approximates the London congestion charge area.
var londonCongestionZone = geo.Zone{
	ID:      "LON-CONGESTION",
	Center:  geo.Coord{Lat: 51.5150, Lon: -0.0918},
	RadiusM: 3500,
}

// milanRestrictedZones are Milan's Area C / ZTL-equivalent geofences.
var milanRestrictedZones = []geo.Zone{
	{ID: "MIL-AREA-C", Center: geo.Coord{Lat: 45.4642, Lon: 9.1900}, RadiusM: 1500, Restricted: true},
	{ID: "MIL-DUOMO", Center: geo.Coord{Lat: 45.4641, Lon: 9.1919}, RadiusM: 400, Restricted: true},
}

// romeGeneralZTL covers Rome's general limited-traffic zone.
var romeGeneralZTL = geo.Zone{
	ID:      "ROM-ZTL",
	Center:  geo.Coord{Lat: 41.8986, Lon: 12.4768},
	RadiusM: 2000,
	Restricted: true,
}

// romeArchaeologicalZone is the pedestrian/archaeological core, off
// limits to scooters specifically.
var romeArchaeologicalZone = geo.Zone{
	ID:      "ROM-ARCH",
	Center:  geo.Coord{Lat: 41.8902, Lon: 12.4922},
	RadiusM: 600,
	Restricted: true,
}

func anyZoneContains(zones []geo.Zone, c geo.Coord) bool {
	for _, z := range zones {
		if z.Contains(c) {
			return true
		}
	}
	return false
}

// InLondonCongestionZone reports whether c falls inside London's
// congestion charge geofence. The charge itself is flat and unconditional
// (see London.AfterTrip); this is exposed for operator-facing reporting.
func InLondonCongestionZone(c geo.Coord) bool {
	return londonCongestionZone.Contains(c)
}
