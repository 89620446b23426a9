package fleetlocator

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/fleetctl/internal/geo"
)

// RedisLocator implements Locator using Redis GEO commands, so the
// fleet-ops "nearby" query can be served by a process other than the
// coordinator itself.
type RedisLocator struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisLocator(addr, password, key string) *RedisLocator {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisLocator{client: c, key: key, ctx: context.Background()}
}

func (r *RedisLocator) Upsert(e Entry) {
	_, _ = r.client.GeoAdd(r.ctx, r.key, &redis.GeoLocation{Longitude: e.Loc.Lon, Latitude: e.Loc.Lat, Name: e.VehicleID}).Result()
	_ = r.client.HSet(r.ctx, metaKey(e.VehicleID), map[string]interface{}{
		"state":   e.State,
		"updated": time.Now().Format(time.RFC3339),
	}).Err()
}

func (r *RedisLocator) Nearby(lat, lon, radiusM float64, limit int) []Entry {
	if radiusM <= 0 {
		radiusM = 5000
	}
	res, err := r.client.GeoRadius(r.ctx, r.key, lon, lat, &redis.GeoRadiusQuery{
		Radius: radiusM, Unit: "m", WithCoord: true, WithDist: true, Count: limit, Sort: "ASC",
	}).Result()
	if err != nil {
		return nil
	}
	out := make([]Entry, 0, len(res))
	for _, g := range res {
		e := Entry{VehicleID: g.Name, Loc: geo.Coord{Lat: g.Latitude, Lon: g.Longitude}}
		if m, err := r.client.HGetAll(r.ctx, metaKey(g.Name)).Result(); err == nil {
			if v, ok := m["state"]; ok {
				e.State = v
			}
			if v, ok := m["updated"]; ok {
				if t, err := time.Parse(time.RFC3339, v); err == nil {
					e.Updated = t
				}
			}
		}
		out = append(out, e)
	}
	return out
}

func metaKey(id string) string { return "vehicle:meta:" + id }
