// Package mapview groups scored deals into geohash cells for the map page.
package mapview

import (
	"math"
	"sort"

	"github.com/mmcloughlin/geohash"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/dealboard/internal/market"
	"github.com/sells-group/dealboard/internal/model"
)

// DefaultPrecision is the geohash length used when the caller passes 0.
// Four characters is roughly a 40km cell, which keeps a metro in one cluster.
const DefaultPrecision = 4

const maxPrecision = 12

// Coord is a WGS84 position.
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is the bounding box of a cluster's deals.
type Bounds struct {
	SouthWest Coord `json:"southWest"`
	NorthEast Coord `json:"northEast"`
}

// Marker is one deal on the map.
type Marker struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Position Coord          `json:"position"`
	Score    float64        `json:"score"`
	Category model.Category `json:"category"`
	Risk     model.Risk     `json:"risk"`
	Color    string         `json:"color"`
}

// Cluster is a geohash cell with at least one deal.
type Cluster struct {
	Geohash  string         `json:"geohash"`
	Count    int            `json:"count"`
	Centroid Coord          `json:"centroid"`
	Bounds   Bounds         `json:"bounds"`
	AvgScore float64        `json:"avgScore"`
	Dominant model.Category `json:"dominantCategory"`
	Markers  []Marker       `json:"markers"`
}

// Result is the map payload.
type Result struct {
	Precision int       `json:"precision"`
	Clusters  []Cluster `json:"clusters"`
	// Unplaced counts deals without coordinates.
	Unplaced int `json:"unplaced"`
}

// Located reports whether p carries usable coordinates. (0,0) is treated as
// unknown.
func Located(p *model.Property) bool {
	if p.Lat == 0 && p.Lng == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Build clusters deals by geohash prefix. Clusters are ordered by count
// descending, then geohash.
func Build(deals []model.ScoredProperty, precision int) Result {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	precision = min(precision, maxPrecision)

	res := Result{Precision: precision, Clusters: []Cluster{}}
	cells := make(map[string][]model.ScoredProperty)
	for _, d := range deals {
		if !Located(&d.Property) {
			res.Unplaced++
			continue
		}
		h := geohash.EncodeWithPrecision(d.Lat, d.Lng, uint(precision))
		cells[h] = append(cells[h], d)
	}

	for h, members := range cells {
		res.Clusters = append(res.Clusters, cluster(h, members))
	}
	sort.Slice(res.Clusters, func(i, j int) bool {
		a, b := res.Clusters[i], res.Clusters[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Geohash < b.Geohash
	})
	return res
}

func cluster(hash string, members []model.ScoredProperty) Cluster {
	flat := make([]float64, 0, 2*len(members))
	markers := make([]Marker, 0, len(members))
	counts := make(map[model.Category]int)
	var sumLat, sumLng, sumScore float64

	for _, m := range members {
		flat = append(flat, m.Lng, m.Lat)
		sumLat += m.Lat
		sumLng += m.Lng
		sumScore += m.Score
		counts[m.Category]++
		markers = append(markers, Marker{
			ID:       m.ID,
			Title:    m.Title,
			Position: Coord{Lat: m.Lat, Lng: m.Lng},
			Score:    m.Score,
			Category: m.Category,
			Risk:     m.Risk,
			Color:    market.Category(m.Category).Color,
		})
	}
	sort.Slice(markers, func(i, j int) bool {
		if markers[i].Score != markers[j].Score {
			return markers[i].Score > markers[j].Score
		}
		return markers[i].ID < markers[j].ID
	})

	b := geom.NewMultiPointFlat(geom.XY, flat).Bounds()
	n := float64(len(members))
	return Cluster{
		Geohash:  hash,
		Count:    len(members),
		Centroid: Coord{Lat: round6(sumLat / n), Lng: round6(sumLng / n)},
		Bounds: Bounds{
			SouthWest: Coord{Lat: b.Min(1), Lng: b.Min(0)},
			NorthEast: Coord{Lat: b.Max(1), Lng: b.Max(0)},
		},
		AvgScore: math.Round(sumScore/n*100) / 100,
		Dominant: dominant(counts),
		Markers:  markers,
	}
}

// dominant picks the most common category, breaking ties by display order.
func dominant(counts map[model.Category]int) model.Category {
	var best model.Category
	bestN := 0
	for _, c := range model.AllCategories() {
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	return best
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
