package dissociate

import (
	"strings"

	"github.com/voxelabs/studymap/internal/store"
)

// TermDissociation is the outcome of a term dissociation query. Both
// difference sets iterate in ascending study id order.
type TermDissociation struct {
	TermA string
	TermB string
	ANotB *store.StudySet
	BNotA *store.StudySet
}

// LocationDissociation is the outcome of a coordinate dissociation query.
type LocationDissociation struct {
	CoordA    store.Point
	CoordB    store.Point
	Tolerance float64
	ANotB     *store.StudySet
	BNotA     *store.StudySet
}

// TermStudies is the outcome of a single-term membership query.
type TermStudies struct {
	Term    string
	Studies *store.StudySet
}

// LocationStudies is the outcome of a single-coordinate membership query.
type LocationStudies struct {
	Center  store.Point
	Radius  float64
	Studies *store.StudySet
}

// Membership is one result entry as it appears in a response envelope.
type Membership struct {
	Coordinates []float64 `json:"coordinates,omitempty"`
	Count       int       `json:"count"`
	Studies     []int64   `json:"studies"`
}

// TermEnvelope is the wire shape of a term dissociation response.
type TermEnvelope struct {
	Query   TermQueryEcho         `json:"query"`
	Results map[string]Membership `json:"results"`
}

// TermQueryEcho echoes the normalized terms of a dissociation query.
type TermQueryEcho struct {
	TermA string `json:"term_a"`
	TermB string `json:"term_b"`
}

// LocationEnvelope is the wire shape of a location dissociation response.
type LocationEnvelope struct {
	Query   LocationQueryEcho     `json:"query"`
	Results map[string]Membership `json:"results"`
}

// LocationQueryEcho echoes the parsed coordinates and effective tolerance.
type LocationQueryEcho struct {
	CoordsA     []float64 `json:"coords_a"`
	CoordsB     []float64 `json:"coords_b"`
	ToleranceMM float64   `json:"tolerance_mm"`
}

// TermStudiesEnvelope is the wire shape of a term membership response.
type TermStudiesEnvelope struct {
	Query   TermStudiesEcho `json:"query"`
	Count   int             `json:"count"`
	Studies []int64         `json:"studies"`
}

// TermStudiesEcho echoes the normalized term of a membership query.
type TermStudiesEcho struct {
	Term string `json:"term"`
}

// LocationStudiesEnvelope is the wire shape of a location membership
// response.
type LocationStudiesEnvelope struct {
	Query   LocationStudiesEcho `json:"query"`
	Count   int                 `json:"count"`
	Studies []int64             `json:"studies"`
}

// LocationStudiesEcho echoes the parsed center and effective radius.
type LocationStudiesEcho struct {
	Coordinates []float64 `json:"coordinates"`
	RadiusMM    float64   `json:"radius_mm"`
}

// Envelope shapes the result for transport. Result labels collapse the
// normalized terms' spaces back to underscores. When both terms
// normalize to the same text the two labels coincide and the envelope
// carries a single empty entry.
func (r *TermDissociation) Envelope() *TermEnvelope {
	labelA := strings.ReplaceAll(r.TermA, " ", "_")
	labelB := strings.ReplaceAll(r.TermB, " ", "_")

	results := make(map[string]Membership, 2)
	results[labelA+"_not_"+labelB] = membershipOf(r.ANotB, nil)
	results[labelB+"_not_"+labelA] = membershipOf(r.BNotA, nil)

	return &TermEnvelope{
		Query:   TermQueryEcho{TermA: r.TermA, TermB: r.TermB},
		Results: results,
	}
}

// Envelope shapes the result for transport. Location results keep fixed
// labels and echo each side's coordinates alongside its membership.
func (r *LocationDissociation) Envelope() *LocationEnvelope {
	return &LocationEnvelope{
		Query: LocationQueryEcho{
			CoordsA:     pointSlice(r.CoordA),
			CoordsB:     pointSlice(r.CoordB),
			ToleranceMM: r.Tolerance,
		},
		Results: map[string]Membership{
			"coords_a_not_b": membershipOf(r.ANotB, pointSlice(r.CoordA)),
			"coords_b_not_a": membershipOf(r.BNotA, pointSlice(r.CoordB)),
		},
	}
}

// Envelope shapes the membership result for transport.
func (r *TermStudies) Envelope() *TermStudiesEnvelope {
	ids := r.Studies.IDs()
	return &TermStudiesEnvelope{
		Query:   TermStudiesEcho{Term: r.Term},
		Count:   len(ids),
		Studies: ids,
	}
}

// Envelope shapes the membership result for transport.
func (r *LocationStudies) Envelope() *LocationStudiesEnvelope {
	ids := r.Studies.IDs()
	return &LocationStudiesEnvelope{
		Query:   LocationStudiesEcho{Coordinates: pointSlice(r.Center), RadiusMM: r.Radius},
		Count:   len(ids),
		Studies: ids,
	}
}

func membershipOf(set *store.StudySet, coords []float64) Membership {
	ids := set.IDs()
	return Membership{Coordinates: coords, Count: len(ids), Studies: ids}
}

func pointSlice(p store.Point) []float64 {
	return []float64{p.X, p.Y, p.Z}
}
