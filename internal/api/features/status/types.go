package status

import (
	"github.com/voxelabs/studymap/internal/store"
)

// Response reports the corpus backend and its row counts, with small
// samples of each table for eyeballing a fresh deployment.
type Response struct {
	OK                     bool               `json:"ok"`
	Dialect                string             `json:"dialect"`
	Version                string             `json:"version"`
	CoordinatesCount       int64              `json:"coordinates_count"`
	MetadataCount          int64              `json:"metadata_count"`
	AnnotationsTermsCount  int64              `json:"annotations_terms_count"`
	CoordinatesSample      []store.StudyPoint `json:"coordinates_sample"`
	MetadataSample         []store.Study      `json:"metadata_sample"`
	AnnotationsTermsSample []store.Annotation `json:"annotations_terms_sample"`
}

// Failed is the degraded response when diagnostics cannot be gathered.
type Failed struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func fromDiagnostics(d *store.Diagnostics) Response {
	resp := Response{
		OK:                     true,
		Dialect:                d.Dialect,
		Version:                d.Version,
		CoordinatesCount:       d.Coordinates,
		MetadataCount:          d.Studies,
		AnnotationsTermsCount:  d.Annotations,
		CoordinatesSample:      d.CoordinateSample,
		MetadataSample:         d.StudySample,
		AnnotationsTermsSample: d.AnnotationSample,
	}
	if resp.CoordinatesSample == nil {
		resp.CoordinatesSample = []store.StudyPoint{}
	}
	if resp.MetadataSample == nil {
		resp.MetadataSample = []store.Study{}
	}
	if resp.AnnotationsTermsSample == nil {
		resp.AnnotationsTermsSample = []store.Annotation{}
	}
	return resp
}
