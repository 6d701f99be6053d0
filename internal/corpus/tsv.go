package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/voxelabs/studymap/internal/store"
)

var (
	studyColumns      = []string{"study_id", "title", "authors", "journal", "year", "space"}
	annotationColumns = []string{"study_id", "contrast_id", "term", "weight"}
	coordinateColumns = []string{"study_id", "x", "y", "z"}
)

// openTSV opens a tab-separated corpus file and consumes its header
// row, which must carry the expected columns in order.
func openTSV(path string, columns []string) (*os.File, *csv.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open corpus file: %w", err)
	}

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, nil, &RowError{File: path, Line: 1, Message: "missing header row"}
		}
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	if !headerMatches(header, columns) {
		_ = f.Close()
		return nil, nil, &RowError{
			File: path,
			Line: 1,
			Message: fmt.Sprintf("expected columns %q, got %q",
				strings.Join(columns, ", "), strings.Join(header, ", ")),
		}
	}
	return f, r, nil
}

func headerMatches(header, columns []string) bool {
	if len(header) != len(columns) {
		return false
	}
	for i, col := range columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return false
		}
	}
	return true
}

func (l *Loader) loadStudies(ctx context.Context, path string) (int64, error) {
	f, r, err := openTSV(path, studyColumns)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	var total int64
	batch := make([]store.Study, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.sink.InsertStudies(ctx, batch); err != nil {
			return fmt.Errorf("insert studies: %w", err)
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}

		study, err := parseStudyRow(path, r, rec)
		if err != nil {
			return 0, err
		}
		batch = append(batch, study)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return total, nil
}

func (l *Loader) loadAnnotations(ctx context.Context, path string) (int64, error) {
	f, r, err := openTSV(path, annotationColumns)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	var total int64
	batch := make([]store.Annotation, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.sink.InsertAnnotations(ctx, batch); err != nil {
			return fmt.Errorf("insert annotations: %w", err)
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}

		ann, err := parseAnnotationRow(path, r, rec)
		if err != nil {
			return 0, err
		}
		batch = append(batch, ann)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return total, nil
}

func (l *Loader) loadCoordinates(ctx context.Context, path string) (int64, error) {
	f, r, err := openTSV(path, coordinateColumns)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	var total int64
	batch := make([]store.StudyPoint, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.sink.InsertCoordinates(ctx, batch); err != nil {
			return fmt.Errorf("insert coordinates: %w", err)
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}

		point, err := parseCoordinateRow(path, r, rec)
		if err != nil {
			return 0, err
		}
		batch = append(batch, point)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return total, nil
}

func parseStudyRow(path string, r *csv.Reader, rec []string) (store.Study, error) {
	line, _ := r.FieldPos(0)

	id, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return store.Study{}, &RowError{File: path, Line: line, Message: fmt.Sprintf("invalid study_id %q", rec[0])}
	}

	year := 0
	if v := strings.TrimSpace(rec[4]); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			return store.Study{}, &RowError{File: path, Line: line, Message: fmt.Sprintf("invalid year %q", rec[4])}
		}
	}

	return store.Study{
		ID:      id,
		Title:   rec[1],
		Authors: rec[2],
		Journal: rec[3],
		Year:    year,
		Space:   rec[5],
	}, nil
}

func parseAnnotationRow(path string, r *csv.Reader, rec []string) (store.Annotation, error) {
	line, _ := r.FieldPos(0)

	id, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return store.Annotation{}, &RowError{File: path, Line: line, Message: fmt.Sprintf("invalid study_id %q", rec[0])}
	}

	term := strings.TrimSpace(rec[2])
	if term == "" {
		return store.Annotation{}, &RowError{File: path, Line: line, Message: "empty term"}
	}

	weight := 0.0
	if v := strings.TrimSpace(rec[3]); v != "" {
		weight, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return store.Annotation{}, &RowError{File: path, Line: line, Message: fmt.Sprintf("invalid weight %q", rec[3])}
		}
	}

	return store.Annotation{
		StudyID:    id,
		ContrastID: rec[1],
		Term:       term,
		Weight:     weight,
	}, nil
}

func parseCoordinateRow(path string, r *csv.Reader, rec []string) (store.StudyPoint, error) {
	line, _ := r.FieldPos(0)

	id, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return store.StudyPoint{}, &RowError{File: path, Line: line, Message: fmt.Sprintf("invalid study_id %q", rec[0])}
	}

	var vals [3]float64
	for i, name := range []string{"x", "y", "z"} {
		vals[i], err = strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return store.StudyPoint{}, &RowError{File: path, Line: line, Message: fmt.Sprintf("invalid %s %q", name, rec[i+1])}
		}
	}

	return store.StudyPoint{
		StudyID: id,
		Point:   store.Point{X: vals[0], Y: vals[1], Z: vals[2]},
	}, nil
}

// RowError reports a malformed row in a corpus data file.
type RowError struct {
	File    string
	Line    int
	Message string
}

func (e *RowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}
