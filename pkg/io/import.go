package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/evsingleline/singleline/pkg/survey"
)

// ErrMalformed is wrapped by decode failures.
var ErrMalformed = errors.New("malformed snapshot JSON")

// maxSnapshotBytes bounds a single snapshot read.
const maxSnapshotBytes = 16 << 20

// ReadJSON decodes and validates a snapshot from r. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (survey.Survey, error) {
	var s survey.Survey
	dec := json.NewDecoder(io.LimitReader(r, maxSnapshotBytes))
	if err := dec.Decode(&s); err != nil {
		return survey.Survey{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.Validate(); err != nil {
		return survey.Survey{}, err
	}
	normalize(&s)
	return s, nil
}

// Unmarshal is [ReadJSON] over a byte slice.
func Unmarshal(data []byte) (survey.Survey, error) {
	var s survey.Survey
	if err := json.Unmarshal(data, &s); err != nil {
		return survey.Survey{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.Validate(); err != nil {
		return survey.Survey{}, err
	}
	normalize(&s)
	return s, nil
}

// ImportJSON reads the snapshot file at path.
func ImportJSON(path string) (survey.Survey, error) {
	f, err := os.Open(path)
	if err != nil {
		return survey.Survey{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	s, err := ReadJSON(f)
	if err != nil {
		return survey.Survey{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// normalize fills fields that older or hand-written snapshots omit.
func normalize(s *survey.Survey) {
	for i := range s.Panels {
		if s.Panels[i].Breakers == nil {
			s.Panels[i].Breakers = []survey.Breaker{}
		}
	}
}
