// Package store persists survey snapshots by id.
//
// A [Store] keeps whole snapshots: the API server reads one, applies a
// single editor operation and writes the result back. Two backends exist:
//
//   - [FileStore]: one JSON file per survey, for the CLI and single-node servers
//   - [MongoStore]: one document per survey in a MongoDB collection
//
// Ids are validated with [errors.ValidateSurveyID] before they reach a
// backend, so they are always safe as file names.
//
// [errors.ValidateSurveyID]: github.com/evsingleline/singleline/pkg/errors.ValidateSurveyID
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	perrors "github.com/evsingleline/singleline/pkg/errors"
	"github.com/evsingleline/singleline/pkg/survey"
)

// ErrNotFound is returned when no survey has the requested id.
var ErrNotFound = errors.New("survey not found")

// Record is a stored survey.
type Record struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Survey    survey.Survey `json:"survey"`
}

// Summary is the listing form of a [Record].
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
	Panels    int       `json:"panels"`
	Breakers  int       `json:"breakers"`
}

// Summarize returns the listing form of r.
func (r Record) Summarize() Summary {
	return Summary{
		ID:        r.ID,
		Name:      r.Name,
		UpdatedAt: r.UpdatedAt,
		Panels:    len(r.Survey.Panels),
		Breakers:  len(r.Survey.Breakers()),
	}
}

// Store is implemented by every backend.
type Store interface {
	// List returns every survey, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Get returns the survey with id, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// Put creates or replaces r and returns it with timestamps set. An
	// empty ID is assigned a fresh one.
	Put(ctx context.Context, r Record) (Record, error)

	// Delete removes the survey with id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases the backend.
	Close() error
}

// NewID returns a fresh survey id.
func NewID() string { return uuid.NewString() }

// prepare assigns an id and timestamps for a write. created is the
// existing record's creation time, zero for a new record.
func prepare(r Record, created time.Time, now time.Time) (Record, error) {
	if r.ID == "" {
		r.ID = NewID()
	}
	if err := perrors.ValidateSurveyID(r.ID); err != nil {
		return Record{}, err
	}
	if r.Name == "" {
		r.Name = r.Survey.SiteInfo.CustomerName
	}
	if r.Name == "" {
		r.Name = "Untitled survey"
	}
	r.CreatedAt = created
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	return r, nil
}
