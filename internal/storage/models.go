package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Profile is one persisted simulated user: the distribution parameters
// needed to rebuild their samplers, never the samplers themselves.
type Profile struct {
	ID          string
	CreatedAt   time.Time
	Label       string
	Description string
	CycleMu     float64
	CycleSigma  float64
	BleedMu     float64
	BleedSigma  float64
	AnomalyP    float64
}

// Cycle is one generated cycle row. Seq orders cycles within a
// profile and keeps counting across generation batches.
type Cycle struct {
	ID        string
	ProfileID string
	Seq       int
	StartDate time.Time
	BleedDays float64
	Note      string // empty when the cycle was unremarkable
	CreatedAt time.Time
}
