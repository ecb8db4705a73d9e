// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package models

import (
	"time"

	"github.com/google/uuid"
)

// Lift is a top-level movement such as Squat or Bench.
type Lift struct {
	ID    string `json:"id" validate:"required,max=64"`
	Name  string `json:"name" validate:"required,max=200"`
	Color *int64 `json:"color,omitempty"`
}

// Variation is a concrete way of performing a Lift (e.g. "Paused", "Close Grip").
type Variation struct {
	ID         string  `json:"id" validate:"required,max=64"`
	LiftID     string  `json:"liftId" validate:"required,max=64"`
	Name       *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Reps       *int64  `json:"reps,omitempty" validate:"omitempty,gte=0"`
	Favourite  bool    `json:"favourite"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=4000"`
	BodyWeight *bool   `json:"bodyWeight,omitempty"`
}

// Tempo is the eccentric/pause/concentric count of a set.
type Tempo struct {
	Down int64 `json:"down" validate:"gte=0"`
	Hold int64 `json:"hold" validate:"gte=0"`
	Up   int64 `json:"up" validate:"gte=0"`
}

// DefaultTempo is 3/1/1.
func DefaultTempo() Tempo {
	return Tempo{Down: 3, Hold: 1, Up: 1}
}

// LBSet is one logged set of a Variation.
type LBSet struct {
	ID            string    `json:"id" validate:"required,max=64"`
	VariationID   string    `json:"variationId" validate:"required,max=64"`
	Weight        float64   `json:"weight" validate:"gte=0"`
	Reps          int64     `json:"reps" validate:"gte=0"`
	Tempo         Tempo     `json:"tempo"`
	Date          time.Time `json:"date"`
	Notes         string    `json:"notes" validate:"max=4000"`
	RPE           *int      `json:"rpe,omitempty" validate:"omitempty,min=0,max=10"`
	MER           int       `json:"mer" validate:"gte=0"`
	BodyWeightRep *bool     `json:"bodyWeightRep,omitempty"`
	VideoURI      *string   `json:"videoUri,omitempty" validate:"omitempty,max=2048"`
}

// WorkoutExercise groups the sets of one variation inside a workout.
type WorkoutExercise struct {
	ID          string   `json:"id" validate:"required,max=64"`
	VariationID string   `json:"variationId" validate:"required,max=64"`
	SetIDs      []string `json:"setIds"`
}

// Workout is a training day. Date is a calendar date (YYYY-MM-DD).
type Workout struct {
	ID        string            `json:"id" validate:"required,max=64"`
	Date      string            `json:"date" validate:"required,datetime=2006-01-02"`
	Warmup    *string           `json:"warmup,omitempty" validate:"omitempty,max=4000"`
	Finisher  *string           `json:"finisher,omitempty" validate:"omitempty,max=4000"`
	Exercises []WorkoutExercise `json:"exercises" validate:"dive"`
}

// Goal is a free-form training target.
type Goal struct {
	ID        string    `json:"id" validate:"required,max=64"`
	Name      string    `json:"name" validate:"required,max=200"`
	Achieved  bool      `json:"achieved"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApplyDefaults fills an empty id.
func (l *Lift) ApplyDefaults() {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
}

// ApplyDefaults fills an empty id.
func (v *Variation) ApplyDefaults() {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
}

// ApplyDefaults fills an empty id, a zero tempo and a zero date.
// Only zero values are touched so repeating an upsert stores the same set.
func (s *LBSet) ApplyDefaults(now time.Time) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Tempo == (Tempo{}) {
		s.Tempo = DefaultTempo()
	}
	if s.Date.IsZero() {
		s.Date = now.UTC()
	}
}

// ApplyDefaults fills an empty id and nil exercise list.
func (w *Workout) ApplyDefaults() {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Exercises == nil {
		w.Exercises = []WorkoutExercise{}
	}
	for i := range w.Exercises {
		if w.Exercises[i].SetIDs == nil {
			w.Exercises[i].SetIDs = []string{}
		}
	}
}

// ApplyDefaults fills an empty id and zero timestamps.
func (g *Goal) ApplyDefaults(now time.Time) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now.UTC()
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = g.CreatedAt
	}
}

// TotalWeightMoved is weight x reps.
func (s LBSet) TotalWeightMoved() float64 {
	return s.Weight * float64(s.Reps)
}
