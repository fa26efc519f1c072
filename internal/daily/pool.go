// Package daily picks the writing prompt and bonus challenge of the day.
//
// Selection is a pure function of the calendar day and the pool, so every
// reader sees the same item without coordinating through the store.
package daily

import (
	"errors"
	"fmt"
	"time"
)

// Difficulty grades how demanding a prompt or challenge is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Item is a single prompt or bonus challenge.
type Item struct {
	ID          string     `json:"id" yaml:"id"`
	Text        string     `json:"text" yaml:"text"`
	Category    string     `json:"category" yaml:"category"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Points      int        `json:"points" yaml:"points"`
}

// Pool is an ordered, named list of items. Order is significant: it drives selection.
type Pool struct {
	Name  string `json:"name" yaml:"name"`
	Items []Item `json:"items" yaml:"items"`
}

// Len reports the number of items in the pool.
func (p Pool) Len() int { return len(p.Items) }

// ErrEmptyPool is returned when a pool has nothing to select from. It signals
// an invalid configuration rather than a runtime condition.
var ErrEmptyPool = errors.New("invalid configuration: content pool is empty")

// DayOfYear returns the whole days between t's local midnight and January 0 of
// the same year, so January 1 is day 1. Leap years need no special handling.
func DayOfYear(t time.Time) int {
	loc := t.Location()
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	january0 := time.Date(y, time.January, 0, 0, 0, 0, 0, loc)
	// Round absorbs DST shifts between the two midnights.
	return int(midnight.Sub(january0).Round(24*time.Hour) / (24 * time.Hour))
}

// IndexFor maps a day number onto a pool of n items.
func IndexFor(day, n int) int {
	idx := day % n
	if idx < 0 {
		idx += n
	}
	return idx
}

// Select returns the item for the calendar day of ref.
func Select(pool Pool, ref time.Time) (Item, error) {
	if pool.Len() == 0 {
		if pool.Name != "" {
			return Item{}, fmt.Errorf("pool %q: %w", pool.Name, ErrEmptyPool)
		}
		return Item{}, ErrEmptyPool
	}
	return pool.Items[IndexFor(DayOfYear(ref), pool.Len())], nil
}
