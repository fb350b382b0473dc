// Package catalog holds the game catalog entries the crawlers enrich, and the stores
// that persist them.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelospk/gamecrawl/pkg/core/cooldown"
	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
)

// Field names an enrichable numeric field of an Entry.
type Field string

const (
	FieldScore    Field = "score"
	FieldDuration Field = "duration"
)

// Fields lists every enrichable field.
func Fields() []Field {
	return []Field{FieldScore, FieldDuration}
}

// ParseField converts user input to a Field.
func ParseField(s string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(s))) {
	case FieldScore:
		return FieldScore, nil
	case FieldDuration:
		return FieldDuration, nil
	}
	return "", fmt.Errorf("%w: %q", coreerrors.ErrUnknownField, s)
}

// Entry is one game in the catalog. Keys the crawler does not know about are kept
// in Extra and written back untouched.
type Entry struct {
	ID            string
	Name          string
	Platform      string
	Score         *float64
	HoursToBeat   *float64
	ScoreRetry    cooldown.State
	DurationRetry cooldown.State
	Extra         map[string]json.RawMessage
}

// Value returns the entry's value for field, or nil.
func (e *Entry) Value(field Field) *float64 {
	switch field {
	case FieldScore:
		return e.Score
	case FieldDuration:
		return e.HoursToBeat
	}
	return nil
}

// Has reports whether the entry already carries a value for field.
func (e *Entry) Has(field Field) bool {
	return e.Value(field) != nil
}

// Retry returns the cooldown state tracked for field.
func (e *Entry) Retry(field Field) cooldown.State {
	switch field {
	case FieldScore:
		return e.ScoreRetry
	case FieldDuration:
		return e.DurationRetry
	}
	return cooldown.State{}
}

type entryJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Platform      string          `json:"platform,omitempty"`
	Score         *float64        `json:"score,omitempty"`
	HoursToBeat   *float64        `json:"hoursToBeat,omitempty"`
	ScoreRetry    *cooldown.State `json:"scoreRetry,omitempty"`
	DurationRetry *cooldown.State `json:"durationRetry,omitempty"`
}

var knownKeys = []string{"id", "name", "platform", "score", "hoursToBeat", "scoreRetry", "durationRetry"}

// MarshalJSON writes the known fields and merges Extra back in.
func (e Entry) MarshalJSON() ([]byte, error) {
	known := entryJSON{
		ID:          e.ID,
		Name:        e.Name,
		Platform:    e.Platform,
		Score:       e.Score,
		HoursToBeat: e.HoursToBeat,
	}
	if !e.ScoreRetry.IsZero() {
		s := e.ScoreRetry
		known.ScoreRetry = &s
	}
	if !e.DurationRetry.IsZero() {
		s := e.DurationRetry
		known.DurationRetry = &s
	}
	if len(e.Extra) == 0 {
		return json.Marshal(known)
	}

	data, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage, len(e.Extra)+len(knownKeys))
	for k, v := range e.Extra {
		merged[k] = v
	}
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads the known fields and keeps everything else in Extra.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var known entryJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownKeys {
		delete(all, k)
	}

	*e = Entry{
		ID:          known.ID,
		Name:        known.Name,
		Platform:    known.Platform,
		Score:       known.Score,
		HoursToBeat: known.HoursToBeat,
	}
	if known.ScoreRetry != nil {
		e.ScoreRetry = *known.ScoreRetry
	}
	if known.DurationRetry != nil {
		e.DurationRetry = *known.DurationRetry
	}
	if len(all) > 0 {
		e.Extra = all
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Score         *float64
	HoursToBeat   *float64
	ScoreRetry    *cooldown.State
	DurationRetry *cooldown.State
}

// FieldPatch builds a Patch touching only field's value and retry state. Either
// argument may be nil.
func FieldPatch(field Field, value *float64, retry *cooldown.State) Patch {
	var p Patch
	switch field {
	case FieldScore:
		p.Score = value
		p.ScoreRetry = retry
	case FieldDuration:
		p.HoursToBeat = value
		p.DurationRetry = retry
	}
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Score == nil && p.HoursToBeat == nil && p.ScoreRetry == nil && p.DurationRetry == nil
}

// Apply writes the patch onto e.
func (p Patch) Apply(e *Entry) {
	if p.Score != nil {
		v := *p.Score
		e.Score = &v
	}
	if p.HoursToBeat != nil {
		v := *p.HoursToBeat
		e.HoursToBeat = &v
	}
	if p.ScoreRetry != nil {
		e.ScoreRetry = *p.ScoreRetry
	}
	if p.DurationRetry != nil {
		e.DurationRetry = *p.DurationRetry
	}
}

// Store is the minimal read/update contract the crawlers need.
type Store interface {
	GetAll(ctx context.Context) ([]Entry, error)
	// GetByID returns ErrEntryNotFound when id is unknown.
	GetByID(ctx context.Context, id string) (*Entry, error)
	// Update applies p to the entry and returns the updated entry.
	Update(ctx context.Context, id string, p Patch) (*Entry, error)
	Close() error
}

// ClearCooldowns resets the retry state of the given fields (all fields when none
// are given) on every entry that has any, and returns how many entries changed.
func ClearCooldowns(ctx context.Context, store Store, fields ...Field) (int, error) {
	if len(fields) == 0 {
		fields = Fields()
	}
	entries, err := store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load entries: %w", err)
	}

	cleared := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return cleared, err
		}
		var p Patch
		for _, f := range fields {
			if e.Retry(f).IsZero() {
				continue
			}
			zero := cooldown.Cleared()
			switch f {
			case FieldScore:
				p.ScoreRetry = &zero
			case FieldDuration:
				p.DurationRetry = &zero
			}
		}
		if p.IsEmpty() {
			continue
		}
		if _, err := store.Update(ctx, e.ID, p); err != nil {
			return cleared, fmt.Errorf("clear cooldown for %s: %w", e.ID, err)
		}
		cleared++
	}
	return cleared, nil
}
