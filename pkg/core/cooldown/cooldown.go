// Package cooldown gates repeated lookups of entries that recently failed.
//
// The tracker is stateless: it reads a State and returns the next State, and the
// caller persists it.
package cooldown

import "time"

// Defaults for Policy.
const (
	DefaultWindow      = 7 * 24 * time.Hour
	DefaultMaxAttempts = 1
)

// State is the per-entry, per-field retry record. The zero value means "never tried".
type State struct {
	Attempts    int        `json:"attempts"`
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`
}

// IsZero reports whether s carries no retry history.
func (s State) IsZero() bool {
	return s.Attempts == 0 && s.LastAttempt == nil
}

// Policy configures when an entry becomes eligible again.
type Policy struct {
	Window      time.Duration
	MaxAttempts int
}

// DefaultPolicy blocks an entry for seven days after a single failure.
func DefaultPolicy() Policy {
	return Policy{Window: DefaultWindow, MaxAttempts: DefaultMaxAttempts}
}

// Tracker applies a Policy against a clock.
type Tracker struct {
	policy Policy
	now    func() time.Time
}

// NewTracker creates a Tracker. A nil now uses time.Now; non-positive policy
// values fall back to the defaults.
func NewTracker(policy Policy, now func() time.Time) *Tracker {
	if policy.Window <= 0 {
		policy.Window = DefaultWindow
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{policy: policy, now: now}
}

// Policy returns the policy in effect.
func (t *Tracker) Policy() Policy {
	return t.policy
}

// IsEligible reports whether an entry with state s may be looked up now.
func (t *Tracker) IsEligible(s State) bool {
	if s.Attempts < t.policy.MaxAttempts || s.LastAttempt == nil {
		return true
	}
	return t.now().Sub(*s.LastAttempt) >= t.policy.Window
}

// Remaining returns how long s stays blocked, or 0 if it is eligible.
func (t *Tracker) Remaining(s State) time.Duration {
	if t.IsEligible(s) {
		return 0
	}
	return t.policy.Window - t.now().Sub(*s.LastAttempt)
}

// RecordAttempt returns the state following an attempt. Success clears the attempt
// count; failure increments it. Both stamp the attempt time.
func (t *Tracker) RecordAttempt(s State, succeeded bool) State {
	now := t.now().UTC()
	if succeeded {
		return State{Attempts: 0, LastAttempt: &now}
	}
	return State{Attempts: s.Attempts + 1, LastAttempt: &now}
}

// Cleared is the state an operator-triggered reset assigns to every entry.
func Cleared() State {
	return State{}
}
