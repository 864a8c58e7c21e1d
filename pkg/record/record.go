// Package record defines the core data model for the keepsake memory engine.
//
// A Record is a single durable fact about a user — the user's own phrasing,
// classified under zero or more topics, scored for reliability, and stamped
// with the moment it happened (which, for autobiographical entries, may be a
// reconstructed year rather than the call time).
//
// Records are created only by the coordinator's store path and mutated only
// through its update/delete paths. Storage drivers never change a record on
// their own initiative.
package record

import (
	"strings"
	"time"
)

// DefaultMaxContentLen is the default upper bound on record content length,
// in characters, applied after whitespace trimming.
const DefaultMaxContentLen = 500

// Record is a single stored fact about a user.
type Record struct {
	// ID uniquely identifies the record within its owner's memory.
	ID string `json:"id"`

	// Content is the user-facing text, preserved verbatim as spoken.
	Content string `json:"content"`

	// Topics are the classification labels attached at store time.
	// May be empty when no rule matched.
	Topics []string `json:"topics,omitempty"`

	// Confidence is the reliability score in [0, 1].
	Confidence float64 `json:"confidence"`

	// IsProxy marks a record authored by an automated collaborator on the
	// user's behalf rather than transcribed from the user's own words.
	IsProxy bool `json:"is_proxy"`

	// ProxyAgent names the authoring collaborator. Set iff IsProxy.
	ProxyAgent string `json:"proxy_agent,omitempty"`

	// CreatedAt is the record's timestamp. For autobiographical entries
	// the year is reconstructed from the user's age at the time of the
	// remembered event; month, day and time are always the call time's.
	CreatedAt time.Time `json:"created_at"`

	// OwnerID is the id of the user this record belongs to.
	OwnerID string `json:"owner_id"`
}

// User carries the caller's identity and the optional signals the engine
// uses for confidence scoring and autobiographical timestamping. It is
// read-only input supplied by the identity layer at call time.
type User struct {
	// ID uniquely identifies the user.
	ID string `json:"id"`

	// Name is the user's display name, used when facts are restated in
	// the third person. Optional.
	Name string `json:"name,omitempty"`

	// CognitiveState is an optional 0–100 assessment used as a fallback
	// confidence source. Nil when unknown.
	CognitiveState *int `json:"cognitive_state,omitempty"`

	// BirthDate is the user's date of birth, when known.
	BirthDate *time.Time `json:"birth_date,omitempty"`

	// DeltaYear is the user's age, in years since birth, at which the next
	// stored memory is asserted to have occurred. Nil means "now".
	DeltaYear *int `json:"delta_year,omitempty"`
}

// Validate checks the user's timestamping fields for internal consistency:
// when both BirthDate and DeltaYear are set, the reconstructed year must not
// land in the future.
func (u *User) Validate(now time.Time) error {
	if u.DeltaYear != nil && *u.DeltaYear < 0 {
		return ErrNegativeDeltaYear
	}
	if u.BirthDate != nil && u.DeltaYear != nil {
		if u.BirthDate.Year()+*u.DeltaYear > now.Year() {
			return ErrDeltaYearInFuture
		}
	}
	return nil
}

// EventTime resolves the timestamp a memory stored at now should carry.
// When the user has both a birth date and a delta year, the year is
// birth_year + delta_year while month, day and clock time stay the call
// time's. Otherwise the call time is used verbatim.
func (u *User) EventTime(now time.Time) time.Time {
	if u.BirthDate == nil || u.DeltaYear == nil {
		return now
	}
	year := u.BirthDate.Year() + *u.DeltaYear
	return time.Date(year, now.Month(), now.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
}

// DisplayName returns the user's name, falling back to "the user" when no
// name is on file. This is the subject used for third-person restatement.
func (u *User) DisplayName() string {
	if u != nil && strings.TrimSpace(u.Name) != "" {
		return strings.TrimSpace(u.Name)
	}
	return "the user"
}

// NormalizeContent trims surrounding whitespace from raw content. The
// trimmed form is what validation and storage operate on.
func NormalizeContent(raw string) string {
	return strings.TrimSpace(raw)
}
