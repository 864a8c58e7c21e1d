// Package confidence computes a memory's reliability score from its
// provenance and the owner's cognitive state.
//
// The score never alters memory content; it rides along as metadata so the
// reliability of what a user reports can be tracked over time.
package confidence

import "github.com/keepsakehq/keepsake/pkg/record"

// Unset is the sentinel meaning "no explicit confidence was supplied".
// Callers at the tool boundary map an absent field to this value.
const Unset = -1.0

// Resolve returns the confidence for a new record, by priority:
//
//  1. proxy-authored records are fully trusted: 1.0 unconditionally;
//  2. an explicit non-sentinel value is taken as-is;
//  3. the user's cognitive state, when assessed, scales to state/100;
//  4. otherwise 1.0.
func Resolve(isProxy bool, explicit float64, user *record.User) float64 {
	if isProxy {
		return 1.0
	}
	if explicit != Unset {
		return clamp(explicit)
	}
	if user != nil && user.CognitiveState != nil {
		return clamp(float64(*user.CognitiveState) / 100.0)
	}
	return 1.0
}

// Valid reports whether an explicit confidence is either the sentinel or
// inside [0, 1].
func Valid(explicit float64) bool {
	return explicit == Unset || (explicit >= 0 && explicit <= 1)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
