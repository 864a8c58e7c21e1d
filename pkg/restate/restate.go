// Package restate converts the grammatical person of memory text as it
// moves between storage and presentation contexts.
//
// Memories arrive in the user's first person ("I love gardening"), are
// stored in the graph service in the third person ("Alice loves
// gardening" reads better to relationship queries), and come back to the
// user in the second person ("you love gardening").
//
// This is deterministic pattern substitution, not parsing. Every pattern
// is case-insensitive and word-boundary anchored — "train" is never
// rewritten for containing "i". Verb agreement is handled for the
// auxiliary patterns listed here and nothing more.
package restate

import (
	"fmt"
	"regexp"
	"strings"
)

// rule is a single ordered substitution.
type rule struct {
	re   *regexp.Regexp
	repl string
}

// Restater rewrites text between grammatical persons for one subject.
type Restater struct {
	subject  string
	toThird  []rule
	toSecond []rule
}

// NewRestater builds a restater for the given subject name. An empty
// subject falls back to "the user".
func NewRestater(subject string) *Restater {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "the user"
	}

	quoted := regexp.QuoteMeta(subject)

	// First → third person. Longer patterns first so contractions and
	// auxiliary pairs win over the bare pronoun.
	toThird := []rule{
		{word(`i am`), subject + " is"},
		{word(`i'm`), subject + " is"},
		{word(`i was`), subject + " was"},
		{word(`i have`), subject + " has"},
		{word(`i've`), subject + " has"},
		{word(`i had`), subject + " had"},
		{word(`i'd`), subject + " would"},
		{word(`i will`), subject + " will"},
		{word(`i'll`), subject + " will"},
		{word(`i would`), subject + " would"},
		{word(`myself`), subject},
		{word(`my`), subject + "'s"},
		{word(`mine`), subject + "'s"},
		{word(`me`), subject},
		{word(`i`), subject},
	}

	// Third → second person, undoing the forward mapping for this
	// subject. Possessive and auxiliary forms before the bare name.
	toSecond := []rule{
		{word(quoted + ` is`), "you are"},
		{word(quoted + ` was`), "you were"},
		{word(quoted + ` has`), "you have"},
		{word(quoted + ` had`), "you had"},
		{word(quoted + ` will`), "you will"},
		{word(quoted + ` would`), "you would"},
		{word(quoted + `'s`), "your"},
		{word(quoted), "you"},
	}

	return &Restater{subject: subject, toThird: toThird, toSecond: toSecond}
}

// Subject returns the subject name this restater rewrites for.
func (r *Restater) Subject() string {
	return r.subject
}

// ToThirdPerson rewrites first-person markers to the subject's name.
func (r *Restater) ToThirdPerson(text string) string {
	return apply(text, r.toThird)
}

// ToSecondPerson rewrites third-person references to the subject back to
// the second person.
func (r *Restater) ToSecondPerson(text string) string {
	return apply(text, r.toSecond)
}

func apply(text string, rules []rule) string {
	for _, ru := range rules {
		text = ru.re.ReplaceAllString(text, ru.repl)
	}
	return text
}

// word compiles a case-insensitive, word-boundary-anchored pattern.
func word(pattern string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)\b%s\b`, pattern))
}
