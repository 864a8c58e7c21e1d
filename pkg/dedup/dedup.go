// Package dedup decides whether a candidate statement is already remembered.
//
// Detection runs in two tiers. The exact tier compares case-insensitive,
// whitespace-normalized text against the owner's most recent records and
// short-circuits on a hit. The semantic tier scores token overlap between
// the candidate and each recent record and flags anything at or above the
// configured threshold.
//
// The documented similarity scheme averages two cosine-style set overlaps:
// one over all normalized tokens and one over content tokens only (stop
// words stripped). Short candidates additionally qualify for a boost, but
// only when the shared content tokens cover at least MinContentCoverage of
// BOTH sides' content tokens. Raw overlap alone over-weights shared stop
// words ("I love ...") and misclassifies subject-mismatched short phrases
// as duplicates; the directional both-sides gate is what prevents that.
package dedup

import (
	"math"
	"strings"
)

const (
	// DefaultWindow is the number of most-recent records examined.
	DefaultWindow = 100

	// DefaultThreshold is the similarity score at which a candidate is
	// rejected as a semantic duplicate.
	DefaultThreshold = 0.8

	// DefaultShortQueryTokens is the token count at or below which a
	// candidate is treated as a short query for boosting purposes.
	DefaultShortQueryTokens = 3

	// MinContentCoverage is the fraction of each side's content tokens
	// that the shared content tokens must cover before the short-query
	// boost applies.
	MinContentCoverage = 0.8
)

// Config holds tunables for the detector. Zero values take the package
// defaults; these constants emerged from empirical tuning and are exposed
// as configuration rather than baked in.
type Config struct {
	// Window is the number of most-recent records to compare against.
	Window int

	// Threshold is the semantic-duplicate rejection threshold.
	Threshold float64

	// ShortQueryTokens is the short-candidate cutoff in tokens.
	ShortQueryTokens int
}

// Match reports the outcome of a duplicate check.
type Match struct {
	// Found is true when the candidate duplicates an existing record.
	Found bool

	// Exact is true when the exact tier matched; false means the
	// semantic tier matched.
	Exact bool

	// MatchedText is the existing record text that matched.
	MatchedText string

	// Score is the similarity against MatchedText (1.0 for exact), or
	// the best score seen when no match was found.
	Score float64
}

// Detector performs two-tier duplicate detection.
type Detector struct {
	config Config
}

// NewDetector creates a detector, applying defaults for zero config fields.
func NewDetector(config Config) *Detector {
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	if config.Threshold <= 0 {
		config.Threshold = DefaultThreshold
	}
	if config.ShortQueryTokens <= 0 {
		config.ShortQueryTokens = DefaultShortQueryTokens
	}
	return &Detector{config: config}
}

// Window returns the configured recent-record window size.
func (d *Detector) Window() int {
	return d.config.Window
}

// Check compares candidate against recent record texts, most recent first.
// Only the first Window entries are examined. The exact tier wins over the
// semantic tier regardless of ordering.
func (d *Detector) Check(candidate string, recent []string) Match {
	if len(recent) > d.config.Window {
		recent = recent[:d.config.Window]
	}

	normalized := Normalize(candidate)

	for _, text := range recent {
		if Normalize(text) == normalized {
			return Match{Found: true, Exact: true, MatchedText: text, Score: 1.0}
		}
	}

	best := Match{}
	for _, text := range recent {
		score := d.Similarity(candidate, text)
		if score > best.Score {
			best.Score = score
			best.MatchedText = text
		}
	}

	if best.Score >= d.config.Threshold {
		best.Found = true
		return best
	}

	return Match{Score: best.Score}
}

// Similarity scores two texts in [0, 1]. The score is the mean of the full
// token overlap and the content token overlap, each computed as
// |A∩B| / sqrt(|A|·|B|) over token sets. When either side has no content
// tokens the full-token overlap stands alone.
//
// Short candidates (at or below the configured cutoff) are boosted to the
// mean content coverage, but only when shared content tokens cover at
// least MinContentCoverage of both sides' content tokens. A one-sided
// check would let "I love halloween" ride "I love ..." overlap into a
// false duplicate of "I love vanilla ice cream".
func (d *Detector) Similarity(a, b string) float64 {
	fullA := tokenSet(a)
	fullB := tokenSet(b)
	if len(fullA) == 0 || len(fullB) == 0 {
		return 0
	}

	contentA := stripStopWords(fullA)
	contentB := stripStopWords(fullB)

	fullScore := setOverlap(fullA, fullB)

	score := fullScore
	if len(contentA) > 0 && len(contentB) > 0 {
		score = (fullScore + setOverlap(contentA, contentB)) / 2
	}

	short := len(fullA) <= d.config.ShortQueryTokens || len(fullB) <= d.config.ShortQueryTokens
	if short && len(contentA) > 0 && len(contentB) > 0 {
		shared := intersectionSize(contentA, contentB)
		covA := float64(shared) / float64(len(contentA))
		covB := float64(shared) / float64(len(contentB))
		if covA >= MinContentCoverage && covB >= MinContentCoverage {
			if boosted := (covA + covB) / 2; boosted > score {
				score = boosted
			}
		}
	}

	return score
}

// Normalize lowercases text and collapses runs of whitespace to single
// spaces. Exact-tier equality is defined over this form.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// tokenSet splits text into a set of lowercase alphanumeric tokens.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isAlnum(r)
	}) {
		set[tok] = true
	}
	return set
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z'
}

func stripStopWords(tokens map[string]bool) map[string]bool {
	content := make(map[string]bool, len(tokens))
	for tok := range tokens {
		if !stopWords[tok] {
			content[tok] = true
		}
	}
	return content
}

func intersectionSize(a, b map[string]bool) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for tok := range a {
		if b[tok] {
			n++
		}
	}
	return n
}

// setOverlap is |A∩B| / sqrt(|A|·|B|), a cosine similarity over binary
// token sets.
func setOverlap(a, b map[string]bool) float64 {
	shared := intersectionSize(a, b)
	if shared == 0 {
		return 0
	}
	return float64(shared) / math.Sqrt(float64(len(a))*float64(len(b)))
}
