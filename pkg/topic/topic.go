// Package topic provides rule-based classification of memory text into
// topic labels, and bidirectional expansion of query terms into related
// topics and keywords.
//
// Classification is deliberately mechanical: case-insensitive, word-bounded
// keyword and phrase matching against a static rule table. There is no
// trained model. The rule table is loaded once and immutable for the
// process lifetime.
package topic

import (
	"sort"
	"strings"
	"unicode"
)

// Classifier labels text with topics and expands query terms.
// Construct with NewClassifier; the zero value has no rules.
type Classifier struct {
	// rules maps topic label -> lowercase keywords/phrases.
	rules map[string][]string

	// keywordTopics maps lowercase keyword -> topic labels registered
	// under it, for reverse expansion.
	keywordTopics map[string][]string
}

// NewClassifier builds a classifier over the given rule table. Keys are
// topic labels, values are the keywords and phrases filed under each label.
// Passing nil uses DefaultRules.
func NewClassifier(rules map[string][]string) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}

	c := &Classifier{
		rules:         make(map[string][]string, len(rules)),
		keywordTopics: make(map[string][]string),
	}

	for label, keywords := range rules {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		lowered := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			lowered = append(lowered, kw)
			c.keywordTopics[kw] = append(c.keywordTopics[kw], label)
		}
		sort.Strings(lowered)
		c.rules[label] = lowered
	}

	return c
}

// Classify returns the topic labels whose keywords appear in text.
// Matching is case-insensitive and word-bounded, so "art" does not match
// "start". Zero, one, or several topics may be returned, sorted.
func (c *Classifier) Classify(text string) []string {
	lowered := strings.ToLower(text)

	var labels []string
	for label, keywords := range c.rules {
		for _, kw := range keywords {
			if containsWord(lowered, kw) {
				labels = append(labels, label)
				break
			}
		}
	}

	sort.Strings(labels)
	return labels
}

// Expand resolves a natural-language term into every related topic label
// and registered keyword, in both directions:
//
//   - a topic label expands to itself plus its keywords;
//   - a keyword expands to itself plus the topics it is registered under
//     plus all of those topics' keywords.
//
// The input term is always included, lowercased. Results are sorted and
// deduplicated. This is what lets a query for "education" reach records
// filed under "academic", and vice versa.
func (c *Classifier) Expand(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	seen := map[string]bool{term: true}

	expandLabel := func(label string) {
		seen[label] = true
		for _, kw := range c.rules[label] {
			seen[kw] = true
		}
	}

	if _, ok := c.rules[term]; ok {
		expandLabel(term)
	}
	for _, label := range c.keywordTopics[term] {
		expandLabel(label)
	}

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Topics returns the sorted list of topic labels the classifier knows.
func (c *Classifier) Topics() []string {
	labels := make([]string, 0, len(c.rules))
	for label := range c.rules {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// containsWord reports whether phrase occurs in text on word boundaries.
// Both arguments must already be lowercased.
func containsWord(text, phrase string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], phrase)
		if idx < 0 {
			return false
		}
		idx += start

		before := idx == 0 || isBoundary(rune(text[idx-1]))
		afterIdx := idx + len(phrase)
		after := afterIdx >= len(text) || isBoundary(rune(text[afterIdx]))
		if before && after {
			return true
		}

		start = idx + 1
		if start >= len(text) {
			return false
		}
	}
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
