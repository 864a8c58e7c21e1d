package dedup

// stopWords are tokens carrying no subject matter on their own. They count
// toward the full-token overlap but are excluded from content-token
// coverage, which is what keeps "I love X" phrases from matching each
// other on the frame alone.
var stopWords = map[string]bool{
	"i": true, "me": true, "my": true, "mine": true, "myself": true,
	"we": true, "our": true, "ours": true, "us": true,
	"you": true, "your": true, "yours": true,
	"he": true, "him": true, "his": true,
	"she": true, "her": true, "hers": true,
	"it": true, "its": true,
	"they": true, "them": true, "their": true,
	"a": true, "an": true, "the": true,
	"and": true, "or": true, "but": true, "nor": true,
	"is": true, "am": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true,
	"will": true, "would": true, "shall": true, "should": true,
	"can": true, "could": true, "may": true, "might": true, "must": true,
	"to": true, "of": true, "in": true, "on": true, "at": true,
	"by": true, "for": true, "with": true, "about": true, "from": true,
	"into": true, "as": true, "that": true, "this": true,
	"these": true, "those": true, "there": true, "here": true,
	"not": true, "no": true, "so": true, "very": true,
	"really": true, "just": true, "too": true, "also": true,
	"what": true, "when": true, "where": true, "who": true, "how": true,
}
