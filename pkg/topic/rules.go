package topic

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultRules returns the built-in topic rule table. Each call returns a
// fresh copy; the classifier snapshots it at construction.
func DefaultRules() map[string][]string {
	return map[string][]string{
		"family": {
			"family", "mother", "father", "mom", "dad", "sister", "brother",
			"daughter", "son", "grandmother", "grandfather", "grandma",
			"grandpa", "wife", "husband", "aunt", "uncle", "cousin", "parents",
		},
		"health": {
			"health", "doctor", "medicine", "medication", "hospital",
			"allergy", "allergic", "diagnosis", "surgery", "therapy",
			"blood pressure", "diabetes", "exercise",
		},
		"food": {
			"food", "eat", "meal", "breakfast", "lunch", "dinner", "cook",
			"cooking", "recipe", "restaurant", "coffee", "tea", "ice cream",
			"favorite dish",
		},
		"academic": {
			"education", "school", "university", "college", "degree",
			"studied", "student", "teacher", "professor", "graduated",
			"thesis", "research",
		},
		"work": {
			"work", "job", "career", "office", "colleague", "boss",
			"retired", "retirement", "profession", "company", "business",
		},
		"hobbies": {
			"hobby", "hobbies", "painting", "gardening", "reading", "music",
			"piano", "guitar", "knitting", "fishing", "chess", "photography",
			"halloween", "collect", "collecting",
		},
		"travel": {
			"travel", "trip", "vacation", "visited", "flight", "abroad",
			"country", "city", "beach", "mountains", "zoo", "museum",
		},
		"pets": {
			"pet", "pets", "dog", "cat", "bird", "fish tank", "puppy",
			"kitten",
		},
		"social": {
			"friend", "friends", "neighbor", "neighbour", "party",
			"birthday", "anniversary", "wedding", "church", "club",
		},
		"finance": {
			"money", "bank", "savings", "pension", "bill", "bills",
			"insurance", "mortgage", "rent",
		},
	}
}

// ruleFile is the TOML shape of an external rule file:
//
//	[topics]
//	academic = ["education", "school"]
type ruleFile struct {
	Topics map[string][]string `toml:"topics"`
}

// LoadRules reads a topic rule table from a TOML file. The file fully
// replaces the built-in table; it is not merged.
func LoadRules(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	var rf ruleFile
	if err := toml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", path, err)
	}
	if len(rf.Topics) == 0 {
		return nil, fmt.Errorf("rule file %s defines no topics", path)
	}

	return rf.Topics, nil
}
