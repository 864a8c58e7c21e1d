package store

import (
	"sort"

	"github.com/keepsakehq/keepsake/pkg/record"
)

// Rank scores records against the filter terms and returns them ordered by
// score descending, ties broken most-recent-first. Records that match a
// topic constraint but no term still appear with their (possibly zero)
// term score; with no terms at all every record scores 1.0 and the order
// is pure recency. The limit is applied after ordering; zero means no cap.
//
// Drivers share this so that SQLite, Postgres and the in-memory store rank
// identically.
func Rank(records []*record.Record, filter Filter, sim TextSimilarity) []QueryResult {
	results := make([]QueryResult, 0, len(records))

	for _, rec := range records {
		if len(filter.Topics) > 0 && !topicsIntersect(rec.Topics, filter.Topics) {
			continue
		}

		score := 1.0
		if len(filter.Terms) > 0 {
			score = 0
			for _, term := range filter.Terms {
				if s := sim.Similarity(term, rec.Content); s > score {
					score = s
				}
			}
			// A term query only returns records with some overlap,
			// unless a topic constraint already admitted the record.
			if score == 0 && len(filter.Topics) == 0 {
				continue
			}
		}

		results = append(results, QueryResult{Record: rec, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.CreatedAt.After(results[j].Record.CreatedAt)
	})

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}

	return results
}

func topicsIntersect(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
