package api

import (
	"fmt"
	"time"

	"github.com/keepsakehq/keepsake/pkg/record"
)

// UserPayload is the wire form of the caller identity supplied by the
// identity layer on every request.
type UserPayload struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	CognitiveState *int   `json:"cognitive_state,omitempty"`

	// BirthDate is an ISO date ("1960-01-01").
	BirthDate string `json:"birth_date,omitempty"`
	DeltaYear *int   `json:"delta_year,omitempty"`
}

// toUser converts the wire payload into the domain user.
func (p *UserPayload) toUser() (*record.User, error) {
	if p == nil || p.ID == "" {
		return nil, fmt.Errorf("user.id is required")
	}

	u := &record.User{
		ID:             p.ID,
		Name:           p.Name,
		CognitiveState: p.CognitiveState,
		DeltaYear:      p.DeltaYear,
	}

	if p.BirthDate != "" {
		t, err := time.Parse("2006-01-02", p.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("user.birth_date must be an ISO date: %w", err)
		}
		u.BirthDate = &t
	}

	return u, nil
}
