package tier

import (
	"errors"
	"fmt"
)

var ErrInvalidTiers = errors.New("invalid score tiers")

// Tier maps a minimum staking score to an allocation multiplier in percent.
type Tier struct {
	MinimumScore uint64 `json:"minimum_score"`
	Multiplier   uint64 `json:"multiplier"`
}

// Table is an ordered tier list, highest score first.
type Table struct {
	tiers []Tier
}

// NewTable builds a table from parallel score and multiplier slices, as the
// registry is deployed with. Scores must be strictly descending.
func NewTable(scores, multipliers []uint64) (*Table, error) {
	if len(scores) != len(multipliers) {
		return nil, fmt.Errorf("%w: %d scores, %d multipliers", ErrInvalidTiers, len(scores), len(multipliers))
	}
	tiers := make([]Tier, 0, len(scores))
	for i := range scores {
		if i > 0 && scores[i] >= scores[i-1] {
			return nil, fmt.Errorf("%w: scores must be strictly descending at %d", ErrInvalidTiers, i)
		}
		if multipliers[i] == 0 {
			return nil, fmt.Errorf("%w: zero multiplier at %d", ErrInvalidTiers, i)
		}
		tiers = append(tiers, Tier{MinimumScore: scores[i], Multiplier: multipliers[i]})
	}
	return &Table{tiers: tiers}, nil
}

// Multiplier returns the multiplier of the first tier the score reaches, or 0.
func (t *Table) Multiplier(score uint64) uint64 {
	if t == nil {
		return 0
	}
	for _, tier := range t.tiers {
		if score >= tier.MinimumScore {
			return tier.Multiplier
		}
	}
	return 0
}

// Tiers returns a copy of the tier list.
func (t *Table) Tiers() []Tier {
	if t == nil {
		return nil
	}
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}
