package poll

import (
	"time"

	"github.com/sujalbistaa/clubpulse/internal/models"
)

// Recompute rebuilds every option counter from the vote ledger. The ledger
// is the source of truth; the counters are a cache that is only valid right
// after this runs. It is pure and idempotent, so it is called on every
// mutating path and doubles as a repair step for tooling.
//
// Ledger entries whose optionIndex no longer resolves to an option are
// skipped rather than counted or rejected. They can only exist in rows
// written before option edits were locked down.
func Recompute(p *models.Poll) {
	for i := range p.Options {
		p.Options[i].Votes = 0
	}
	for _, v := range p.Votes {
		if v.OptionIndex < 0 || v.OptionIndex >= len(p.Options) {
			continue
		}
		p.Options[v.OptionIndex].Votes++
	}
}

// OptionResult is one option's share of the tally.
type OptionResult struct {
	Text       string  `json:"text"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// Results is the read-time view of a poll's tally.
type Results struct {
	Question   string         `json:"question"`
	TotalVotes int            `json:"totalVotes"`
	PerOption  []OptionResult `json:"options"`
	HasEnded   bool           `json:"hasEnded"`
}

// TallyResults derives the results view from a poll at the given instant.
// Percentages are plain votes/total ratios; they are not adjusted to sum to
// exactly 100 under rounding.
func TallyResults(p *models.Poll, now time.Time) Results {
	Recompute(p)

	total := len(p.Votes)
	res := Results{
		Question:   p.Question,
		TotalVotes: total,
		PerOption:  make([]OptionResult, len(p.Options)),
		HasEnded:   p.HasEnded(now),
	}
	for i, opt := range p.Options {
		pct := 0.0
		if total > 0 {
			pct = float64(opt.Votes) / float64(total) * 100
		}
		res.PerOption[i] = OptionResult{Text: opt.Text, Votes: opt.Votes, Percentage: pct}
	}
	return res
}
