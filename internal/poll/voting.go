package poll

import (
	"context"
	"errors"

	"github.com/sujalbistaa/clubpulse/internal/models"
	"github.com/sujalbistaa/clubpulse/internal/store"
)

// castAttempts bounds the optimistic-concurrency loop: the initial try plus
// one reload-and-reapply when the versioned write loses a race.
const castAttempts = 2

// CastVote applies one vote by caller on the given poll and returns the new
// ledger length.
//
// Single-vote mode rejects a second cast outright. Vote-change mode
// (AllowMultiple) replaces the caller's existing entry in place and
// refreshes its VotedAt; the ledger never grows past one entry per voter
// either way.
//
// The read-modify-write is guarded by the store's versioned update. A
// conflict means another cast landed between our load and save, so the vote
// is re-applied once against the fresh state before giving up.
func (s *Service) CastVote(ctx context.Context, caller models.Identity, pollID string, optionIndex int) (int, error) {
	var lastErr error
	for attempt := 0; attempt < castAttempts; attempt++ {
		p, err := s.store.Get(ctx, pollID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, err
			}
			return 0, &StoreError{Err: err}
		}

		now := s.now()
		if p.HasEnded(now) {
			return 0, ErrPollEnded
		}
		if optionIndex < 0 || optionIndex >= len(p.Options) {
			return 0, ErrInvalidOption
		}

		if i := p.VoteBy(caller.ID); i >= 0 {
			if !p.AllowMultiple {
				return 0, ErrDuplicateVote
			}
			p.Votes[i].OptionIndex = optionIndex
			p.Votes[i].VotedAt = now
		} else {
			p.Votes = append(p.Votes, models.Vote{
				User:        caller.ID,
				OptionIndex: optionIndex,
				VotedAt:     now,
			})
		}

		Recompute(p)

		err = s.store.Update(ctx, p)
		if err == nil {
			return len(p.Votes), nil
		}
		if errors.Is(err, store.ErrNotFound) {
			return 0, err
		}
		if !errors.Is(err, store.ErrConflict) {
			return 0, &StoreError{Err: err}
		}
		lastErr = err
	}
	return 0, &StoreError{Err: lastErr}
}
