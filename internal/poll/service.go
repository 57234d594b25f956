// Package poll implements the poll domain: lifecycle management, the
// vote-casting protocol, and tally derivation. Persistence is delegated to a
// store.PollStore; everything here works on the in-memory poll aggregate and
// persists it as a single versioned write.
package poll

import (
	"time"

	"github.com/sujalbistaa/clubpulse/internal/models"
	"github.com/sujalbistaa/clubpulse/internal/store"
)

// Service owns all poll mutations. One service instance is shared by every
// request; it keeps no per-poll state.
type Service struct {
	store store.PollStore
	now   func() time.Time
}

func NewService(s store.PollStore) *Service {
	return &Service{store: s, now: time.Now}
}

// canManage is the single capability check for operations on an existing
// poll: its creator, or an admin, may update and delete it.
func canManage(p *models.Poll, caller models.Identity) bool {
	return caller.ID == p.CreatedBy || caller.IsAdmin()
}
