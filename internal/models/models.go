package models

import (
	"time"
)

// Roles resolved by the upstream gateway.
const (
	RoleMember  = "member"
	RoleOfficer = "officer"
	RoleAdmin   = "admin"
)

// Identity is the caller as resolved by the auth gateway in front of this
// service. The gateway owns token verification; we only trust its headers.
type Identity struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Club     string `json:"club"`
	District string `json:"district"`
}

// CanCreatePolls reports whether the identity may create polls.
func (i Identity) CanCreatePolls() bool {
	return i.Role == RoleOfficer || i.Role == RoleAdmin
}

// IsAdmin reports whether the identity holds the admin-equivalent role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Poll is the aggregate root: options and the vote ledger live inside the
// poll row itself (JSON columns), so every mutation is a single-row write
// guarded by Version.
type Poll struct {
	ID          string    `gorm:"primarykey" json:"id"`
	Question    string    `gorm:"not null" json:"question"`
	Description string    `json:"description,omitempty"`
	Options     []Option  `gorm:"serializer:json" json:"options"`
	Votes       []Vote    `gorm:"serializer:json" json:"votes"`
	EndDate     time.Time `gorm:"not null;index" json:"endDate"`
	CreatedBy   string    `gorm:"not null;index" json:"createdBy"`
	Club        string    `gorm:"index" json:"club"`
	District    string    `gorm:"index" json:"district"`

	IsPublic bool `gorm:"not null;default:false" json:"isPublic"`
	IsActive bool `gorm:"not null;default:true" json:"isActive"`
	IsPinned bool `gorm:"not null;default:false" json:"isPinned"`
	// AllowMultiple is vote-change mode: a voter's single active choice may be
	// replaced while the poll is open. It is not multi-select.
	AllowMultiple bool `gorm:"not null;default:false" json:"allowMultiple"`
	ShowResults   bool `gorm:"not null;default:true" json:"showResults"`

	// Version backs the compare-and-swap write path. Never exposed.
	Version   uint      `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Option is one poll choice. Votes is derived from the ledger and is only
// trustworthy immediately after a tally recomputation.
type Option struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Vote is one ledger entry: the voter's active choice on a poll.
type Vote struct {
	User        string    `json:"user"`
	OptionIndex int       `json:"optionIndex"`
	VotedAt     time.Time `json:"votedAt"`
}

// HasEnded reports whether the poll is past its end date. Ended is always
// derived, never stored.
func (p *Poll) HasEnded(now time.Time) bool {
	return now.After(p.EndDate)
}

// VoteBy returns the index into the ledger of the given user's vote, or -1.
func (p *Poll) VoteBy(userID string) int {
	for i := range p.Votes {
		if p.Votes[i].User == userID {
			return i
		}
	}
	return -1
}
