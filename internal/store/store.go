package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sujalbistaa/clubpulse/internal/models"
)

var (
	// ErrNotFound means the poll does not exist (or no longer exists).
	ErrNotFound = errors.New("poll not found")
	// ErrConflict means a versioned update lost the race: the row changed
	// between load and save. Callers reload and retry.
	ErrConflict = errors.New("poll was modified concurrently")
)

// Filter narrows List. Zero values mean "don't filter on this".
type Filter struct {
	// Viewer scopes visibility: public polls, plus polls tagged with the
	// viewer's club or district.
	Viewer models.Identity
	// Ended selects the ended partition when true, the active one when
	// false. Nil returns both.
	Ended *bool
	// ActiveOnly drops polls whose IsActive flag was switched off.
	ActiveOnly bool
	Limit      int
	Offset     int
}

// PollStore is the durable record store for polls. Update must behave as a
// compare-and-swap on the poll's version so that read-modify-write cycles
// against one poll are serialized.
type PollStore interface {
	Create(ctx context.Context, p *models.Poll) error
	Get(ctx context.Context, id string) (*models.Poll, error)
	List(ctx context.Context, f Filter) ([]models.Poll, error)
	Update(ctx context.Context, p *models.Poll) error
	Delete(ctx context.Context, id string) error
}

// GormStore implements PollStore on a relational database via GORM. The
// whole poll (options + ledger) is one row, so a versioned UPDATE gives the
// per-document exclusivity the voting protocol needs.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, p *models.Poll) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.Poll, error) {
	var p models.Poll
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) List(ctx context.Context, f Filter) ([]models.Poll, error) {
	q := s.db.WithContext(ctx).Model(&models.Poll{})

	if f.Viewer.ID != "" && !f.Viewer.IsAdmin() {
		q = q.Where("is_public = ? OR club = ? OR district = ?",
			true, f.Viewer.Club, f.Viewer.District)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.Ended != nil {
		now := time.Now()
		if *f.Ended {
			q = q.Where("end_date < ?", now)
		} else {
			q = q.Where("end_date >= ?", now)
		}
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var polls []models.Poll
	err := q.Order("is_pinned desc, created_at desc").Find(&polls).Error
	return polls, err
}

// Update persists p only if the stored version still matches p.Version,
// bumping the version in the same statement. ErrConflict on a lost race,
// ErrNotFound if the poll was deleted underneath us.
func (s *GormStore) Update(ctx context.Context, p *models.Poll) error {
	loaded := p.Version
	p.Version = loaded + 1

	res := s.db.WithContext(ctx).
		Model(&models.Poll{}).
		Where("id = ? AND version = ?", p.ID, loaded).
		Select("*").
		Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		p.Version = loaded
		return res.Error
	}
	if res.RowsAffected == 0 {
		p.Version = loaded
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Poll{}).
			Where("id = ?", p.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Poll{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
