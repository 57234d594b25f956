package poll

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sujalbistaa/clubpulse/internal/models"
	"github.com/sujalbistaa/clubpulse/internal/store"
)

const (
	maxQuestionLength    = 500
	maxDescriptionLength = 1000
	maxOptionLength      = 200
	minOptions           = 2
	maxOptions           = 10
	defaultListLimit     = 50
)

// CreateInput carries everything needed to create a poll. Scoping tags come
// from the caller identity, not from the input.
type CreateInput struct {
	Question      string    `json:"question"`
	Description   string    `json:"description"`
	Options       []string  `json:"options"`
	EndDate       time.Time `json:"endDate"`
	IsPublic      bool      `json:"isPublic"`
	IsPinned      bool      `json:"isPinned"`
	AllowMultiple bool      `json:"allowMultiple"`
	ShowResults   *bool     `json:"showResults"`
}

// UpdateInput is a partial patch; nil fields are left untouched.
type UpdateInput struct {
	Question      *string    `json:"question"`
	Description   *string    `json:"description"`
	Options       []string   `json:"options"`
	EndDate       *time.Time `json:"endDate"`
	IsPublic      *bool      `json:"isPublic"`
	IsActive      *bool      `json:"isActive"`
	IsPinned      *bool      `json:"isPinned"`
	AllowMultiple *bool      `json:"allowMultiple"`
	ShowResults   *bool      `json:"showResults"`
}

// ListInput selects a page of polls visible to the caller.
type ListInput struct {
	Ended      *bool
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Create validates the input and persists a fresh poll with an empty ledger
// and zeroed counters. Club and district are copied from the creator.
func (s *Service) Create(ctx context.Context, caller models.Identity, in CreateInput) (*models.Poll, error) {
	if !caller.CanCreatePolls() {
		return nil, ErrForbidden
	}

	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, validationf("question is required")
	}
	if len(question) > maxQuestionLength {
		return nil, validationf("question must be at most %d characters", maxQuestionLength)
	}
	if len(in.Description) > maxDescriptionLength {
		return nil, validationf("description must be at most %d characters", maxDescriptionLength)
	}
	opts, err := validateOptions(in.Options)
	if err != nil {
		return nil, err
	}
	if in.EndDate.IsZero() {
		return nil, validationf("endDate is required")
	}
	if !in.EndDate.After(s.now()) {
		return nil, validationf("endDate must be in the future")
	}

	showResults := true
	if in.ShowResults != nil {
		showResults = *in.ShowResults
	}

	p := &models.Poll{
		ID:            uuid.NewString(),
		Question:      question,
		Description:   in.Description,
		Options:       opts,
		Votes:         []models.Vote{},
		EndDate:       in.EndDate,
		CreatedBy:     caller.ID,
		Club:          caller.Club,
		District:      caller.District,
		IsPublic:      in.IsPublic,
		IsActive:      true,
		IsPinned:      in.IsPinned,
		AllowMultiple: in.AllowMultiple,
		ShowResults:   showResults,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, &StoreError{Err: err}
	}
	return p, nil
}

// Get returns a single poll with its counters freshly recomputed.
func (s *Service) Get(ctx context.Context, id string) (*models.Poll, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, &StoreError{Err: err}
	}
	Recompute(p)
	return p, nil
}

// List returns the polls visible to the caller, pinned first, newest next.
func (s *Service) List(ctx context.Context, caller models.Identity, in ListInput) ([]models.Poll, error) {
	limit := in.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	polls, err := s.store.List(ctx, store.Filter{
		Viewer:     caller,
		Ended:      in.Ended,
		ActiveOnly: in.ActiveOnly,
		Limit:      limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	for i := range polls {
		Recompute(&polls[i])
	}
	return polls, nil
}

// Update applies a partial patch. Only the creator or an admin may update.
// Options are frozen once the ledger is non-empty; before that, a
// replacement set is validated like at creation and the counters reset.
func (s *Service) Update(ctx context.Context, caller models.Identity, id string, in UpdateInput) (*models.Poll, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, &StoreError{Err: err}
	}
	if !canManage(p, caller) {
		return nil, ErrForbidden
	}

	if in.Question != nil {
		q := strings.TrimSpace(*in.Question)
		if q == "" {
			return nil, validationf("question is required")
		}
		if len(q) > maxQuestionLength {
			return nil, validationf("question must be at most %d characters", maxQuestionLength)
		}
		p.Question = q
	}
	if in.Description != nil {
		if len(*in.Description) > maxDescriptionLength {
			return nil, validationf("description must be at most %d characters", maxDescriptionLength)
		}
		p.Description = *in.Description
	}
	if in.Options != nil {
		if len(p.Votes) > 0 {
			return nil, ErrOptionsLocked
		}
		opts, err := validateOptions(in.Options)
		if err != nil {
			return nil, err
		}
		p.Options = opts
	}
	if in.EndDate != nil {
		if in.EndDate.IsZero() {
			return nil, validationf("endDate is required")
		}
		p.EndDate = *in.EndDate
	}
	if in.IsPublic != nil {
		p.IsPublic = *in.IsPublic
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsPinned != nil {
		p.IsPinned = *in.IsPinned
	}
	if in.AllowMultiple != nil {
		p.AllowMultiple = *in.AllowMultiple
	}
	if in.ShowResults != nil {
		p.ShowResults = *in.ShowResults
	}

	Recompute(p)

	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, &StoreError{Err: err}
	}
	return p, nil
}

// Delete removes a poll permanently. Creator or admin only.
func (s *Service) Delete(ctx context.Context, caller models.Identity, id string) error {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return &StoreError{Err: err}
	}
	if !canManage(p, caller) {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return &StoreError{Err: err}
	}
	return nil
}

// Results derives the tally view. When the poll hides live results, only its
// manager may read them before the end date.
func (s *Service) Results(ctx context.Context, caller models.Identity, id string) (Results, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Results{}, err
		}
		return Results{}, &StoreError{Err: err}
	}
	now := s.now()
	if !p.ShowResults && !p.HasEnded(now) && !canManage(p, caller) {
		return Results{}, ErrForbidden
	}
	return TallyResults(p, now), nil
}

func validateOptions(raw []string) ([]models.Option, error) {
	if len(raw) < minOptions || len(raw) > maxOptions {
		return nil, validationf("polls need between %d and %d options", minOptions, maxOptions)
	}
	seen := make(map[string]bool, len(raw))
	opts := make([]models.Option, 0, len(raw))
	for _, text := range raw {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, validationf("option text cannot be empty")
		}
		if len(text) > maxOptionLength {
			return nil, validationf("option text must be at most %d characters", maxOptionLength)
		}
		key := strings.ToLower(text)
		if seen[key] {
			return nil, validationf("duplicate option: %s", text)
		}
		seen[key] = true
		opts = append(opts, models.Option{Text: text})
	}
	return opts, nil
}
