package contact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidDays = errors.New("days must be at least 1")

// DuplicateError reports the email and phone that collided with an existing contact
type DuplicateError struct {
	Email string
	Phone string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Contact with '%s' email or '%s' phone number already exists.", e.Email, e.Phone)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// Store is the persistence contract of the service
type Store interface {
	List(ctx context.Context, userID uuid.UUID, f Filter) ([]*Contact, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]*Contact, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*Contact, error)
	ExistsByEmailOrPhone(ctx context.Context, userID uuid.UUID, email, phone string) (bool, error)
	Create(ctx context.Context, userID uuid.UUID, c *Contact) (*Contact, error)
	Update(ctx context.Context, userID, id uuid.UUID, c *Contact) (*Contact, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (*Contact, error)
}

// Service handles contact business logic for a single owner at a time
type Service struct {
	store       Store
	phoneRegion string
	now         func() time.Time
}

func NewService(store Store, phoneRegion string) *Service {
	return &Service{store: store, phoneRegion: phoneRegion, now: time.Now}
}

// PhoneRegion is the region used to validate numbers without a country prefix
func (s *Service) PhoneRegion() string {
	return s.phoneRegion
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, f Filter) ([]*Contact, error) {
	return s.store.List(ctx, userID, f)
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Contact, error) {
	return s.store.FindByID(ctx, userID, id)
}

// Create rejects a contact whose email or phone the owner already has
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (*Contact, error) {
	c, err := in.toContact(s.phoneRegion)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsByEmailOrPhone(ctx, userID, c.Email, c.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &DuplicateError{Email: c.Email, Phone: c.Phone}
	}

	return s.store.Create(ctx, userID, c)
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in Input) (*Contact, error) {
	c, err := in.toContact(s.phoneRegion)
	if err != nil {
		return nil, err
	}
	return s.store.Update(ctx, userID, id, c)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) (*Contact, error) {
	return s.store.Delete(ctx, userID, id)
}

// UpcomingBirthdays returns contacts whose next birthday falls within
// [today, today+days], soonest first
func (s *Service) UpcomingBirthdays(ctx context.Context, userID uuid.UUID, days int) ([]*Contact, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}

	all, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := NewDate(now.Year(), now.Month(), now.Day())
	return upcoming(all, today, days), nil
}

func upcoming(all []*Contact, today Date, days int) []*Contact {
	until := today.AddDate(0, 0, days)

	type match struct {
		c    *Contact
		next time.Time
	}
	var matches []match
	for _, c := range all {
		next := NextBirthday(c.Birthday, today)
		if !next.After(until) {
			matches = append(matches, match{c: c, next: next.Time})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].next.Before(matches[j].next)
	})

	out := make([]*Contact, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.c)
	}
	return out
}
