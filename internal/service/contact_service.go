package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/osadchyi/contacts-api/internal/domain"
	"github.com/osadchyi/contacts-api/internal/repo/postgres"
)

const (
	minBirthdayWindow = 1
	maxBirthdayWindow = 366
)

type ContactService interface {
	Create(ctx context.Context, ownerID int64, req *domain.CreateContactRequest) (*domain.Contact, error)
	Get(ctx context.Context, id, ownerID int64) (*domain.Contact, error)
	Update(ctx context.Context, id, ownerID int64, req *domain.UpdateContactRequest) (*domain.Contact, error)
	Delete(ctx context.Context, id, ownerID int64) error
	List(ctx context.Context, ownerID int64, search string) ([]domain.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID int64, days int) ([]domain.Contact, error)
}

type contactService struct {
	contactRepo postgres.ContactRepository
	now         func() time.Time
}

func NewContactService(contactRepo postgres.ContactRepository) ContactService {
	return &contactService{
		contactRepo: contactRepo,
		now:         time.Now,
	}
}

// checkDuplicates enforces the global uniqueness rules: contact emails and
// (first, last) name pairs are unique across all owners, not per owner.
// The email check runs first; the first conflict found wins.
func (s *contactService) checkDuplicates(ctx context.Context, c *domain.Contact) error {
	emailTaken, err := s.contactRepo.EmailExists(ctx, c.Email, c.ID)
	if err != nil {
		return fmt.Errorf("failed to check contact email: %w", err)
	}
	if emailTaken {
		return domain.ErrContactEmailTaken
	}

	nameTaken, err := s.contactRepo.NameExists(ctx, c.FirstName, c.LastName, c.ID)
	if err != nil {
		return fmt.Errorf("failed to check contact name: %w", err)
	}
	if nameTaken {
		return domain.ErrContactNameTaken
	}

	return nil
}

func (s *contactService) Create(ctx context.Context, ownerID int64, req *domain.CreateContactRequest) (*domain.Contact, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	contact := &domain.Contact{
		OwnerID:   ownerID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  req.Birthday,
		Note:      req.Note,
	}

	if err := s.checkDuplicates(ctx, contact); err != nil {
		return nil, err
	}

	// The repo maps a unique-index race to the same conflict errors.
	created, err := s.contactRepo.Create(ctx, contact)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *contactService) Get(ctx context.Context, id, ownerID int64) (*domain.Contact, error) {
	contact, err := s.contactRepo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return nil, domain.ErrNotFound
	}
	return contact, nil
}

func (s *contactService) Update(ctx context.Context, id, ownerID int64, req *domain.UpdateContactRequest) (*domain.Contact, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	existing, err := s.contactRepo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	merged := req.Merge(existing)
	if err := s.checkDuplicates(ctx, &merged); err != nil {
		return nil, err
	}

	updated, err := s.contactRepo.Update(ctx, &merged)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *contactService) Delete(ctx context.Context, id, ownerID int64) error {
	return s.contactRepo.Delete(ctx, id, ownerID)
}

func (s *contactService) List(ctx context.Context, ownerID int64, search string) ([]domain.Contact, error) {
	contacts, err := s.contactRepo.ListByOwner(ctx, ownerID, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return contacts, nil
}

// UpcomingBirthdays returns the owner's contacts whose next birthday
// occurrence falls within [today, today+days], ordered by that occurrence.
func (s *contactService) UpcomingBirthdays(ctx context.Context, ownerID int64, days int) ([]domain.Contact, error) {
	if days < minBirthdayWindow || days > maxBirthdayWindow {
		return nil, domain.ErrInvalidWindow
	}

	contacts, err := s.contactRepo.ListWithBirthdays(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	today := s.now().UTC()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, days)

	type upcoming struct {
		next    time.Time
		contact domain.Contact
	}

	var matches []upcoming
	for _, c := range contacts {
		if c.Birthday == nil {
			continue
		}
		next := c.Birthday.NextOccurrence(today)
		if !next.Before(today) && !next.After(end) {
			matches = append(matches, upcoming{next: next, contact: c})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].next.Before(matches[j].next)
	})

	result := make([]domain.Contact, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.contact)
	}
	return result, nil
}
