package domain

import (
	"fmt"
	"strings"
	"time"
)

type Contact struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  *Date     `json:"birthday,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateContactRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  *Date  `json:"birthday,omitempty"`
	Note      string `json:"note,omitempty"`
}

type UpdateContactRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Birthday  *Date   `json:"birthday,omitempty"`
	Note      *string `json:"note,omitempty"`
}

func (r *CreateContactRequest) Validate() error {
	if r.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if r.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	return nil
}

func (r *CreateContactRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

// Normalize trims the set fields so a partial update stores the same form
// a create would, and cannot dodge the uniqueness checks with padding.
func (r *UpdateContactRequest) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(r.FirstName)
	trim(r.LastName)
	trim(r.Email)
	trim(r.Phone)
}

func (r *UpdateContactRequest) Validate() error {
	if r.FirstName != nil && strings.TrimSpace(*r.FirstName) == "" {
		return fmt.Errorf("first_name must not be empty")
	}
	if r.LastName != nil && strings.TrimSpace(*r.LastName) == "" {
		return fmt.Errorf("last_name must not be empty")
	}
	if r.Email != nil && !isValidEmail(*r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Phone != nil && strings.TrimSpace(*r.Phone) == "" {
		return fmt.Errorf("phone must not be empty")
	}
	return nil
}

// Merge applies the set fields of r on top of c and returns the merged
// record. Duplicate checks run against the merged record so a partial
// update cannot slip in a duplicate a full record would be rejected for.
func (r *UpdateContactRequest) Merge(c *Contact) Contact {
	merged := *c
	if r.FirstName != nil {
		merged.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		merged.LastName = *r.LastName
	}
	if r.Email != nil {
		merged.Email = *r.Email
	}
	if r.Phone != nil {
		merged.Phone = *r.Phone
	}
	if r.Birthday != nil {
		merged.Birthday = r.Birthday
	}
	if r.Note != nil {
		merged.Note = *r.Note
	}
	return merged
}
