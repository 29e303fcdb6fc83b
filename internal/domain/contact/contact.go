// Package contact manages the business's address book of suppliers,
// partners and customers.
package contact

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/beauty-admin/internal/domain/validation"
)

// ErrNotFound is returned when a contact does not exist.
var ErrNotFound = errors.New("contact not found")

// Contact is an address book entry.
type Contact struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Company   string
	Notes     string
	CreatedAt time.Time
}

// Repository defines persistence operations for contacts.
type Repository interface {
	List(ctx context.Context) ([]Contact, error)
	Create(ctx context.Context, c *Contact) error
	Delete(ctx context.Context, id string) error
}

// Service implements the contact operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a contact Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns all contacts.
func (s *Service) List(ctx context.Context) ([]Contact, error) {
	contacts, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list contacts")
	}
	return contacts, nil
}

// Create validates and stores a new contact.
func (s *Service) Create(ctx context.Context, c *Contact) (*Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	if err := Validate(c); err != nil {
		return nil, err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = s.now()
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create contact")
	}
	return c, nil
}

// Delete removes a contact.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return errors.Wrapf(err, "delete contact %s", id)
	}
	return nil
}

// Validate checks a contact before it is persisted.
func Validate(c *Contact) error {
	if c.Name == "" {
		return validation.Errorf("name", "required")
	}
	if c.Email == "" && c.Phone == "" {
		return validation.Errorf("email", "an email or phone number is required")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return validation.Errorf("email", "invalid address")
		}
	}
	return nil
}
