package customers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/pkg/config"
	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/security"
)

const placeholderPasswordLength = 24

// CreateCustomerInput holds the contact + shipping data gathered during
// checkout. There is no login flow, so no password is collected; a random
// placeholder is hashed instead.
type CreateCustomerInput struct {
	Email           string
	FullName        string
	Phone           *string
	ShippingAddress string
	BillingAddress  string
}

// Service creates customer records during order commit.
type Service interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (uuid.UUID, error)
}

type service struct {
	repo *Repository
	cfg  config.PasswordConfig
}

// NewService constructs a customers service instance.
func NewService(repo *Repository, cfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (uuid.UUID, error) {
	placeholder, err := security.GeneratePlaceholderPassword(placeholderPasswordLength)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating placeholder password")
	}
	hash, err := security.HashPassword(placeholder, s.cfg)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing placeholder password")
	}

	billing := input.BillingAddress
	if billing == "" {
		billing = input.ShippingAddress
	}

	customer := &models.Customer{
		ID:              uuid.New(),
		Email:           input.Email,
		PasswordHash:    hash,
		FullName:        input.FullName,
		Phone:           input.Phone,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  billing,
	}
	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating customer")
	}
	return created.ID, nil
}
