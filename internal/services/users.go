package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/ports"
)

// Input for a new user account.
type NewUser struct {
	Email        string `validate:"required,email"`
	Name         string `validate:"required"`
	Role         string `validate:"required,oneof=driver admin supervisor"`
	Phone        string
	Company      string
	VehicleType  string
	LicensePlate string
}

type UserService struct {
	store    ports.UserRepository
	validate *validator.Validate
	now      func() time.Time
}

func NewUserService(store ports.UserRepository) *UserService {
	return &UserService{
		store:    store,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) Create(ctx context.Context, in NewUser) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("create user: %v: %w", err, domain.ErrValidation)
	}

	if _, err := s.store.FindUserByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("create user: email %s already registered: %w", in.Email, domain.ErrValidation)
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		Role:         domain.Role(in.Role),
		Phone:        in.Phone,
		Company:      in.Company,
		VehicleType:  in.VehicleType,
		LicensePlate: in.LicensePlate,
		CreatedAt:    s.now(),
		IsActive:     true,
	}
	if err := s.store.InsertUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	out, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}
