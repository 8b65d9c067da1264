// Package member handles accounts: registration, login and lookup for the
// two roles the library knows, members and librarians.
package member

import (
	"context"
	"strings"
	"time"

	"libraryapi/internal/auth"
	"libraryapi/internal/authz"
	"libraryapi/internal/entity"
)

type Service struct {
	repo     Repository
	secret   string
	tokenTTL time.Duration
}

func NewService(repo Repository, secret string, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: secret, tokenTTL: tokenTTL}
}

// Register creates a MEMBER account. Librarians are provisioned by the seed
// tool or by another librarian via RegisterStaff.
func (s *Service) Register(ctx context.Context, email, username, password string) (entity.User, error) {
	return s.register(ctx, email, username, password, entity.RoleMember)
}

// RegisterStaff creates a LIBRARIAN account; the actor must be staff.
func (s *Service) RegisterStaff(ctx context.Context, actorRole, email, username, password string) (entity.User, error) {
	if !authz.IsStaff(actorRole) {
		return entity.User{}, entity.ErrUnauthorized
	}
	return s.register(ctx, email, username, password, entity.RoleLibrarian)
}

func (s *Service) register(ctx context.Context, email, username, password, role string) (entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return entity.User{}, entity.NewValidation(err.Error())
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return entity.User{}, entity.NewValidation("email already registered")
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return entity.User{}, err
	}

	u := &entity.User{
		Email:    email,
		Username: username,
		Password: hashed,
		Role:     role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return entity.User{}, err
	}
	return *u, nil
}

// Login verifies credentials and returns a signed access token. Wrong email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, entity.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || !auth.VerifyPassword(u.Password, password) {
		return "", entity.User{}, entity.ErrUnauthorized
	}

	token, err := auth.GenerateToken(s.secret, u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return "", entity.User{}, err
	}
	return token, u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (entity.User, error) {
	return s.repo.GetByID(ctx, id)
}
