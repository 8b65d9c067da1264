package member_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/auth"
	"libraryapi/internal/entity"
	"libraryapi/internal/member"
)

type memRepo struct {
	byEmail map[string]*entity.User
}

func newMemRepo() *memRepo {
	return &memRepo{byEmail: make(map[string]*entity.User)}
}

func (m *memRepo) Create(_ context.Context, u *entity.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return entity.NewValidation("email already registered")
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	clone := *u
	m.byEmail[u.Email] = &clone
	return nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (entity.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return entity.User{}, entity.ErrNotFound
	}
	return *u, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (entity.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return *u, nil
		}
	}
	return entity.User{}, entity.ErrNotFound
}

const testSecret = "test-secret"

func newService() (*member.Service, *memRepo) {
	repo := newMemRepo()
	return member.NewService(repo, testSecret, 15*time.Minute), repo
}

func TestRegister(t *testing.T) {
	svc, _ := newService()

	u, err := svc.Register(context.Background(), "Reader@Example.com", "reader", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleMember, u.Role)
	assert.Equal(t, "reader@example.com", u.Email, "email is normalized")
	assert.NotEqual(t, "Str0ng!pass", u.Password, "password is stored hashed")

	_, err = svc.Register(context.Background(), "reader@example.com", "again", "Str0ng!pass")
	assert.Equal(t, "VALIDATION_FAILED", entity.CodeOf(err), "duplicate email")

	_, err = svc.Register(context.Background(), "weak@example.com", "weak", "short")
	assert.Equal(t, "VALIDATION_FAILED", entity.CodeOf(err), "weak password")
}

func TestRegisterStaff_RequiresLibrarian(t *testing.T) {
	svc, _ := newService()

	_, err := svc.RegisterStaff(context.Background(), entity.RoleMember, "s@example.com", "s", "Str0ng!pass")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	u, err := svc.RegisterStaff(context.Background(), entity.RoleLibrarian, "s@example.com", "s", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleLibrarian, u.Role)
}

func TestLogin(t *testing.T) {
	svc, _ := newService()
	registered, err := svc.Register(context.Background(), "reader@example.com", "reader", "Str0ng!pass")
	require.NoError(t, err)

	token, u, err := svc.Login(context.Background(), "reader@example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	claims, err := auth.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.Sub)
	assert.Equal(t, entity.RoleMember, claims.Role)

	_, _, err = svc.Login(context.Background(), "reader@example.com", "wrong-pass")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "Str0ng!pass")
	assert.ErrorIs(t, err, entity.ErrUnauthorized)
}
