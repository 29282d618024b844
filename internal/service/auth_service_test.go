package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuswell/wellness-api/internal/dto"
	"github.com/campuswell/wellness-api/internal/models"
	"github.com/campuswell/wellness-api/pkg/config"
	appErrors "github.com/campuswell/wellness-api/pkg/errors"
)

type mockAuthRepo struct {
	users    map[string]models.User
	conflict string
	created  *models.User
}

func (m *mockAuthRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == identifier || u.Email == identifier {
			return &u, nil
		}
	}
	return nil, errNoRows()
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, errNoRows()
}

func (m *mockAuthRepo) FindConflicting(ctx context.Context, username, email string, studentID *string) (string, error) {
	return m.conflict, nil
}

func (m *mockAuthRepo) CreateStudent(ctx context.Context, user *models.User, courses []dto.CourseInput) error {
	user.ID = "user-new"
	m.created = user
	return nil
}

func (m *mockAuthRepo) UpdateProfile(ctx context.Context, id string, name, email *string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, errNoRows()
	}
	if name != nil {
		u.Name = *name
	}
	if email != nil {
		u.Email = *email
	}
	m.users[id] = u
	return &u, nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u := m.users[id]
	u.PasswordHash = passwordHash
	m.users[id] = u
	return nil
}

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "wellness-api"}
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLogin(t *testing.T) {
	repo := &mockAuthRepo{users: map[string]models.User{
		"user-1": {ID: "user-1", Username: "jdoe", Email: "jdoe@example.edu", PasswordHash: hashOf(t, "secret123"), Role: models.RoleStudent, IsActive: true},
	}}
	svc := NewAuthService(repo, jwtConfig(), nil, nil)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Identifier: "jdoe", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "user-1", resp.User.ID)

	claims, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{users: map[string]models.User{
		"user-1": {ID: "user-1", Username: "jdoe", PasswordHash: hashOf(t, "secret123"), IsActive: true},
	}}
	svc := NewAuthService(repo, jwtConfig(), nil, nil)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Identifier: "jdoe", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, jwtConfig(), nil, nil)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Identifier: "ghost", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginDeactivated(t *testing.T) {
	until := time.Now().Add(24 * time.Hour)
	repo := &mockAuthRepo{users: map[string]models.User{
		"user-1": {ID: "user-1", Username: "jdoe", PasswordHash: hashOf(t, "secret123"), IsActive: true, DeactivatedUntil: &until},
	}}
	svc := NewAuthService(repo, jwtConfig(), nil, nil)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Identifier: "jdoe", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegister(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, jwtConfig(), nil, nil)

	user, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:      "Jane Doe",
		Username:  "JDoe",
		Email:     "JDoe@Example.edu",
		Password:  "secret123",
		StudentID: "S-1001",
		Courses:   []dto.CourseInput{{Title: "Calculus", Section: "A"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "jdoe", user.Username)
	assert.Equal(t, "jdoe@example.edu", user.Email)
	require.NotNil(t, repo.created)
	assert.NotEqual(t, "secret123", repo.created.PasswordHash)
}

func TestAuthServiceRegisterConflict(t *testing.T) {
	repo := &mockAuthRepo{conflict: "username"}
	svc := NewAuthService(repo, jwtConfig(), nil, nil)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:      "Jane Doe",
		Username:  "jdoe",
		Email:     "jdoe@example.edu",
		Password:  "secret123",
		StudentID: "S-1001",
		Courses:   []dto.CourseInput{{Title: "Calculus", Section: "A"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePasswordWrongCurrent(t *testing.T) {
	repo := &mockAuthRepo{users: map[string]models.User{
		"user-1": {ID: "user-1", PasswordHash: hashOf(t, "secret123")},
	}}
	svc := NewAuthService(repo, jwtConfig(), nil, nil)

	err := svc.ChangePassword(context.Background(), "user-1", dto.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "newsecret1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceVerifyTokenInvalid(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, jwtConfig(), nil, nil)

	_, err := svc.VerifyToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
