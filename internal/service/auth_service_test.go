package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shiftwise/volunteer-api/internal/dto"
	"github.com/shiftwise/volunteer-api/internal/models"
	appErrors "github.com/shiftwise/volunteer-api/pkg/errors"
)

type authUserRepoStub struct {
	users map[string]models.User
}

func (s *authUserRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.users == nil {
		s.users = make(map[string]models.User)
	}
	s.users[user.Email] = *user
	return nil
}

func (s *authUserRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.users[email]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newAuthFixture(t *testing.T) (*AuthService, *authUserRepoStub) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	volID := "vol-1"
	repo := &authUserRepoStub{users: map[string]models.User{
		"vol@example.org": {
			ID:           "user-1",
			Email:        "vol@example.org",
			FullName:     "Pat Volunteer",
			PasswordHash: string(hash),
			Role:         models.RoleVolunteer,
			VolunteerID:  &volID,
			Active:       true,
		},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "test"})
	return svc, repo
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "vol@example.org", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "vol-1", resp.User.VolunteerID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleVolunteer, claims.Role)
	assert.Equal(t, "vol-1", claims.VolunteerID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "vol@example.org", Password: "wrong"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginRejectsUnknownEmailWithSameError(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.org", Password: "s3cret-pass"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	user := repo.users["vol@example.org"]
	user.Active = false
	repo.users["vol@example.org"] = user

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "vol@example.org", Password: "s3cret-pass"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestRegisterRequiresVolunteerIDForVolunteerRole(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "new@example.org",
		FullName: "New Volunteer",
		Password: "longenough",
		Role:     models.RoleVolunteer,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "vol@example.org",
		FullName: "Duplicate",
		Password: "longenough",
		Role:     models.RoleAdmin,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t)
	other := NewAuthService(&authUserRepoStub{}, nil, nil, AuthConfig{Secret: "other-secret", Expiry: time.Hour})

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "vol@example.org", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = other.ValidateToken(resp.AccessToken)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
