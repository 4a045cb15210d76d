package user

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiumhq/studium/core"
)

type fakeUserRepo struct {
	users map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (r *fakeUserRepo) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error {
	for _, usr := range r.users {
		if usr.Email != email {
			continue
		}
		excluded := false
		for _, excl := range excludedUsers {
			if excl.ID == usr.ID {
				excluded = true
			}
		}
		if !excluded {
			return ErrEmailExists
		}
	}
	return nil
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, usr User) (User, error) {
	usr.ID = uuid.New().String()
	r.users[usr.ID] = &usr
	return usr, nil
}

func (r *fakeUserRepo) QueryAllUsers(ctx context.Context) ([]User, error) {
	all := make([]User, 0, len(r.users))
	for _, usr := range r.users {
		all = append(all, *usr)
	}
	return all, nil
}

func (r *fakeUserRepo) GetUser(ctx context.Context, filter GetFilter) (User, error) {
	for _, usr := range r.users {
		if (filter.ID != "" && usr.ID == filter.ID) ||
			(filter.Email != "" && usr.Email == filter.Email) {
			return *usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, usr User) (User, error) {
	if _, ok := r.users[usr.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.users[usr.ID] = &usr
	return usr, nil
}

func (r *fakeUserRepo) DeleteUsersByID(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		delete(r.users, id)
	}
	return nil
}

type recordingMailSvc struct {
	messages []*core.EmailMessage
}

func (svc *recordingMailSvc) SendMessages(messages ...*core.EmailMessage) {
	svc.messages = append(svc.messages, messages...)
}

func newTestUserConfig() *core.Config {
	conf := &core.Config{
		TestMode:                  true,
		AppName:                   "Studium",
		SecretKey:                 []byte("secret"),
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromEmail:          mail.Address{Name: "Studium", Address: "noreply@localhost"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	return conf
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	svc := NewService(repo, &recordingMailSvc{}, newTestUserConfig())

	usr, err := svc.Register(ctx, NewUser{
		Name:            "Jane Doe",
		Email:           "jane@test.cm",
		Role:            RoleProfessor,
		Password:        "S3cretPass!",
		PasswordConfirm: "S3cretPass!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.Active())
	assert.NoError(t, usr.CheckPassword("S3cretPass!"))
	assert.Error(t, usr.CheckPassword("nope"))

	t.Run("duplicate email is a validation error", func(t *testing.T) {
		err := svc.CheckEmailUniqueness(ctx, "jane@test.cm")
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "email", vErr.Fields[0].Field)
	})
}

func TestService_passwordResetFlow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo()
	mailSvc := &recordingMailSvc{}
	svc := NewServiceMock(repo, mailSvc, newTestUserConfig())

	usr, err := svc.Register(ctx, NewUser{
		Name:            "Jane Doe",
		Email:           "jane@test.cm",
		Role:            RoleStudent,
		Password:        "S3cretPass!",
		PasswordConfirm: "S3cretPass!",
	})
	require.NoError(t, err)

	t.Run("unknown email is reported", func(t *testing.T) {
		err := svc.RequestPasswordReset(ctx, "ghost@test.cm")
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("reset mail carries the uid and token link", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(ctx, usr.Email))
		require.Len(t, mailSvc.messages, 1)

		msg := mailSvc.messages[0]
		assert.Equal(t, usr.Email, msg.To[0].Address)
		assert.Contains(t, msg.Body, "password-reset?uid="+EncodeUID(usr))
	})

	t.Run("valid token resets the password", func(t *testing.T) {
		err := svc.ResetPassword(ctx, ResetUserPassword{
			UID:             EncodeUID(usr),
			Token:           makeToken(usr),
			Password:        "NewS3cret!",
			PasswordConfirm: "NewS3cret!",
		})
		require.NoError(t, err)

		refreshed, err := svc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword("NewS3cret!"))
		assert.Error(t, refreshed.CheckPassword("S3cretPass!"))
	})

	t.Run("token is single-use", func(t *testing.T) {
		// the token hashes the password, so the pre-reset token no longer verifies
		err := svc.ResetPassword(ctx, ResetUserPassword{
			UID:             EncodeUID(usr),
			Token:           makeToken(usr),
			Password:        "AnotherS3cret!",
			PasswordConfirm: "AnotherS3cret!",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		refreshed, err := svc.GetByID(ctx, usr.ID)
		require.NoError(t, err)

		token := makeToken(refreshed)
		tampered := token[:len(token)-2] + strings.Repeat("x", 2)
		err = svc.ResetPassword(ctx, ResetUserPassword{
			UID:             EncodeUID(refreshed),
			Token:           tampered,
			Password:        "EvilS3cret!",
			PasswordConfirm: "EvilS3cret!",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}
