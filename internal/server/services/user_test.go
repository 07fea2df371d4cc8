package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskkeeper/internal/common"
	"taskkeeper/internal/server/avatar"
	"taskkeeper/internal/server/config"
)

type userServiceFixture struct {
	svc    *UserService
	repos  *fakeManager
	mailer *recordingMailer
	db     *sql.DB
	mock   sqlmock.Sqlmock
}

func newUserService(t *testing.T) *userServiceFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = 4 // keep tests fast

	repos := newFakeManager()
	mailer := newRecordingMailer()
	svc := NewUserService(db, repos, newFakeAvatarStore(), avatar.NewProcessor(cfg.AvatarSize),
		mailer, discardLogger(), cfg)
	return &userServiceFixture{svc: svc, repos: repos, mailer: mailer, db: db, mock: mock}
}

func register(t *testing.T, f *userServiceFixture, email string) (string, string) {
	t.Helper()
	user, token, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: email, Password: "red12345!", Age: 30,
	})
	require.NoError(t, err)
	return user.ID, token
}

func waitFor(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return ""
	}
}

func TestRegister_HashesPasswordAndIssuesToken(t *testing.T) {
	f := newUserService(t)

	user, token, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: " ALICE@Example.com ", Password: "red12345!", Age: 30,
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email, "email must be normalized")
	assert.NotEqual(t, "red12345!", user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "red12345!")
	assert.NotEmpty(t, token)

	active, err := f.repos.sessionRepo.Exists(context.Background(), user.ID, token)
	require.NoError(t, err)
	assert.True(t, active, "the issued token must be in the session list")

	assert.Equal(t, "alice@example.com", waitFor(t, f.mailer.welcome))
}

func TestRegister_ValidationFailures(t *testing.T) {
	f := newUserService(t)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"short password", RegisterInput{Name: "A", Email: "a@b.com", Password: "short"}},
		{"password substring", RegisterInput{Name: "A", Email: "a@b.com", Password: "myPassword1"}},
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "red12345!"}},
		{"no name", RegisterInput{Email: "a@b.com", Password: "red12345!"}},
		{"negative age", RegisterInput{Name: "A", Email: "a@b.com", Password: "red12345!", Age: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestRegister_NoWelcomeMailWhenTokenIssueFails(t *testing.T) {
	f := newUserService(t)
	f.repos.sessionRepo.createErr = errors.New("session store down")

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "red12345!", Age: 30,
	})
	require.Error(t, err)

	assert.Empty(t, f.mailer.welcome, "a failed signup must not greet the user")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newUserService(t)
	register(t, f, "alice@example.com")

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Other", Email: "alice@example.com", Password: "red12345!",
	})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	f := newUserService(t)
	register(t, f, "alice@example.com")

	_, _, errUnknown := f.svc.Login(context.Background(), "ghost@example.com", "red12345!")
	_, _, errWrong := f.svc.Login(context.Background(), "alice@example.com", "not-the-password1")

	assert.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLogin_SessionsAreAdditive(t *testing.T) {
	f := newUserService(t)
	userID, firstToken := register(t, f, "alice@example.com")

	_, secondToken, err := f.svc.Login(context.Background(), "alice@example.com", "red12345!")
	require.NoError(t, err)

	assert.NotEqual(t, firstToken, secondToken)
	assert.Equal(t, 2, f.repos.sessionRepo.count(userID))
}

func TestAuthenticate(t *testing.T) {
	f := newUserService(t)
	userID, token := register(t, f, "alice@example.com")

	user, err := f.svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)

	_, err = f.svc.Authenticate(context.Background(), "garbage-token")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthenticate_RevokedTokenRejected(t *testing.T) {
	f := newUserService(t)
	userID, token := register(t, f, "alice@example.com")

	require.NoError(t, f.svc.Logout(context.Background(), userID, token))

	_, err := f.svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrUnauthorized,
		"a signed but revoked token must not authenticate")
}

func TestLogoutAll_RevokesEverySession(t *testing.T) {
	f := newUserService(t)
	userID, _ := register(t, f, "alice@example.com")
	_, _, err := f.svc.Login(context.Background(), "alice@example.com", "red12345!")
	require.NoError(t, err)
	require.Equal(t, 2, f.repos.sessionRepo.count(userID))

	require.NoError(t, f.svc.LogoutAll(context.Background(), userID))
	assert.Equal(t, 0, f.repos.sessionRepo.count(userID))
}

func TestUpdate_RehashesNewPassword(t *testing.T) {
	f := newUserService(t)
	userID, _ := register(t, f, "alice@example.com")

	before, err := f.svc.Get(context.Background(), userID)
	require.NoError(t, err)

	newPassword := "blue67890!"
	updated, err := f.svc.Update(context.Background(), userID, UserUpdate{Password: &newPassword})
	require.NoError(t, err)

	assert.NotEqual(t, before.PasswordHash, updated.PasswordHash)
	assert.NotContains(t, updated.PasswordHash, newPassword)

	_, _, err = f.svc.Login(context.Background(), "alice@example.com", newPassword)
	assert.NoError(t, err, "login must work with the new password")
}

func TestUpdate_RejectsInvalidFields(t *testing.T) {
	f := newUserService(t)
	userID, _ := register(t, f, "alice@example.com")

	bad := "nope"
	_, err := f.svc.Update(context.Background(), userID, UserUpdate{Email: &bad})
	assert.ErrorIs(t, err, common.ErrValidation)

	short := "abc"
	_, err = f.svc.Update(context.Background(), userID, UserUpdate{Password: &short})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDelete_CascadesTasksAndSessions(t *testing.T) {
	f := newUserService(t)
	userID, _ := register(t, f, "alice@example.com")

	taskSvc := NewTaskService(f.db, f.repos, discardLogger())
	_, err := taskSvc.Create(context.Background(), userID, TaskCreate{Description: "one"})
	require.NoError(t, err)
	_, err = taskSvc.Create(context.Background(), userID, TaskCreate{Description: "two"})
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	deleted, err := f.svc.Delete(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", deleted.Email)

	assert.Equal(t, 0, f.repos.taskRepo.countForOwner(userID))
	assert.Equal(t, 0, f.repos.sessionRepo.count(userID))
	_, err = f.svc.Get(context.Background(), userID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Equal(t, "alice@example.com", waitFor(t, f.mailer.cancellation))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAvatarRoundTrip(t *testing.T) {
	f := newUserService(t)
	userID, _ := register(t, f, "alice@example.com")

	_, err := f.svc.GetAvatar(context.Background(), userID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	jpegBytes := makeTestJPEG(t, 600, 400)
	require.NoError(t, f.svc.SetAvatar(context.Background(), userID, jpegBytes))

	png, err := f.svc.GetAvatar(context.Background(), userID)
	require.NoError(t, err)
	assertPNGSize(t, png, 250)

	require.NoError(t, f.svc.DeleteAvatar(context.Background(), userID))
	_, err = f.svc.GetAvatar(context.Background(), userID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetAvatar_RejectsNonImage(t *testing.T) {
	f := newUserService(t)
	userID, _ := register(t, f, "alice@example.com")

	err := f.svc.SetAvatar(context.Background(), userID, []byte("not an image"))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGetAvatar_MalformedIDIsNotFound(t *testing.T) {
	f := newUserService(t)

	_, err := f.svc.GetAvatar(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
