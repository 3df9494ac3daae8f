package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/application"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/domain/entity"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/domain/repository"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/apperr"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/helpers"
)

// memRepo is an in-memory UserRepository for tests.
type memRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User // by id
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*entity.User{}}
}

func (r *memRepo) Create(u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) GetByEmail(email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) Update(u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func newTestService(t *testing.T) (*application.Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 7*time.Hour, 168*time.Hour)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return application.NewService(repo, jwt, nil, nil, logger, "USER"), repo
}

func signUpAlice(t *testing.T, svc *application.Service) *application.AuthResult {
	t.Helper()
	res, err := svc.SignUp(context.Background(), application.SignUpInput{
		Email:           "alice@x.com",
		Password:        "pw1234",
		ConfirmPassword: "pw1234",
		FirstName:       "Alice",
		LastName:        "X",
	})
	require.NoError(t, err)
	return res
}

func TestSignUpIssuesSession(t *testing.T) {
	svc, repo := newTestService(t)
	res := signUpAlice(t, svc)

	require.Equal(t, "alice@x.com", res.User.Email)
	require.Equal(t, "USER", res.User.Role)
	require.True(t, res.User.Verified)
	require.NotEmpty(t, res.Tokens.AccessToken)
	require.NotEmpty(t, res.Tokens.RefreshToken)

	stored, err := repo.GetByID(res.User.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.RefreshToken)
	require.NotEqual(t, res.Tokens.RefreshToken, stored.RefreshToken)
	require.True(t, helpers.CompareHashAndToken(stored.RefreshToken, res.Tokens.RefreshToken))
	require.True(t, helpers.CompareHashAndPassword(stored.PasswordHash, "pw1234"))
}

func TestSignUpPasswordMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SignUp(context.Background(), application.SignUpInput{
		Email:           "alice@x.com",
		Password:        "pw1234",
		ConfirmPassword: "different",
		FirstName:       "Alice",
		LastName:        "X",
	})
	require.Error(t, err)
	require.Equal(t, 403, apperr.StatusOf(err))
}

func TestSignUpConfirmIsCaseAndSpaceInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.SignUp(context.Background(), application.SignUpInput{
		Email:           "alice@x.com",
		Password:        "pw1234",
		ConfirmPassword: "  PW1234 ",
		FirstName:       "Alice",
		LastName:        "X",
	})
	require.NoError(t, err)
	require.NotNil(t, res)
}

func TestSignUpDuplicateEmailConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	signUpAlice(t, svc)

	_, err := svc.SignUp(context.Background(), application.SignUpInput{
		Email:           "Alice@X.com", // same key after normalization
		Password:        "pw1234",
		ConfirmPassword: "pw1234",
		FirstName:       "Alice",
		LastName:        "X",
	})
	require.Error(t, err)
	require.Equal(t, 409, apperr.StatusOf(err))
}

func TestRedactionAcrossOperations(t *testing.T) {
	svc, _ := newTestService(t)
	res := signUpAlice(t, svc)

	for name, v := range map[string]any{
		"signup": res,
		"profile": func() any {
			p, err := svc.GetProfile(res.User.ID)
			require.NoError(t, err)
			return p
		}(),
	} {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		require.NotContains(t, string(b), "password_hash", "leak in %s", name)
		require.NotContains(t, string(b), "otp_code", "leak in %s", name)
		// the refresh token is returned under tokens, never as a user field
		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		if user, ok := m["user"].(map[string]any); ok {
			_, has := user["refresh_token"]
			require.False(t, has, "leak in %s", name)
		}
	}
}

func TestSignInHappyPathAndFailures(t *testing.T) {
	svc, _ := newTestService(t)
	first := signUpAlice(t, svc)

	res, err := svc.SignIn(context.Background(), "alice@x.com", "pw1234")
	require.NoError(t, err)
	require.True(t, res.User.IsOnline)
	require.NotEqual(t, first.Tokens.AccessToken, res.Tokens.AccessToken)
	require.NotEqual(t, first.Tokens.RefreshToken, res.Tokens.RefreshToken)

	_, err = svc.SignIn(context.Background(), "nobody@x.com", "pw1234")
	require.Equal(t, 404, apperr.StatusOf(err))

	_, err = svc.SignIn(context.Background(), "alice@x.com", "wrongpw")
	require.Equal(t, 403, apperr.StatusOf(err))
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, repo := newTestService(t)
	res := signUpAlice(t, svc)

	rotated, err := svc.RotateRefreshToken(context.Background(), res.User.ID, res.Tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, res.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	// old token was superseded by the rotation
	stored, err := repo.GetByID(res.User.ID)
	require.NoError(t, err)
	require.False(t, helpers.CompareHashAndToken(stored.RefreshToken, res.Tokens.RefreshToken))
	require.True(t, helpers.CompareHashAndToken(stored.RefreshToken, rotated.Tokens.RefreshToken))
}

func TestRefreshMismatchInvalidatesSession(t *testing.T) {
	svc, repo := newTestService(t)
	res := signUpAlice(t, svc)

	_, err := svc.RotateRefreshToken(context.Background(), res.User.ID, "forged-token")
	require.Equal(t, 403, apperr.StatusOf(err))

	stored, err := repo.GetByID(res.User.ID)
	require.NoError(t, err)
	require.Empty(t, stored.RefreshToken)

	// the original, once-valid token is now dead too
	_, err = svc.RotateRefreshToken(context.Background(), res.User.ID, res.Tokens.RefreshToken)
	require.Equal(t, 403, apperr.StatusOf(err))
}

func TestRefreshUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RotateRefreshToken(context.Background(), uuid.NewString(), "whatever")
	require.Equal(t, 403, apperr.StatusOf(err))
}

func TestLogoutClearsSession(t *testing.T) {
	svc, repo := newTestService(t)
	res := signUpAlice(t, svc)

	ok, err := svc.Logout(context.Background(), res.User.ID)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := repo.GetByID(res.User.ID)
	require.NoError(t, err)
	require.Empty(t, stored.RefreshToken)
	require.False(t, stored.IsOnline)

	_, err = svc.RotateRefreshToken(context.Background(), res.User.ID, res.Tokens.RefreshToken)
	require.Equal(t, 403, apperr.StatusOf(err))

	_, err = svc.Logout(context.Background(), uuid.NewString())
	require.Equal(t, 404, apperr.StatusOf(err))
}

func TestOTPLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	res := signUpAlice(t, svc)

	_, err := svc.GetOTP(context.Background(), "nobody@x.com")
	require.Equal(t, 404, apperr.StatusOf(err))

	st, err := svc.GetOTP(context.Background(), "alice@x.com")
	require.NoError(t, err)
	require.True(t, st.Success)

	stored, err := repo.GetByID(res.User.ID)
	require.NoError(t, err)
	require.Len(t, stored.OTPCode, 4)

	// wrong code rejected, stored code kept
	_, err = svc.VerifyOTP(context.Background(), "alice@x.com", "XXXX")
	require.Equal(t, 400, apperr.StatusOf(err))

	st, err = svc.VerifyOTP(context.Background(), "alice@x.com", stored.OTPCode)
	require.NoError(t, err)
	require.True(t, st.Success)

	after, err := repo.GetByID(res.User.ID)
	require.NoError(t, err)
	require.Empty(t, after.OTPCode)
	require.True(t, after.IsEmailVerified)

	// single use: same code again fails
	_, err = svc.VerifyOTP(context.Background(), "alice@x.com", stored.OTPCode)
	require.Equal(t, 400, apperr.StatusOf(err))
}

func TestGetOTPOverwritesPriorCode(t *testing.T) {
	svc, repo := newTestService(t)
	res := signUpAlice(t, svc)

	_, err := svc.GetOTP(context.Background(), "alice@x.com")
	require.NoError(t, err)
	first, _ := repo.GetByID(res.User.ID)

	// codes can collide one time in 10^4; retry once to keep this stable
	var second *entity.User
	for i := 0; i < 2; i++ {
		_, err = svc.ResetPassword(context.Background(), "alice@x.com")
		require.NoError(t, err)
		second, _ = repo.GetByID(res.User.ID)
		if second.OTPCode != first.OTPCode {
			break
		}
	}
	require.NotEqual(t, first.OTPCode, second.OTPCode)

	// the replaced code no longer verifies
	_, err = svc.VerifyOTP(context.Background(), "alice@x.com", first.OTPCode)
	require.Equal(t, 400, apperr.StatusOf(err))
}

func TestUpdatePassword(t *testing.T) {
	svc, repo := newTestService(t)
	res := signUpAlice(t, svc)

	_, err := svc.ResetPassword(context.Background(), "alice@x.com")
	require.NoError(t, err)
	stored, _ := repo.GetByID(res.User.ID)

	_, err = svc.UpdatePassword(context.Background(), application.UpdatePasswordInput{
		Email:           "alice@x.com",
		OTPCode:         stored.OTPCode,
		NewPassword:     "newpw99",
		ConfirmPassword: "otherpw",
	})
	require.Equal(t, 400, apperr.StatusOf(err))

	wrongCode := "0000"
	if stored.OTPCode == wrongCode {
		wrongCode = "0001"
	}
	_, err = svc.UpdatePassword(context.Background(), application.UpdatePasswordInput{
		Email:           "alice@x.com",
		OTPCode:         wrongCode,
		NewPassword:     "newpw99",
		ConfirmPassword: "newpw99",
	})
	require.Equal(t, 400, apperr.StatusOf(err))

	st, err := svc.UpdatePassword(context.Background(), application.UpdatePasswordInput{
		Email:           "alice@x.com",
		OTPCode:         stored.OTPCode,
		NewPassword:     "newpw99",
		ConfirmPassword: "newpw99",
	})
	require.NoError(t, err)
	require.True(t, st.Success)

	after, _ := repo.GetByID(res.User.ID)
	require.Empty(t, after.OTPCode)
	require.True(t, helpers.CompareHashAndPassword(after.PasswordHash, "newpw99"))

	// old password no longer signs in
	_, err = svc.SignIn(context.Background(), "alice@x.com", "pw1234")
	require.Equal(t, 403, apperr.StatusOf(err))
	_, err = svc.SignIn(context.Background(), "alice@x.com", "newpw99")
	require.NoError(t, err)
}

func TestEndToEndScenario(t *testing.T) {
	svc, repo := newTestService(t)

	signup := signUpAlice(t, svc)

	signin, err := svc.SignIn(context.Background(), "alice@x.com", "pw1234")
	require.NoError(t, err)
	require.NotEqual(t, signup.Tokens, signin.Tokens)

	_, err = svc.SignIn(context.Background(), "alice@x.com", "wrongpw")
	require.Equal(t, 403, apperr.StatusOf(err))

	ok, err := svc.Logout(context.Background(), signup.User.ID)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := repo.GetByID(signup.User.ID)
	require.NoError(t, err)
	require.Empty(t, stored.RefreshToken)

	_, err = svc.RotateRefreshToken(context.Background(), signup.User.ID, signin.Tokens.RefreshToken)
	require.Equal(t, 403, apperr.StatusOf(err))
}

// downRepo simulates a credential store that is unreachable: every call
// fails with an infrastructure error, never repository.ErrNotFound.
type downRepo struct{}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func (downRepo) Create(*entity.User) error               { return errConnRefused }
func (downRepo) GetByID(string) (*entity.User, error)    { return nil, errConnRefused }
func (downRepo) GetByEmail(string) (*entity.User, error) { return nil, errConnRefused }
func (downRepo) Update(*entity.User) error               { return errConnRefused }

func TestStoreFailureIsNotNotFound(t *testing.T) {
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 7*time.Hour, 168*time.Hour)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := application.NewService(downRepo{}, jwt, nil, nil, logger, "USER")

	_, err := svc.SignIn(context.Background(), "alice@x.com", "pw1234")
	require.ErrorIs(t, err, errConnRefused)
	require.Equal(t, 500, apperr.StatusOf(err))

	_, err = svc.GetOTP(context.Background(), "alice@x.com")
	require.Equal(t, 500, apperr.StatusOf(err))

	_, err = svc.SignUp(context.Background(), application.SignUpInput{
		Email:           "alice@x.com",
		Password:        "pw1234",
		ConfirmPassword: "pw1234",
		FirstName:       "Alice",
		LastName:        "X",
	})
	require.ErrorIs(t, err, errConnRefused)
	require.Equal(t, 500, apperr.StatusOf(err))

	_, err = svc.RotateRefreshToken(context.Background(), uuid.NewString(), "whatever")
	require.ErrorIs(t, err, errConnRefused)
	require.Equal(t, 500, apperr.StatusOf(err))

	_, err = svc.Logout(context.Background(), uuid.NewString())
	require.Equal(t, 500, apperr.StatusOf(err))
}

func TestMissingUserStillMapsToNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	for _, err := range []error{
		func() error { _, e := svc.SignIn(context.Background(), "nobody@x.com", "pw"); return e }(),
		func() error { _, e := svc.GetOTP(context.Background(), "nobody@x.com"); return e }(),
		func() error { _, e := svc.GetProfile(uuid.NewString()); return e }(),
	} {
		require.Equal(t, 404, apperr.StatusOf(err))
	}
}

// failNotifier rejects every send, standing in for a broker outage.
type failNotifier struct{ calls int }

func (n *failNotifier) SendOTP(ctx context.Context, email, code, purpose string) error {
	n.calls++
	return errors.New("amqp: channel closed")
}

func TestOTPIssuedEvenWhenNotifierFails(t *testing.T) {
	repo := newMemRepo()
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 7*time.Hour, 168*time.Hour)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	notifier := &failNotifier{}
	svc := application.NewService(repo, jwt, notifier, nil, logger, "USER")

	res := signUpAlice(t, svc)

	st, err := svc.GetOTP(context.Background(), "alice@x.com")
	require.NoError(t, err)
	require.True(t, st.Success)

	stored, err := repo.GetByID(res.User.ID)
	require.NoError(t, err)
	require.Len(t, stored.OTPCode, 4)

	st, err = svc.ResetPassword(context.Background(), "alice@x.com")
	require.NoError(t, err)
	require.True(t, st.Success)

	require.Equal(t, 2, notifier.calls)
}

// dupRepo lets a signup pass the lookup and then rejects the insert, the way
// the unique index answers a concurrent registration.
type dupRepo struct{ *memRepo }

func (dupRepo) Create(*entity.User) error { return repository.ErrDuplicate }

func TestSignUpConcurrentDuplicateConflicts(t *testing.T) {
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", 7*time.Hour, 168*time.Hour)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := application.NewService(dupRepo{newMemRepo()}, jwt, nil, nil, logger, "USER")

	_, err := svc.SignUp(context.Background(), application.SignUpInput{
		Email:           "alice@x.com",
		Password:        "pw1234",
		ConfirmPassword: "pw1234",
		FirstName:       "Alice",
		LastName:        "X",
	})
	require.ErrorAs(t, err, new(*apperr.Error))
	require.Equal(t, 409, apperr.StatusOf(err))
}
