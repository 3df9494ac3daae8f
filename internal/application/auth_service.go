package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/domain/entity"
	repo "github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/domain/repository"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/apperr"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/helpers"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/mailer"
)

const otpDigits = 4

// Service implements the authentication flows: signup, signin, token
// rotation, OTP issuance/verification and password reset. It owns every
// mutation of the credential record.
type Service struct {
	Repo        repo.UserRepository
	JWT         *helpers.JWTManager
	Notifier    mailer.Notifier
	Redis       *redis.Client
	Logger      *logrus.Logger
	DefaultRole string
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, notifier mailer.Notifier, rdb *redis.Client, logger *logrus.Logger, defaultRole string) *Service {
	if defaultRole == "" {
		defaultRole = "USER"
	}
	if notifier == nil {
		notifier = mailer.NopNotifier{}
	}
	return &Service{
		Repo:        r,
		JWT:         jwt,
		Notifier:    notifier,
		Redis:       rdb,
		Logger:      logger,
		DefaultRole: defaultRole,
	}
}

// TokenPair is the client-facing access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by every operation that establishes a session.
type AuthResult struct {
	User   entity.Profile `json:"user"`
	Tokens TokenPair      `json:"tokens"`
}

// StatusResult is returned by the OTP and password-reset operations.
type StatusResult struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

type UpdatePasswordInput struct {
	Email           string
	OTPCode         string
	NewPassword     string
	ConfirmPassword string
}

// NormalizeEmail lower-cases and trims the login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// passwordsDiffer reports a confirm-password mismatch. The comparison is
// trim and case insensitive.
func passwordsDiffer(password, confirm string) bool {
	return !strings.EqualFold(strings.TrimSpace(password), strings.TrimSpace(confirm))
}

func onlineKey(userID string) string {
	return "user:online:" + userID
}

// loadByEmail translates a missing user to the 404 of the error taxonomy and
// lets store failures propagate untyped, so outages do not masquerade as
// authoritative "user not found" answers.
func (s *Service) loadByEmail(email string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) loadByID(id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

// SignUp creates a credential record and immediately establishes a session.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	if passwordsDiffer(in.Password, in.ConfirmPassword) {
		return nil, apperr.Forbidden("password and confirm_password do not match")
	}

	email := NormalizeEmail(in.Email)
	existing, err := s.Repo.GetByEmail(email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         s.DefaultRole,
		Verified:     true,
	}
	if err := s.Repo.Create(u); err != nil {
		// a concurrent signup can slip past the lookup; the unique index wins
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, err
	}

	return s.issueSession(ctx, u)
}

// SignIn validates credentials and establishes a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.loadByEmail(email)
	if err != nil {
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, apperr.Forbidden("invalid credentials")
	}

	u.IsOnline = true
	res, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	s.markOnline(ctx, u)
	return res, nil
}

// GetOTP issues a fresh one-time code for email verification, replacing any
// prior code.
func (s *Service) GetOTP(ctx context.Context, email string) (*StatusResult, error) {
	return s.issueOTP(ctx, email, "verify")
}

// ResetPassword issues a one-time code gating a password reset.
func (s *Service) ResetPassword(ctx context.Context, email string) (*StatusResult, error) {
	return s.issueOTP(ctx, email, "reset")
}

func (s *Service) issueOTP(ctx context.Context, email, purpose string) (*StatusResult, error) {
	u, err := s.loadByEmail(email)
	if err != nil {
		return nil, err
	}

	code, err := helpers.GenOTPCode(otpDigits)
	if err != nil {
		return nil, err
	}
	u.OTPCode = code
	if err := s.Repo.Update(u); err != nil {
		return nil, err
	}

	// delivery is best-effort
	if err := s.Notifier.SendOTP(ctx, u.Email, code, purpose); err != nil {
		mailer.LogSendFailure(s.Logger, u.Email, err)
	}

	return &StatusResult{Message: "otp sent", Success: true}, nil
}

// VerifyOTP consumes a pending code and marks the email verified.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*StatusResult, error) {
	u, err := s.loadByEmail(email)
	if err != nil {
		return nil, err
	}
	if u.OTPCode == "" || u.OTPCode != code {
		return nil, apperr.Invalid("invalid otp code")
	}

	u.OTPCode = ""
	u.IsEmailVerified = true
	if err := s.Repo.Update(u); err != nil {
		return nil, err
	}
	return &StatusResult{Message: "email verified", Success: true}, nil
}

// UpdatePassword replaces the stored password hash after checking the
// pending one-time code; the code is consumed either way on success.
func (s *Service) UpdatePassword(ctx context.Context, in UpdatePasswordInput) (*StatusResult, error) {
	if passwordsDiffer(in.NewPassword, in.ConfirmPassword) {
		return nil, apperr.Invalid("new_password and confirm_password do not match")
	}

	u, err := s.loadByEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if u.OTPCode == "" || u.OTPCode != in.OTPCode {
		return nil, apperr.Invalid("invalid otp code")
	}

	hash, err := helpers.HashPassword(in.NewPassword)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	u.OTPCode = ""
	if err := s.Repo.Update(u); err != nil {
		return nil, err
	}
	return &StatusResult{Message: "password updated", Success: true}, nil
}

// Logout clears the stored refresh-token hash, ending the session.
func (s *Service) Logout(ctx context.Context, userID string) (bool, error) {
	u, err := s.loadByID(userID)
	if err != nil {
		return false, err
	}

	u.RefreshToken = ""
	u.IsOnline = false
	if err := s.Repo.Update(u); err != nil {
		return false, err
	}
	s.markOffline(ctx, u)
	return true, nil
}

// RotateRefreshToken exchanges a valid refresh token for a new pair. A
// presented token that does not match the stored hash clears the stored
// token: one bad refresh ends the whole session, not just the request.
func (s *Service) RotateRefreshToken(ctx context.Context, userID, presented string) (*AuthResult, error) {
	u, err := s.Repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.Forbidden("invalid refresh token")
		}
		return nil, err
	}

	if u.RefreshToken == "" || !helpers.CompareHashAndToken(u.RefreshToken, presented) {
		u.RefreshToken = ""
		if err := s.Repo.Update(u); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("failed to invalidate session")
		}
		return nil, apperr.Forbidden("invalid refresh token")
	}

	return s.issueSession(ctx, u)
}

// GetProfile returns the redacted record for a user id.
func (s *Service) GetProfile(userID string) (*entity.Profile, error) {
	u, err := s.loadByID(userID)
	if err != nil {
		return nil, err
	}
	p := u.AsProfile()
	return &p, nil
}

// issueSession signs a token pair, persists the hashed refresh token on the
// record and returns the redacted result.
func (s *Service) issueSession(ctx context.Context, u *entity.User) (*AuthResult, error) {
	pair, err := s.getTokens(u)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("token signing failed")
		}
		return nil, err
	}

	hashed, err := helpers.HashToken(pair.RefreshToken)
	if err != nil {
		return nil, err
	}
	u.RefreshToken = hashed
	if err := s.Repo.Update(u); err != nil {
		return nil, err
	}

	return &AuthResult{User: u.AsProfile(), Tokens: pair}, nil
}

// getTokens signs the access and refresh tokens concurrently; the two
// signing operations are independent.
func (s *Service) getTokens(u *entity.User) (TokenPair, error) {
	claims := helpers.Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}

	type signed struct {
		token string
		err   error
	}
	refreshCh := make(chan signed, 1)
	go func() {
		t, _, err := s.JWT.GenerateRefreshToken(claims)
		refreshCh <- signed{token: t, err: err}
	}()

	access, _, err := s.JWT.GenerateAccessToken(claims)
	refresh := <-refreshCh
	if err != nil {
		return TokenPair{}, err
	}
	if refresh.err != nil {
		return TokenPair{}, refresh.err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh.token}, nil
}

func (s *Service) markOnline(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := onlineKey(u.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"email":     u.Email,
		"since":     time.Now().UTC().Format(time.RFC3339Nano),
		"is_online": true,
	})
	pipe.Expire(ctx, key, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

func (s *Service) markOffline(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, onlineKey(u.ID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("redis del failed")
	}
}
