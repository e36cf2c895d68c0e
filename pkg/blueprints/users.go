package blueprints

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// resetResendWindow throttles password-reset and confirm-account emails: a
// second email for the same account is only sent once this much time has
// passed since the previous one.
const resetResendWindow = 5 * time.Minute

const (
	resetTokenLength   = 128
	confirmTokenLength = 255
	apiKeyLength       = 35
	apiKeyAttempts     = 50
)

var multiDash = regexp.MustCompile(`-{2,}`)

// Slugify turns a username into its URL-safe profile slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(".", "-", " ", "-", "@", "").Replace(s)
	s = multiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func (s *service) RegisterUser(ctx context.Context, req RegisterUserRequest) (int64, error) {
	slug := Slugify(req.Username)

	available, err := s.repo.IsUsernameAvailable(ctx, req.Username, slug)
	if err != nil {
		return 0, err
	}
	if !available {
		return 0, ErrUsernameTaken
	}

	available, err = s.repo.IsEmailAvailable(ctx, req.Email)
	if err != nil {
		return 0, err
	}
	if !available {
		return 0, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     req.Username,
		Slug:         slug,
		Email:        req.Email,
		Grade:        "member",
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}

	var userID int64
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		id, err := tx.CreateUser(ctx, user)
		if err != nil {
			return &StepError{Op: "register user", Code: CodeInsertMain, Err: err}
		}

		if err := tx.CreateUserInfos(ctx, &UserInfos{UserID: id}); err != nil {
			return &StepError{Op: "register user", Code: CodeInsertVersion, Err: err}
		}

		userID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	return userID, nil
}

func (s *service) Authenticate(ctx context.Context, username, password string) (int64, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return 0, ErrInvalidCredentials
	}

	return user.ID, nil
}

func (s *service) SaveLastLogin(ctx context.Context, userID int64) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now()
	user.LastLoginAt = &now
	return s.repo.UpdateUser(ctx, user)
}

func (s *service) DeleteUser(ctx context.Context, userID int64) error {
	return s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.DeleteUser(ctx, userID); err != nil {
			return err
		}
		if err := tx.DeleteUserInfos(ctx, userID); err != nil {
			return err
		}
		return tx.DeleteAPIKey(ctx, userID)
	})
}

func (s *service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUser(ctx, userID)
}

// Password reset

func (s *service) BeginPasswordReset(ctx context.Context, email string) (*PasswordResetResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return &PasswordResetResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user.PasswordResetAt != nil && now.Sub(*user.PasswordResetAt) < resetResendWindow {
		return &PasswordResetResult{UserFound: true}, nil
	}

	token, err := randomToken(resetTokenLength)
	if err != nil {
		return nil, err
	}

	user.PasswordReset = token
	user.PasswordResetAt = &now
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, token); err != nil {
		return nil, fmt.Errorf("send password reset email: %w", err)
	}

	return &PasswordResetResult{Token: token, UserFound: true, Username: user.Username}, nil
}

func (s *service) FindUserIDByResetToken(ctx context.Context, email, token string) (int64, error) {
	return s.repo.FindUserIDByResetToken(ctx, email, token)
}

func (s *service) ResetPassword(ctx context.Context, userID int64, password string) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.PasswordReset = ""
	user.PasswordResetAt = nil
	return s.repo.UpdateUser(ctx, user)
}

// Account confirmation

func (s *service) IsUserConfirmed(ctx context.Context, userID int64) (confirmed, resend bool, err error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return false, false, err
	}

	if user.ConfirmedAt != nil {
		return true, false, nil
	}

	if user.ConfirmedSentAt == nil {
		return false, true, nil
	}
	if s.now().Sub(*user.ConfirmedSentAt) > resetResendWindow {
		return false, true, nil
	}

	return false, false, nil
}

func (s *service) SendConfirmAccountEmail(ctx context.Context, userID int64) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	token := user.ConfirmedToken
	if token == "" {
		token, err = randomToken(confirmTokenLength)
		if err != nil {
			return err
		}
	}

	// The row only records the send once the mailer accepted the message, so
	// a failed send leaves the account eligible for another attempt.
	if err := s.mailer.SendConfirmAccount(ctx, user.Email, user.Username, token); err != nil {
		return fmt.Errorf("send confirm account email: %w", err)
	}

	now := s.now()
	user.ConfirmedToken = token
	user.ConfirmedSentAt = &now
	return s.repo.UpdateUser(ctx, user)
}

func (s *service) ConfirmAccount(ctx context.Context, token string) (bool, error) {
	userID, err := s.repo.FindUserIDByConfirmedToken(ctx, token)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	now := s.now()
	user.ConfirmedToken = ""
	user.ConfirmedAt = &now
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return false, err
	}

	return true, nil
}

// API keys

const apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

func (s *service) GenerateAPIKey(ctx context.Context, userID int64) (string, error) {
	for attempt := 0; attempt < apiKeyAttempts; attempt++ {
		key, err := randomString(apiKeyAlphabet, apiKeyLength)
		if err != nil {
			return "", err
		}

		available, err := s.repo.IsAPIKeyAvailable(ctx, key)
		if err != nil {
			return "", err
		}
		if !available {
			continue
		}

		if err := s.repo.SetAPIKey(ctx, userID, key); err != nil {
			return "", err
		}
		return key, nil
	}

	return "", ErrIDSpaceExhausted
}

func (s *service) FindUserIDByAPIKey(ctx context.Context, key string) (int64, error) {
	return s.repo.FindUserIDByAPIKey(ctx, key)
}

// Token helpers

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz1234567890"

func randomToken(length int) (string, error) {
	return randomString(tokenAlphabet, length)
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random string: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
