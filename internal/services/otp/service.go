// Package otp issues and verifies one-time codes for signup and password
// reset flows.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

// Verification failure modes surfaced to handlers.
var (
	ErrChallengeNotFound = errors.New("no active code for this address")
	ErrCodeMismatch      = errors.New("incorrect code")
	ErrCodeExpired       = errors.New("code has expired")
	ErrTooManyAttempts   = errors.New("too many incorrect attempts")
	ErrCooldownActive    = errors.New("a code was sent recently, wait before resending")
)

const codeLength = 6

// Sender delivers a plaintext code to an email address. Implementations are
// mail transports; tests use a recorder.
type Sender interface {
	SendCode(ctx context.Context, email, code, purpose string) error
}

// Service implements interfaces.OTPService.
type Service struct {
	store          interfaces.OTPStore
	sender         Sender
	logger         *common.Logger
	codeExpiry     time.Duration
	resendCooldown time.Duration
	maxAttempts    int

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates the OTP service from config.
func NewService(store interfaces.OTPStore, sender Sender, config *common.OTPConfig, logger *common.Logger) *Service {
	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Service{
		store:          store,
		sender:         sender,
		logger:         logger,
		codeExpiry:     config.GetCodeExpiry(),
		resendCooldown: config.GetResendCooldown(),
		maxAttempts:    maxAttempts,
		now:            time.Now,
	}
}

// generateCode returns a random numeric code of codeLength digits.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}

// Issue creates a fresh challenge for an email and purpose and delivers the
// code. Any previous challenge for the pair is superseded.
func (s *Service) Issue(ctx context.Context, email, purpose string) (*models.OTPChallenge, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash code: %w", err)
	}

	now := s.now()
	challenge := &models.OTPChallenge{
		ChallengeID: uuid.New().String(),
		Email:       email,
		CodeHash:    string(hash),
		Purpose:     purpose,
		ExpiresAt:   now.Add(s.codeExpiry),
		LastSentAt:  now,
		CreatedAt:   now,
	}

	if err := s.store.SaveChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to save challenge: %w", err)
	}

	if err := s.sender.SendCode(ctx, email, code, purpose); err != nil {
		return nil, fmt.Errorf("failed to send code: %w", err)
	}

	s.logger.Debug().Str("email", email).Str("purpose", purpose).Msg("one-time code issued")
	return challenge, nil
}

// Verify checks a submitted code against the active challenge. The attempt
// count is persisted before the comparison result is returned, so retries
// against a stale read do not reset the limit.
func (s *Service) Verify(ctx context.Context, email, purpose, code string) error {
	challenge, err := s.store.GetActiveChallenge(ctx, email, purpose)
	if err != nil {
		return ErrChallengeNotFound
	}

	if challenge.Expired(s.now()) {
		return ErrCodeExpired
	}
	if challenge.Attempts >= s.maxAttempts {
		return ErrTooManyAttempts
	}

	challenge.Attempts++
	if err := s.store.SaveChallenge(ctx, challenge); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)) != nil {
		if challenge.Attempts >= s.maxAttempts {
			return ErrTooManyAttempts
		}
		return ErrCodeMismatch
	}

	challenge.Used = true
	if err := s.store.SaveChallenge(ctx, challenge); err != nil {
		return fmt.Errorf("failed to mark challenge used: %w", err)
	}

	s.logger.Debug().Str("email", email).Str("purpose", purpose).Msg("one-time code verified")
	return nil
}

// Resend re-issues the code for an active challenge, rejecting requests
// inside the cooldown window. A missing challenge gets a fresh issue so the
// user is never stuck.
func (s *Service) Resend(ctx context.Context, email, purpose string) (*models.OTPChallenge, error) {
	challenge, err := s.store.GetActiveChallenge(ctx, email, purpose)
	if err != nil {
		return s.Issue(ctx, email, purpose)
	}

	if s.now().Sub(challenge.LastSentAt) < s.resendCooldown {
		return nil, ErrCooldownActive
	}

	return s.Issue(ctx, email, purpose)
}

// Compile-time check
var _ interfaces.OTPService = (*Service)(nil)
