// services/verification_service.go
package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tote-sponsor-system/apperrors"
	"tote-sponsor-system/logger"
	"tote-sponsor-system/metrics"
	"tote-sponsor-system/models"
	"tote-sponsor-system/utils"
)

var (
	ErrSessionNotFound        = apperrors.NewNotFoundError("verification session not found")
	ErrSessionExpired         = apperrors.NewValidationError("verification code expired, request a new one")
	ErrCodeMismatch           = apperrors.NewValidationError("invalid verification code")
	ErrTooManyAttempts        = apperrors.NewTooManyRequestsError("too many failed attempts, request a new code")
	ErrSessionAlreadyVerified = apperrors.NewConflictError("verification code already used")
	ErrClaimantNotVerified    = apperrors.NewForbiddenError("claimant identity is not verified")
)

const codeDigits = 6

// CodeSender delivers a one-time code to the claimant. It is the only place the
// code exists in the clear.
type CodeSender interface {
	SendCode(ctx context.Context, kind models.IdentifierKind, normalized, code string) error
}

// LogCodeSender stands in for an SMS provider. It logs the masked destination only.
type LogCodeSender struct{}

func (LogCodeSender) SendCode(_ context.Context, kind models.IdentifierKind, normalized, _ string) error {
	logger.Info("verification code issued", "kind", kind, "to", utils.MaskIdentifier(normalized))
	return nil
}

// Claimant is a verified identity the allocator can hand a bag to.
type Claimant struct {
	UserID     string
	Identifier string
	Kind       models.IdentifierKind
}

type VerificationOptions struct {
	TTL         time.Duration
	VerifiedTTL time.Duration
	MaxAttempts int
}

type VerificationService struct {
	DB      *gorm.DB
	secret  []byte
	opts    VerificationOptions
	sender  CodeSender
	metrics metrics.Recorder
	now     func() time.Time
}

func NewVerificationService(db *gorm.DB, secret []byte, opts VerificationOptions, sender CodeSender, rec metrics.Recorder) *VerificationService {
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	if opts.VerifiedTTL <= 0 {
		opts.VerifiedTTL = 30 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if sender == nil {
		sender = LogCodeSender{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &VerificationService{DB: db, secret: secret, opts: opts, sender: sender, metrics: rec, now: time.Now}
}

// RequestChallenge opens a new session for the identifier and sends a fresh code.
// The returned code is for the sender and for development responses only.
func (s *VerificationService) RequestChallenge(ctx context.Context, userID string, kind models.IdentifierKind, identifier string) (*models.VerificationSession, string, error) {
	if !kind.IsValid() {
		return nil, "", apperrors.NewValidationError(utils.ErrUnknownKind.Error())
	}
	normalized, err := utils.NormalizeIdentifier(kind, identifier)
	if err != nil {
		return nil, "", apperrors.NewValidationError(err.Error())
	}

	code, err := generateCode()
	if err != nil {
		return nil, "", fmt.Errorf("generate code: %w", err)
	}

	session := &models.VerificationSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		IdentifierHash: utils.HashIdentifier(s.secret, kind, normalized),
		IdentifierKind: kind,
		ExpiresAt:      s.now().Add(s.opts.TTL),
	}
	session.CodeHash = s.hashCode(session.ID, code)

	if err := s.DB.WithContext(ctx).Create(session).Error; err != nil {
		return nil, "", fmt.Errorf("create verification session: %w", err)
	}

	if err := s.sender.SendCode(ctx, kind, normalized, code); err != nil {
		s.DB.WithContext(ctx).Delete(&models.VerificationSession{}, "id = ?", session.ID)
		s.metrics.RecordVerification("send_failed")
		return nil, "", apperrors.NewUpstreamError("failed to send verification code", err.Error())
	}

	s.metrics.RecordVerification("issued")
	return session, code, nil
}

// SubmitCode checks a code against the caller's session. A correct code marks
// the session verified and promotes the matching flag on the account.
func (s *VerificationService) SubmitCode(ctx context.Context, userID, sessionID, code string) (*models.VerificationSession, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrSessionNotFound
	}

	var session models.VerificationSession
	mismatch := false
	now := s.now()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", sessionID, userID).
			First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		switch {
		case session.Verified:
			return ErrSessionAlreadyVerified
		case session.IsExpired(now):
			return ErrSessionExpired
		case session.Attempts >= s.opts.MaxAttempts:
			return ErrTooManyAttempts
		}

		if !hmac.Equal([]byte(session.CodeHash), []byte(s.hashCode(session.ID, code))) {
			mismatch = true
			return tx.Model(&session).UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
		}

		verifiedAt := now
		session.Verified = true
		session.VerifiedAt = &verifiedAt
		session.ExpiresAt = now.Add(s.opts.VerifiedTTL)
		if err := tx.Model(&session).Updates(map[string]interface{}{
			"verified":    true,
			"verified_at": verifiedAt,
			"expires_at":  session.ExpiresAt,
		}).Error; err != nil {
			return err
		}

		flag := "mobile_verified"
		if session.IdentifierKind == models.IdentifierAadhaar {
			flag = "identity_verified"
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update(flag, true).Error
	})

	switch {
	case err != nil:
		s.metrics.RecordVerification(verificationOutcome(err))
		return nil, err
	case mismatch:
		s.metrics.RecordVerification("mismatch")
		return nil, ErrCodeMismatch
	}

	s.metrics.RecordVerification("verified")
	return &session, nil
}

// ResolveClaimant turns a verified session into the identity the allocator
// keys claims on. The session must belong to the caller and still be live.
func (s *VerificationService) ResolveClaimant(ctx context.Context, userID, sessionID string) (Claimant, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return Claimant{}, ErrSessionNotFound
	}

	var session models.VerificationSession
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Claimant{}, ErrSessionNotFound
		}
		return Claimant{}, err
	}

	if !session.Verified {
		return Claimant{}, ErrClaimantNotVerified
	}
	if session.IsExpired(s.now()) {
		return Claimant{}, ErrSessionExpired
	}

	return Claimant{UserID: userID, Identifier: session.IdentifierHash, Kind: session.IdentifierKind}, nil
}

// DeleteExpired removes sessions past their expiry. Used by the sweeper.
func (s *VerificationService) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&models.VerificationSession{})
	return res.RowsAffected, res.Error
}

func (s *VerificationService) hashCode(sessionID, code string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(sessionID))
	mac.Write([]byte{0})
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func verificationOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, ErrSessionExpired):
		return "expired"
	case errors.Is(err, ErrTooManyAttempts):
		return "locked"
	case errors.Is(err, ErrSessionAlreadyVerified):
		return "reused"
	}
	return "error"
}
