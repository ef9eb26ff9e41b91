package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/guard"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/metrics"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/models"
)

// ErrResetInvalid is the single answer for every failed reset token
// redemption, whatever the actual cause.
var ErrResetInvalid = errors.New("reset token is invalid or has expired")

// ResetClaim is the payload behind one password reset token.
type ResetClaim struct {
	PrincipalID string `json:"principal_id"`
}

// ResetNotifier delivers the reset link to the account owner.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// PrincipalStore is the slice of the store the reset flow needs.
// Satisfied by *store.Store.
type PrincipalStore interface {
	GetPrincipalByEmail(email string) (*models.Principal, error)
	UpdatePassword(principalID, newPassword string) error
}

// ResetService issues and redeems single-use password reset tokens. Reset
// tokens are deliberately not fingerprint-bound: the link is opened from an
// email client, usually on a different device than the one that asked.
type ResetService struct {
	guard      *guard.Guard[ResetClaim]
	principals PrincipalStore
	notifier   ResetNotifier
	config     *config.Config
	metrics    metrics.Recorder
}

func NewResetService(
	g *guard.Guard[ResetClaim],
	principals PrincipalStore,
	notifier ResetNotifier,
	cfg *config.Config,
	m metrics.Recorder,
) *ResetService {
	return &ResetService{
		guard:      g,
		principals: principals,
		notifier:   notifier,
		config:     cfg,
		metrics:    m,
	}
}

// Request issues a reset token for the account behind email and sends the
// link. An unknown or inactive address returns success without doing
// anything, so the endpoint cannot be used to enumerate accounts.
func (s *ResetService) Request(ctx context.Context, email string) error {
	principal, err := s.principals.GetPrincipalByEmail(email)
	if err != nil || !principal.IsActive {
		log.Printf("[Reset] ignoring request for unknown or inactive address")
		return nil
	}

	tok, err := s.guard.Issue(ctx, ResetClaim{PrincipalID: principal.ID}, s.config.ResetTokenExpiration, "")
	if err != nil {
		s.metrics.RecordCacheError("reset_issue")
		return fmt.Errorf("failed to issue reset token: %w", err)
	}
	s.metrics.RecordSingleUseIssued("reset")

	link := fmt.Sprintf("%s/password/reset/complete?token=%s", s.config.BaseURL, tok)
	if err := s.notifier.SendPasswordReset(ctx, principal.Email, link); err != nil {
		return fmt.Errorf("failed to send reset notification: %w", err)
	}

	return nil
}

// Complete redeems the token and rotates the password. The token is
// consumed exactly once; a second submission of the same link fails with
// ErrResetInvalid.
func (s *ResetService) Complete(ctx context.Context, tok, newPassword string) error {
	claim, err := s.guard.Redeem(ctx, tok, "")
	if err != nil {
		s.metrics.RecordSingleUseRedemption("reset", false)
		if errors.Is(err, guard.ErrTokenInvalid) {
			return ErrResetInvalid
		}
		s.metrics.RecordCacheError("reset_redeem")
		return err
	}

	if err := s.principals.UpdatePassword(claim.PrincipalID, newPassword); err != nil {
		s.metrics.RecordSingleUseRedemption("reset", false)
		// The token is already burned; the caller must request a new link.
		return ErrResetInvalid
	}

	s.metrics.RecordSingleUseRedemption("reset", true)
	return nil
}
