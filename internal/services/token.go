package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/metrics"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/models"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/token"
)

// PrincipalProvider resolves principals. Satisfied by *store.Store.
type PrincipalProvider interface {
	GetPrincipal(id string) (*models.Principal, error)
}

// SessionProvider signs session material for a consumed device code.
// Satisfied by *token.LocalProvider.
type SessionProvider interface {
	GenerateToken(ctx context.Context, principalID, clientID string) (*token.Result, error)
	GenerateRefreshToken(ctx context.Context, principalID, clientID string) (*token.Result, error)
}

// SessionGrant is the session material handed to the polling client once
// its device code is consumed.
type SessionGrant struct {
	AccessToken  *token.Result
	RefreshToken *token.Result
	Principal    *models.Principal
}

// TokenService composes the poll governor, the device state machine and the
// session provider into the poll/redeem operation.
type TokenService struct {
	deviceService *DeviceService
	governor      *PollGovernor
	principals    PrincipalProvider
	sessions      SessionProvider
	metrics       metrics.Recorder
}

func NewTokenService(
	ds *DeviceService,
	governor *PollGovernor,
	principals PrincipalProvider,
	sessions SessionProvider,
	m metrics.Recorder,
) *TokenService {
	return &TokenService{
		deviceService: ds,
		governor:      governor,
		principals:    principals,
		sessions:      sessions,
		metrics:       m,
	}
}

// ExchangeDeviceCode is one poll of the token endpoint. Check order is
// fixed: rate governance first (independent of state), then existence,
// then client binding, then status dispatch. A consumed or never-existed
// code is indistinguishable from an expired one.
func (s *TokenService) ExchangeDeviceCode(
	ctx context.Context,
	deviceCode, clientID string,
) (*SessionGrant, error) {
	tooFast, err := s.governor.TooFast(ctx, deviceCode)
	if err != nil {
		return nil, err
	}
	if tooFast {
		s.metrics.RecordDevicePoll("slow_down")
		return nil, ErrSlowDown
	}

	auth, err := s.deviceService.Status(ctx, deviceCode)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			s.metrics.RecordDevicePoll("expired")
			return nil, ErrExpiredToken
		}
		return nil, err
	}

	if auth.ClientID != clientID {
		s.metrics.RecordDevicePoll("invalid_client")
		return nil, ErrInvalidClient
	}

	switch auth.Status {
	case models.StatusPending:
		s.metrics.RecordDevicePoll("pending")
		return nil, ErrAuthorizationPending
	case models.StatusDenied:
		s.metrics.RecordDevicePoll("denied")
		return nil, ErrAccessDenied
	case models.StatusExpired, models.StatusConsumed:
		s.metrics.RecordDevicePoll("expired")
		return nil, ErrExpiredToken
	case models.StatusAuthorized:
		// fall through to consumption
	default:
		return nil, fmt.Errorf("unexpected authorization status %s", auth.Status)
	}

	principalID, err := s.deviceService.Consume(ctx, deviceCode)
	if err != nil {
		// Losing the consume race looks exactly like an expired code.
		if errors.Is(err, ErrCodeNotFound) ||
			errors.Is(err, ErrCodeExpired) ||
			errors.Is(err, ErrAlreadyFinalized) {
			s.metrics.RecordDevicePoll("expired")
			return nil, ErrExpiredToken
		}
		return nil, err
	}

	// The code is burned from here on. A missing or deactivated principal
	// is not a reason to allow a retry.
	if err := s.governor.Clear(ctx, deviceCode); err != nil {
		log.Printf("[Token] failed to clear poll record: %v", err)
	}

	principal, err := s.principals.GetPrincipal(principalID)
	if err != nil || !principal.IsActive {
		s.metrics.RecordDevicePoll("denied")
		return nil, ErrAccessDenied
	}

	start := time.Now()
	access, err := s.sessions.GenerateToken(ctx, principal.ID, clientID)
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}
	s.metrics.RecordTokenIssued("access", time.Since(start))

	start = time.Now()
	refresh, err := s.sessions.GenerateRefreshToken(ctx, principal.ID, clientID)
	if err != nil {
		return nil, fmt.Errorf("refresh token generation failed: %w", err)
	}
	s.metrics.RecordTokenIssued("refresh", time.Since(start))

	s.metrics.RecordDevicePoll("success")
	return &SessionGrant{
		AccessToken:  access,
		RefreshToken: refresh,
		Principal:    principal,
	}, nil
}
