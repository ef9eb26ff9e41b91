package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/cache"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/codes"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/metrics"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/models"
)

// ClientProvider resolves registered clients. Satisfied by *store.Store.
type ClientProvider interface {
	GetClient(clientID string) (*models.Client, error)
}

// DeviceService owns the lifecycle of one device-code/user-code pair:
// issue, authorize, deny, expire, consume. All state lives in the cache;
// correctness under concurrency comes from its atomic primitives, not from
// in-process locks.
type DeviceService struct {
	authorizations cache.Cache[models.DeviceAuthorization]
	userCodes      cache.Cache[string]
	clients        ClientProvider
	config         *config.Config
	metrics        metrics.Recorder
	now            func() time.Time
}

func NewDeviceService(
	authorizations cache.Cache[models.DeviceAuthorization],
	userCodes cache.Cache[string],
	clients ClientProvider,
	cfg *config.Config,
	m metrics.Recorder,
) *DeviceService {
	return &DeviceService{
		authorizations: authorizations,
		userCodes:      userCodes,
		clients:        clients,
		config:         cfg,
		metrics:        m,
		now:            time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *DeviceService) WithClock(now func() time.Time) *DeviceService {
	s.now = now
	return s
}

// Issue validates the client and creates a new pending authorization. The
// device record and the user-code mapping share the issuance TTL. Codes are
// not checked for uniqueness; the keyspace makes a collision within the
// issuance window negligible.
func (s *DeviceService) Issue(ctx context.Context, clientID string) (*models.DeviceAuthorization, error) {
	client, err := s.clients.GetClient(clientID)
	if err != nil {
		s.metrics.RecordDeviceCodeIssued(false)
		return nil, ErrInvalidClient
	}
	if !client.IsActive {
		s.metrics.RecordDeviceCodeIssued(false)
		return nil, ErrClientInactive
	}

	deviceCode, err := codes.DeviceCode()
	if err != nil {
		s.metrics.RecordDeviceCodeIssued(false)
		return nil, err
	}
	userCode, err := codes.UserCode()
	if err != nil {
		s.metrics.RecordDeviceCodeIssued(false)
		return nil, err
	}

	now := s.now()
	auth := models.DeviceAuthorization{
		DeviceCode: deviceCode,
		UserCode:   userCode,
		ClientID:   clientID,
		Status:     models.StatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.config.DeviceCodeExpiration),
	}

	if err := s.authorizations.Set(ctx, deviceCode, auth, s.config.DeviceCodeExpiration); err != nil {
		s.metrics.RecordCacheError("authorization_set")
		s.metrics.RecordDeviceCodeIssued(false)
		return nil, fmt.Errorf("failed to store authorization: %w", err)
	}
	if err := s.userCodes.Set(ctx, userCode, deviceCode, s.config.DeviceCodeExpiration); err != nil {
		s.metrics.RecordCacheError("user_code_set")
		s.metrics.RecordDeviceCodeIssued(false)
		return nil, fmt.Errorf("failed to store user code mapping: %w", err)
	}

	s.metrics.RecordDeviceCodeIssued(true)
	return &auth, nil
}

// Authorize flips a pending authorization to authorized on behalf of
// principalID. The record is rewritten with its remaining TTL, never a
// fresh one, so approval cannot extend the issuance lifetime. The user-code
// mapping is deleted immediately so the human code is one-time-enterable.
func (s *DeviceService) Authorize(ctx context.Context, userCode, principalID string) error {
	auth, err := s.lookupPending(ctx, userCode)
	if err != nil {
		s.metrics.RecordDeviceAuthorization(authorizationFailureReason(err))
		return err
	}

	auth.Status = models.StatusAuthorized
	auth.PrincipalID = principalID

	if err := s.authorizations.Set(ctx, auth.DeviceCode, *auth, auth.RemainingTTL(s.now())); err != nil {
		s.metrics.RecordCacheError("authorization_set")
		s.metrics.RecordDeviceAuthorization("error")
		return fmt.Errorf("failed to update authorization: %w", err)
	}
	if err := s.userCodes.Delete(ctx, auth.UserCode); err != nil {
		s.metrics.RecordCacheError("user_code_delete")
		return fmt.Errorf("failed to delete user code mapping: %w", err)
	}

	s.metrics.RecordDeviceAuthorization("authorized")
	return nil
}

// Deny finalizes a pending authorization as denied. The record stays in the
// cache for its remaining TTL so waiting pollers observe access_denied
// instead of a vanished code; the user-code mapping is removed like on
// authorization.
func (s *DeviceService) Deny(ctx context.Context, userCode string) error {
	auth, err := s.lookupPending(ctx, userCode)
	if err != nil {
		s.metrics.RecordDeviceAuthorization(authorizationFailureReason(err))
		return err
	}

	auth.Status = models.StatusDenied

	if err := s.authorizations.Set(ctx, auth.DeviceCode, *auth, auth.RemainingTTL(s.now())); err != nil {
		s.metrics.RecordCacheError("authorization_set")
		s.metrics.RecordDeviceAuthorization("error")
		return fmt.Errorf("failed to update authorization: %w", err)
	}
	if err := s.userCodes.Delete(ctx, auth.UserCode); err != nil {
		s.metrics.RecordCacheError("user_code_delete")
		return fmt.Errorf("failed to delete user code mapping: %w", err)
	}

	s.metrics.RecordDeviceAuthorization("denied")
	return nil
}

// lookupPending resolves a user code to its authorization and verifies it
// can still be finalized. Shape validation happens before any cache access.
func (s *DeviceService) lookupPending(ctx context.Context, userCode string) (*models.DeviceAuthorization, error) {
	userCode = codes.NormalizeUserCode(userCode)
	if !codes.ValidUserCode(userCode) {
		return nil, ErrMalformedCode
	}

	deviceCode, err := s.userCodes.Get(ctx, userCode)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrCodeNotFound
		}
		s.metrics.RecordCacheError("user_code_get")
		return nil, err
	}

	auth, err := s.authorizations.Get(ctx, deviceCode)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrCodeNotFound
		}
		s.metrics.RecordCacheError("authorization_get")
		return nil, err
	}

	if auth.ExpiredAt(s.now()) {
		return nil, ErrCodeExpired
	}
	if auth.Status.Terminal() {
		return nil, ErrAlreadyFinalized
	}

	return &auth, nil
}

// Status returns the authorization with its effective status: a record past
// its deadline reports expired even if the cache has not evicted it yet.
func (s *DeviceService) Status(ctx context.Context, deviceCode string) (*models.DeviceAuthorization, error) {
	auth, err := s.authorizations.Get(ctx, deviceCode)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrCodeNotFound
		}
		s.metrics.RecordCacheError("authorization_get")
		return nil, err
	}

	if auth.ExpiredAt(s.now()) {
		auth.Status = models.StatusExpired
	}

	return &auth, nil
}

// Consume burns an authorized device code and returns the bound principal.
// The delete is a compare-and-delete against the record we just validated,
// so when N pollers race exactly one gets the principal; the rest observe
// the record gone and report ErrCodeNotFound.
func (s *DeviceService) Consume(ctx context.Context, deviceCode string) (string, error) {
	auth, err := s.authorizations.Get(ctx, deviceCode)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return "", ErrCodeNotFound
		}
		s.metrics.RecordCacheError("authorization_get")
		return "", err
	}

	if auth.ExpiredAt(s.now()) {
		return "", ErrCodeExpired
	}
	if auth.Status != models.StatusAuthorized {
		return "", ErrAlreadyFinalized
	}

	consumed, err := s.authorizations.CompareAndDelete(ctx, deviceCode, auth)
	if err != nil {
		s.metrics.RecordCacheError("authorization_consume")
		return "", err
	}
	if !consumed {
		// Lost the race to a concurrent consumer.
		return "", ErrCodeNotFound
	}

	return auth.PrincipalID, nil
}

// ClientName resolves the display name behind a pending user code so the
// approval page can tell the human what is asking for access.
func (s *DeviceService) ClientName(ctx context.Context, userCode string) (string, error) {
	auth, err := s.lookupPending(ctx, userCode)
	if err != nil {
		return "", err
	}

	client, err := s.clients.GetClient(auth.ClientID)
	if err != nil {
		return "", ErrInvalidClient
	}

	return client.ClientName, nil
}

func authorizationFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrAlreadyFinalized):
		return "finalized"
	default:
		return "invalid"
	}
}
