package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/cache"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/metrics"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/models"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/token"

	"github.com/stretchr/testify/require"
)

// testClock is a mutable time source shared by the services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeClients struct {
	clients map[string]*models.Client
}

func (f *fakeClients) GetClient(clientID string) (*models.Client, error) {
	client, ok := f.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %s not found", clientID)
	}
	return client, nil
}

type fakePrincipals struct {
	principals map[string]*models.Principal
}

func (f *fakePrincipals) GetPrincipal(id string) (*models.Principal, error) {
	principal, ok := f.principals[id]
	if !ok {
		return nil, fmt.Errorf("principal %s not found", id)
	}
	return principal, nil
}

type fakeSessions struct{}

func (f *fakeSessions) GenerateToken(ctx context.Context, principalID, clientID string) (*token.Result, error) {
	return &token.Result{
		TokenString: "access-" + principalID,
		TokenType:   token.TokenTypeBearer,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeSessions) GenerateRefreshToken(ctx context.Context, principalID, clientID string) (*token.Result, error) {
	return &token.Result{
		TokenString: "refresh-" + principalID,
		TokenType:   token.TokenTypeBearer,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}, nil
}

func testServiceConfig() *config.Config {
	return &config.Config{
		BaseURL:                 "http://localhost:8080",
		DeviceCodeExpiration:    10 * time.Minute,
		PollInterval:            5 * time.Second,
		DownloadTokenExpiration: time.Hour,
		ResetTokenExpiration:    30 * time.Minute,
	}
}

type deviceFixture struct {
	service    *DeviceService
	governor   *PollGovernor
	clock      *testClock
	clients    *fakeClients
	principals *fakePrincipals
}

func newDeviceFixture(t *testing.T) *deviceFixture {
	t.Helper()

	clock := newTestClock()
	clients := &fakeClients{clients: map[string]*models.Client{
		"plugin-a": {ClientID: "plugin-a", ClientName: "Editing Plugin", IsActive: true},
		"plugin-b": {ClientID: "plugin-b", ClientName: "Other Plugin", IsActive: true},
		"retired":  {ClientID: "retired", ClientName: "Retired Plugin", IsActive: false},
	}}
	principals := &fakePrincipals{principals: map[string]*models.Principal{
		"u1": {ID: "u1", Email: "u1@example.com", IsActive: true},
		"u2": {ID: "u2", Email: "u2@example.com", IsActive: false},
	}}

	cfg := testServiceConfig()
	service := NewDeviceService(
		cache.NewMemoryCache[models.DeviceAuthorization](),
		cache.NewMemoryCache[string](),
		clients,
		cfg,
		metrics.NewNoopMetrics(),
	).WithClock(clock.Now)

	governor := NewPollGovernor(cache.NewMemoryCache[int64](), cfg, metrics.NewNoopMetrics()).WithClock(clock.Now)

	return &deviceFixture{
		service:    service,
		governor:   governor,
		clock:      clock,
		clients:    clients,
		principals: principals,
	}
}

func (f *deviceFixture) tokenService() *TokenService {
	return NewTokenService(f.service, f.governor, f.principals, &fakeSessions{}, metrics.NewNoopMetrics())
}

// freshTokenService builds a token service over its own poll governor, for
// tests where shared rate limiting would mask the behavior under test.
func (f *deviceFixture) freshTokenService() *TokenService {
	g := NewPollGovernor(cache.NewMemoryCache[int64](), testServiceConfig(), metrics.NewNoopMetrics()).WithClock(f.clock.Now)
	return NewTokenService(f.service, g, f.principals, &fakeSessions{}, metrics.NewNoopMetrics())
}

// issueAuthorized runs issue+authorize and returns the authorization.
func (f *deviceFixture) issueAuthorized(t *testing.T, clientID, principalID string) *models.DeviceAuthorization {
	t.Helper()

	auth, err := f.service.Issue(context.Background(), clientID)
	require.NoError(t, err)
	require.NoError(t, f.service.Authorize(context.Background(), auth.UserCode, principalID))
	return auth
}
