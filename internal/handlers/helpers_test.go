package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/cache"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/guard"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/metrics"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/middleware"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/models"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/services"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testPrincipalHeader = "X-Test-Principal"

// testClock is a mutable time source shared by the services behind the
// handlers under test.
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

func (f *fakePrincipals) GetPrincipalByEmail(email string) (*models.Principal, error) {
	for _, p := range f.principals {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, fmt.Errorf("principal with email %s not found", email)
}

func (f *fakePrincipals) UpdatePassword(principalID, newPassword string) error {
	if _, ok := f.principals[principalID]; !ok {
		return fmt.Errorf("principal %s not found", principalID)
	}
	return nil
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

// fakeNotifier captures the reset links the service hands it.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	links []string
	err   error
}

func (f *fakeNotifier) SendPasswordReset(ctx context.Context, email, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	f.links = append(f.links, link)
	return nil
}

func (f *fakeNotifier) lastLink(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.links)
	return f.links[len(f.links)-1]
}

type handlerEnv struct {
	router     *gin.Engine
	clock      *testClock
	config     *config.Config
	device     *services.DeviceService
	principals *fakePrincipals
	notifier   *fakeNotifier
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := newTestClock()
	cfg := &config.Config{
		BaseURL:                 "http://localhost:8080",
		DeviceCodeExpiration:    10 * time.Minute,
		PollInterval:            5 * time.Second,
		DownloadTokenExpiration: time.Hour,
		ResetTokenExpiration:    30 * time.Minute,
		JWTExpiration:           time.Hour,
	}

	clients := &fakeClients{clients: map[string]*models.Client{
		"plugin-a": {ClientID: "plugin-a", ClientName: "Editing Plugin", IsActive: true},
		"retired":  {ClientID: "retired", ClientName: "Retired Plugin", IsActive: false},
	}}
	principals := &fakePrincipals{principals: map[string]*models.Principal{
		"u1": {ID: "u1", Email: "u1@example.com", IsActive: true},
		"u2": {ID: "u2", Email: "u2@example.com", IsActive: false},
	}}

	noop := metrics.NewNoopMetrics()
	deviceService := services.NewDeviceService(
		cache.NewMemoryCache[models.DeviceAuthorization](),
		cache.NewMemoryCache[string](),
		clients,
		cfg,
		noop,
	).WithClock(clock.Now)
	governor := services.NewPollGovernor(cache.NewMemoryCache[int64](), cfg, noop).WithClock(clock.Now)
	tokenService := services.NewTokenService(deviceService, governor, principals, &fakeSessions{}, noop)

	downloadGuard := guard.New(cache.NewMemoryCache[guard.Record[services.ArchiveClaim]]()).WithClock(clock.Now)
	downloadService := services.NewDownloadService(downloadGuard, cfg, noop)

	resetGuard := guard.New(cache.NewMemoryCache[guard.Record[services.ResetClaim]]()).WithClock(clock.Now)
	notifier := &fakeNotifier{}
	resetService := services.NewResetService(resetGuard, principals, notifier, cfg, noop)

	dh := NewDeviceHandler(deviceService, cfg)
	th := NewTokenHandler(tokenService, cfg)
	dlh := NewDownloadHandler(downloadService)
	rh := NewResetHandler(resetService)

	r := gin.New()
	// Tests authenticate by header instead of a real bearer token; the
	// middleware itself is covered in its own package.
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader(testPrincipalHeader); id != "" {
			c.Set(middleware.ContextPrincipalID, id)
		}
	})

	r.POST("/oauth/device/code", dh.DeviceCodeRequest)
	r.POST("/oauth/device/verify", dh.DeviceVerify)
	r.POST("/oauth/device/deny", dh.DeviceDeny)
	r.GET("/oauth/device/client", dh.DeviceClientName)
	r.POST("/oauth/token", th.Token)
	r.POST("/downloads/archive", dlh.IssueArchiveToken)
	r.GET("/downloads/archive/:token", dlh.RedeemArchiveToken)
	r.POST("/password/reset/request", rh.RequestReset)
	r.POST("/password/reset/complete", rh.CompleteReset)

	return &handlerEnv{
		router:     r,
		clock:      clock,
		config:     cfg,
		device:     deviceService,
		principals: principals,
		notifier:   notifier,
	}
}

// postForm sends an x-www-form-urlencoded POST and returns the recorder.
func (e *handlerEnv) postForm(t *testing.T, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequestWithContext(
		context.Background(),
		http.MethodPost,
		path,
		strings.NewReader(form.Encode()),
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// postJSON sends a JSON POST and returns the recorder.
func (e *handlerEnv) postJSON(t *testing.T, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequestWithContext(
		context.Background(),
		http.MethodPost,
		path,
		strings.NewReader(string(encoded)),
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// get sends a GET request, optionally with a custom User-Agent so
// fingerprint tests can vary the requester identity.
func (e *handlerEnv) get(t *testing.T, path, userAgent string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, path, nil)
	require.NoError(t, err)
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the JSON response body.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal(body, &data))
	return data
}

// issuePair starts a device flow for plugin-a and returns the code pair.
func (e *handlerEnv) issuePair(t *testing.T) (deviceCode, userCode string) {
	t.Helper()
	w := e.postForm(t, "/oauth/device/code", url.Values{"client_id": {"plugin-a"}}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)
	return data["device_code"].(string), data["user_code"].(string)
}
