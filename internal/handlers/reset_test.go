package handlers

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetTokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	tok := u.Query().Get("token")
	require.NotEmpty(t, tok)
	return tok
}

func TestRequestReset(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.postJSON(t, "/password/reset/request", map[string]string{
		"email": "u1@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	link := env.notifier.lastLink(t)
	assert.Contains(t, link, "http://localhost:8080/password/reset/complete?token=")
}

func TestRequestReset_UnknownEmailLooksIdentical(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.postJSON(t, "/password/reset/request", map[string]string{
		"email": "nobody@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	known := env.postJSON(t, "/password/reset/request", map[string]string{
		"email": "u1@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, known.Code)

	// Same status, same body; only the notifier knows the difference.
	assert.Equal(t, w.Body.String(), known.Body.String())
	assert.Equal(t, []string{"u1@example.com"}, env.notifier.sent)
}

func TestRequestReset_MissingEmail(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.postJSON(t, "/password/reset/request", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteReset(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.postJSON(t, "/password/reset/request", map[string]string{
		"email": "u1@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	tok := resetTokenFromLink(t, env.notifier.lastLink(t))
	w = env.postJSON(t, "/password/reset/complete", map[string]string{
		"token":        tok,
		"new_password": "correct-horse-battery",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}

func TestCompleteReset_TokenSingleUse(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.postJSON(t, "/password/reset/request", map[string]string{
		"email": "u1@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	tok := resetTokenFromLink(t, env.notifier.lastLink(t))
	body := map[string]string{"token": tok, "new_password": "correct-horse-battery"}

	w = env.postJSON(t, "/password/reset/complete", body, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.postJSON(t, "/password/reset/complete", body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_token", decode(t, w)["error"])
}

func TestCompleteReset_ExpiredToken(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.postJSON(t, "/password/reset/request", map[string]string{
		"email": "u1@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	tok := resetTokenFromLink(t, env.notifier.lastLink(t))
	env.clock.Advance(31 * time.Minute)

	w = env.postJSON(t, "/password/reset/complete", map[string]string{
		"token":        tok,
		"new_password": "correct-horse-battery",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_token", decode(t, w)["error"])
}

func TestCompleteReset_UnknownToken(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.postJSON(t, "/password/reset/complete", map[string]string{
		"token":        "never-issued",
		"new_password": "correct-horse-battery",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_token", decode(t, w)["error"])
}

func TestCompleteReset_ShortPassword(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.postJSON(t, "/password/reset/complete", map[string]string{
		"token":        "whatever",
		"new_password": "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
