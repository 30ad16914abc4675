// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ptz

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyronear/camctl/internal/config"
	"github.com/pyronear/camctl/internal/resilience"
)

type recorded struct {
	Query url.Values
	Body  []map[string]any
}

type fakeCamera struct {
	srv   *httptest.Server
	mu    sync.Mutex
	calls []recorded
	reply func(w http.ResponseWriter)
}

func newFakeCamera(t *testing.T) *fakeCamera {
	t.Helper()
	fc := &fakeCamera{
		reply: func(w http.ResponseWriter) {
			_, _ = io.WriteString(w, `[{"cmd":"PtzCtrl","code":0,"value":{"rspCode":200}}]`)
		},
	}
	fc.srv = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fc.mu.Lock()
		fc.calls = append(fc.calls, recorded{Query: r.URL.Query(), Body: body})
		reply := fc.reply
		fc.mu.Unlock()
		reply(w)
	}))
	t.Cleanup(fc.srv.Close)
	return fc
}

func (fc *fakeCamera) camera() config.CameraConfig {
	u, _ := url.Parse(fc.srv.URL)
	return config.CameraConfig{
		IP:       u.Host,
		Username: "admin",
		Password: "s3cret",
		Protocol: "https",
	}
}

func (fc *fakeCamera) last(t *testing.T) recorded {
	t.Helper()
	fc.mu.Lock()
	defer fc.mu.Unlock()
	require.NotEmpty(t, fc.calls)
	return fc.calls[len(fc.calls)-1]
}

func TestClient_MoveSendsPtzCtrl(t *testing.T) {
	fc := newFakeCamera(t)
	c := NewClient("cam1", fc.camera(), Options{})

	require.NoError(t, c.Move(context.Background(), "Left", 12))

	call := fc.last(t)
	assert.Equal(t, "PtzCtrl", call.Query.Get("cmd"))
	assert.Equal(t, "admin", call.Query.Get("user"))
	assert.Equal(t, "s3cret", call.Query.Get("password"))
	assert.Equal(t, "0", call.Query.Get("channel"))

	want := []map[string]any{{
		"cmd":    "PtzCtrl",
		"action": float64(0),
		"param":  map[string]any{"channel": float64(0), "op": "Left", "speed": float64(12)},
	}}
	if diff := cmp.Diff(want, call.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_StopUsesDefaultSpeed(t *testing.T) {
	fc := newFakeCamera(t)
	c := NewClient("cam1", fc.camera(), Options{})

	require.NoError(t, c.Stop(context.Background()))

	param := fc.last(t).Body[0]["param"].(map[string]any)
	assert.Equal(t, "Stop", param["op"])
	assert.Equal(t, float64(config.DefaultCameraSpeed), param["speed"])
}

func TestClient_ZoomSendsZoomFocus(t *testing.T) {
	fc := newFakeCamera(t)
	c := NewClient("cam1", fc.camera(), Options{})

	require.NoError(t, c.Zoom(context.Background(), 32))

	call := fc.last(t)
	assert.Equal(t, "StartZoomFocus", call.Query.Get("cmd"))
	want := map[string]any{
		"ZoomFocus": map[string]any{"channel": float64(0), "pos": float64(32), "op": "ZoomPos"},
	}
	if diff := cmp.Diff(want, call.Body[0]["param"]); diff != "" {
		t.Errorf("param mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_ArgumentValidation(t *testing.T) {
	fc := newFakeCamera(t)
	c := NewClient("cam1", fc.camera(), Options{})
	ctx := context.Background()

	assert.ErrorIs(t, c.Zoom(ctx, -1), ErrInvalidArgument)
	assert.ErrorIs(t, c.Zoom(ctx, 65), ErrInvalidArgument)
	assert.ErrorIs(t, c.Move(ctx, "Up", 0), ErrInvalidArgument)
	assert.ErrorIs(t, c.Move(ctx, "", 5), ErrInvalidArgument)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.Empty(t, fc.calls, "invalid commands never reach the camera")
}

func TestClient_RejectedByCamera(t *testing.T) {
	fc := newFakeCamera(t)
	fc.reply = func(w http.ResponseWriter) {
		_, _ = io.WriteString(w, `[{"cmd":"PtzCtrl","code":1,"error":{"rspCode":-4,"detail":"param error"}}]`)
	}
	c := NewClient("cam1", fc.camera(), Options{})

	err := c.Move(context.Background(), "Sideways", 5)
	require.ErrorIs(t, err, ErrRejected)

	var camErr *CameraError
	require.True(t, errors.As(err, &camErr))
	assert.Equal(t, "cam1", camErr.Camera)
	assert.Contains(t, camErr.Body, "param error")
}

func TestClient_Non200IsUnavailable(t *testing.T) {
	fc := newFakeCamera(t)
	fc.reply = func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadGateway) }
	c := NewClient("cam1", fc.camera(), Options{})

	err := c.Stop(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	var camErr *CameraError
	require.True(t, errors.As(err, &camErr))
	assert.Equal(t, http.StatusBadGateway, camErr.Status)
}

func TestClient_MalformedBody(t *testing.T) {
	fc := newFakeCamera(t)
	fc.reply = func(w http.ResponseWriter) { _, _ = io.WriteString(w, "<html>login</html>") }
	c := NewClient("cam1", fc.camera(), Options{})

	assert.ErrorIs(t, c.Stop(context.Background()), ErrBadResponse)
}

func TestClient_TransportErrorHidesCredentials(t *testing.T) {
	fc := newFakeCamera(t)
	cam := fc.camera()
	fc.srv.Close()

	c := NewClient("cam1", cam, Options{})
	err := c.Stop(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, strings.Contains(err.Error(), "s3cret"), "error leaks password: %v", err)
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	fc := newFakeCamera(t)
	fc.reply = func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) }
	breaker := resilience.NewCircuitBreaker("cam1", 2, time.Minute)
	c := NewClient("cam1", fc.camera(), Options{Breaker: breaker})
	ctx := context.Background()

	_ = c.Stop(ctx)
	_ = c.Stop(ctx)
	require.Equal(t, resilience.StateOpen, breaker.State())

	fc.mu.Lock()
	before := len(fc.calls)
	fc.mu.Unlock()

	err := c.Stop(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.Equal(t, before, len(fc.calls), "open breaker short-circuits")
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	fc := newFakeCamera(t)
	c := NewClient("cam1", fc.camera(), Options{Rate: 0.001, Burst: 1})

	require.NoError(t, c.Stop(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Stop(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}
