// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package relay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "pi_servers.json"))
	require.NoError(t, s.Load())
	assert.Empty(t, s.Names())
}

func TestStore_LoadMalformedFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_servers.json")
	writeFile(t, path, "{not json")
	s := NewStore(path)
	require.NoError(t, s.Load())
	assert.Empty(t, s.Names())
}

func TestStore_NullIPIsNotProvisioned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_servers.json")
	writeFile(t, path, `{"pi-north": "10.0.0.2", "pi-south": null}`)
	s := NewStore(path)
	require.NoError(t, s.Load())

	assert.Equal(t, []string{"pi-north", "pi-south"}, s.Names())

	ip, ok := s.Lookup("pi-north")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.2", ip)

	_, ok = s.Lookup("pi-south")
	assert.False(t, ok)

	_, err := s.Select("pi-south")
	assert.ErrorIs(t, err, ErrInvalidPi)
	_, err = s.Select("pi-west")
	assert.ErrorIs(t, err, ErrInvalidPi)
}

func TestStore_SelectAndSelected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_servers.json")
	writeFile(t, path, `{"pi-north": "10.0.0.2"}`)
	s := NewStore(path)
	require.NoError(t, s.Load())

	_, _, err := s.Selected()
	assert.ErrorIs(t, err, ErrNoSelection)

	ip, err := s.Select("pi-north")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", ip)

	name, ip, err := s.Selected()
	require.NoError(t, err)
	assert.Equal(t, "pi-north", name)
	assert.Equal(t, "10.0.0.2", ip)
}

func TestStore_UpdatePersistsWithIndent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_servers.json")
	writeFile(t, path, `{"pi-north": null}`)
	s := NewStore(path)
	require.NoError(t, s.Load())

	require.NoError(t, s.Update("pi-north", "10.0.0.9"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"pi-north\": \"10.0.0.9\"\n}", string(data))

	reloaded := NewStore(path)
	require.NoError(t, reloaded.Load())
	ip, ok := reloaded.Lookup("pi-north")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.9", ip)
}

func TestStore_UpdateRejectsBadAddress(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "pi_servers.json"))
	assert.ErrorIs(t, s.Update("pi-north", "http://10.0.0.1"), ErrInvalidIP)
	assert.ErrorIs(t, s.Update("", "10.0.0.1"), ErrInvalidIP)
}

func TestStore_ReloadKeepsTableOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_servers.json")
	writeFile(t, path, `{"pi-north": "10.0.0.2"}`)
	s := NewStore(path)
	require.NoError(t, s.Load())

	writeFile(t, path, `{"pi-north": `)
	assert.Error(t, s.Reload())

	ip, ok := s.Lookup("pi-north")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.2", ip)
}

func TestStore_WatchPicksUpExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi_servers.json")
	writeFile(t, path, `{"pi-north": "10.0.0.2"}`)
	s := NewStore(path)
	s.debounce = 10 * time.Millisecond
	require.NoError(t, s.Load())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// the watcher registers asynchronously; keep editing until it is seen
	require.Eventually(t, func() bool {
		writeFile(t, path, `{"pi-north": "10.0.0.2", "pi-east": "10.0.0.3"}`)
		_, ok := s.Lookup("pi-east")
		return ok
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
