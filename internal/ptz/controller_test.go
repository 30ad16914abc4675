// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ptz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyronear/camctl/internal/config"
)

func TestController_UnknownCamera(t *testing.T) {
	ctrl := NewController(map[string]config.CameraConfig{}, Options{})
	ctx := context.Background()

	_, err := ctrl.Move(ctx, "nope", "Up", 5)
	assert.ErrorIs(t, err, ErrUnknownCamera)
	assert.ErrorIs(t, ctrl.Stop(ctx, "nope"), ErrUnknownCamera)
	assert.ErrorIs(t, ctrl.Zoom(ctx, "nope", 3), ErrUnknownCamera)
}

func TestController_MoveDefaultsSpeed(t *testing.T) {
	fc := newFakeCamera(t)
	cam := fc.camera()
	cam.DefaultSpeed = 7
	ctrl := NewController(map[string]config.CameraConfig{"cam1": cam, "cam0": cam}, Options{})

	assert.Equal(t, []string{"cam0", "cam1"}, ctrl.Cameras())

	speed, err := ctrl.Move(context.Background(), "cam1", "Up", 0)
	require.NoError(t, err)
	assert.Equal(t, 7, speed)

	param := fc.last(t).Body[0]["param"].(map[string]any)
	assert.Equal(t, float64(7), param["speed"])
}

func TestController_BreakersArePerCamera(t *testing.T) {
	ctrl := NewController(map[string]config.CameraConfig{
		"a": {IP: "127.0.0.1:1"},
		"b": {IP: "127.0.0.1:1"},
	}, Options{})

	a, err := ctrl.Client("a")
	require.NoError(t, err)
	b, err := ctrl.Client("b")
	require.NoError(t, err)
	assert.NotSame(t, a.breaker, b.breaker)
}

func TestController_BreakerStatesStartClosed(t *testing.T) {
	ctrl := NewController(map[string]config.CameraConfig{"a": {IP: "127.0.0.1:1"}}, Options{})
	assert.Equal(t, map[string]string{"a": "closed"}, ctrl.BreakerStates())
}
