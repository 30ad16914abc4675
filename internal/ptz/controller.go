// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ptz

import (
	"context"
	"sort"

	"github.com/pyronear/camctl/internal/config"
)

// Controller routes commands to the client of each configured camera.
type Controller struct {
	clients map[string]*Client
}

// NewController builds one client per camera. opts is applied to every client
// except Breaker, which is always per camera.
func NewController(cameras map[string]config.CameraConfig, opts Options) *Controller {
	clients := make(map[string]*Client, len(cameras))
	for id, cam := range cameras {
		o := opts
		o.Breaker = nil
		clients[id] = NewClient(id, cam, o)
	}
	return &Controller{clients: clients}
}

// Client returns the client for id.
func (c *Controller) Client(id string) (*Client, error) {
	cl, ok := c.clients[id]
	if !ok {
		return nil, ErrUnknownCamera
	}
	return cl, nil
}

// Cameras returns the configured camera ids, sorted.
func (c *Controller) Cameras() []string {
	ids := make([]string, 0, len(c.clients))
	for id := range c.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Move moves camera id. A speed of 0 selects the camera's default speed.
// It returns the speed actually sent.
func (c *Controller) Move(ctx context.Context, id, op string, speed int) (int, error) {
	cl, err := c.Client(id)
	if err != nil {
		return 0, err
	}
	if speed == 0 {
		speed = cl.DefaultSpeed()
	}
	return speed, cl.Move(ctx, op, speed)
}

// Stop halts camera id.
func (c *Controller) Stop(ctx context.Context, id string) error {
	cl, err := c.Client(id)
	if err != nil {
		return err
	}
	return cl.Stop(ctx)
}

// Zoom sets the zoom of camera id.
func (c *Controller) Zoom(ctx context.Context, id string, pos int) error {
	cl, err := c.Client(id)
	if err != nil {
		return err
	}
	return cl.Zoom(ctx, pos)
}

// BreakerStates returns each camera's circuit breaker state.
func (c *Controller) BreakerStates() map[string]string {
	out := make(map[string]string, len(c.clients))
	for id, cl := range c.clients {
		out[id] = string(cl.breaker.State())
	}
	return out
}
