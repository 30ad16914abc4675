// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ptz drives the pan/tilt/zoom HTTP API of Reolink-style cameras.
package ptz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/pyronear/camctl/internal/config"
	"github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/metrics"
	"github.com/pyronear/camctl/internal/platform/httpx"
	"github.com/pyronear/camctl/internal/resilience"
	"github.com/pyronear/camctl/internal/telemetry"
)

const (
	cmdPtzCtrl   = "PtzCtrl"
	cmdZoomFocus = "StartZoomFocus"

	OpStop = "Stop"

	MinZoom  = 0
	MaxZoom  = 64
	MinSpeed = 1
	MaxSpeed = 64

	maxBodyBytes = 64 << 10
	maxErrorBody = 256
)

// Options tunes a Client. Zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	// Rate and Burst bound commands per second sent to one camera.
	Rate    rate.Limit
	Burst   int
	Breaker *resilience.CircuitBreaker
}

// Client talks to one camera.
type Client struct {
	id      string
	cam     config.CameraConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewClient builds a client for camera id.
func NewClient(id string, cam config.CameraConfig, opts Options) *Client {
	if cam.Protocol == "" {
		cam.Protocol = config.DefaultCameraProtocol
	}
	if cam.DefaultSpeed == 0 {
		cam.DefaultSpeed = config.DefaultCameraSpeed
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(httpx.Options{
			Timeout:            cam.Timeout,
			InsecureSkipVerify: !cam.VerifyTLS,
			Traced:             true,
		})
	}
	limit, burst := opts.Rate, opts.Burst
	if limit == 0 {
		limit = rate.Limit(10)
	}
	if burst <= 0 {
		burst = 5
	}
	breaker := opts.Breaker
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(id, 3, 30*time.Second)
	}

	return &Client{
		id:      id,
		cam:     cam,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
		tracer:  telemetry.Tracer("camctl/ptz"),
		logger: log.Derive(func(c *zerolog.Context) {
			*c = c.Str(log.FieldComponent, "ptz").Str(log.FieldCameraID, id)
		}),
	}
}

// ID returns the camera id.
func (c *Client) ID() string { return c.id }

// DefaultSpeed is the speed used when a move carries none.
func (c *Client) DefaultSpeed() int { return c.cam.DefaultSpeed }

// Move starts a continuous move (Up, Down, Left, Right, ...) at speed.
func (c *Client) Move(ctx context.Context, op string, speed int) error {
	if op == "" {
		return fmt.Errorf("%w: empty direction", ErrInvalidArgument)
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return fmt.Errorf("%w: speed %d out of range %d..%d", ErrInvalidArgument, speed, MinSpeed, MaxSpeed)
	}
	body := []ptzCommand{{
		Cmd:    cmdPtzCtrl,
		Action: 0,
		Param:  ptzCtrlParam{Channel: c.cam.Channel, Op: op, Speed: speed},
	}}
	return c.do(ctx, cmdPtzCtrl, op, body)
}

// Stop halts any movement.
func (c *Client) Stop(ctx context.Context) error {
	return c.Move(ctx, OpStop, c.cam.DefaultSpeed)
}

// Zoom sets the absolute zoom position.
func (c *Client) Zoom(ctx context.Context, pos int) error {
	if pos < MinZoom || pos > MaxZoom {
		return fmt.Errorf("%w: zoom level must be between %d and %d", ErrInvalidArgument, MinZoom, MaxZoom)
	}
	body := []ptzCommand{{
		Cmd:    cmdZoomFocus,
		Action: 0,
		Param:  zoomParam{ZoomFocus: zoomFocus{Channel: c.cam.Channel, Pos: pos, Op: "ZoomPos"}},
	}}
	return c.do(ctx, cmdZoomFocus, "ZoomPos", body)
}

type ptzCommand struct {
	Cmd    string `json:"cmd"`
	Action int    `json:"action"`
	Param  any    `json:"param"`
}

type ptzCtrlParam struct {
	Channel int    `json:"channel"`
	Op      string `json:"op"`
	Speed   int    `json:"speed"`
}

type zoomParam struct {
	ZoomFocus zoomFocus `json:"ZoomFocus"`
}

type zoomFocus struct {
	Channel int    `json:"channel"`
	Pos     int    `json:"pos"`
	Op      string `json:"op"`
}

type cmdResponse struct {
	Cmd   string `json:"cmd"`
	Code  int    `json:"code"`
	Error *struct {
		RspCode int    `json:"rspCode"`
		Detail  string `json:"detail"`
	} `json:"error,omitempty"`
}

func (c *Client) endpoint(cmd string) string {
	q := url.Values{}
	q.Set("cmd", cmd)
	q.Set("user", c.cam.Username)
	q.Set("password", c.cam.Password)
	q.Set("channel", strconv.Itoa(c.cam.Channel))
	u := url.URL{Scheme: c.cam.Protocol, Host: c.cam.IP, Path: "/cgi-bin/api.cgi", RawQuery: q.Encode()}
	return u.String()
}

func (c *Client) do(ctx context.Context, cmd, op string, payload any) error {
	ctx, span := c.tracer.Start(ctx, "ptz."+cmd,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.CameraAttributes(c.id, op)...))
	defer span.End()

	start := time.Now()
	err := c.limiter.Wait(ctx)
	if err == nil {
		err = c.breaker.Execute(ctx, func(ctx context.Context) error {
			return c.send(ctx, cmd, payload)
		})
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		err = &CameraError{Sentinel: ErrUnavailable, Camera: c.id, Command: cmd, Err: err}
	}

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrRejected):
		result = "rejected"
	case errors.Is(err, ErrBadResponse):
		result = "bad_response"
	default:
		result = "unavailable"
	}
	d := time.Since(start)
	metrics.ObservePTZCommand(c.id, cmd, result, d)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		c.logger.Warn().Err(err).
			Str(log.FieldEvent, "ptz.command_failed").
			Str("command", cmd).
			Str("op", op).
			Int64(log.FieldDurationMS, d.Milliseconds()).
			Msg("camera command failed")
		return err
	}
	c.logger.Debug().
		Str(log.FieldEvent, "ptz.command").
		Str("command", cmd).
		Str("op", op).
		Int64(log.FieldDurationMS, d.Milliseconds()).
		Msg("camera command sent")
	return nil
}

func (c *Client) send(ctx context.Context, cmd string, payload any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", cmd, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(cmd), bytes.NewReader(buf))
	if err != nil {
		return &CameraError{Sentinel: ErrUnavailable, Camera: c.id, Command: cmd, Err: redact(err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &CameraError{Sentinel: ErrUnavailable, Camera: c.id, Command: cmd, Err: redact(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &CameraError{Sentinel: ErrUnavailable, Camera: c.id, Command: cmd, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &CameraError{Sentinel: ErrUnavailable, Camera: c.id, Command: cmd, Status: resp.StatusCode, Body: truncate(raw)}
	}

	var out []cmdResponse
	if err := json.Unmarshal(raw, &out); err != nil || len(out) == 0 {
		return &CameraError{Sentinel: ErrBadResponse, Camera: c.id, Command: cmd, Status: resp.StatusCode, Body: truncate(raw), Err: err}
	}
	if out[0].Code != 0 {
		detail := ""
		if out[0].Error != nil {
			detail = fmt.Sprintf("%s (rspCode %d)", out[0].Error.Detail, out[0].Error.RspCode)
		}
		return &CameraError{Sentinel: ErrRejected, Camera: c.id, Command: cmd, Status: resp.StatusCode, Body: detail}
	}
	return nil
}

// redact drops the request URL (which carries credentials) from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
