// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pyronear/camctl/internal/config"
	"github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/metrics"
	"github.com/pyronear/camctl/internal/platform/httpx"
)

const (
	detailNoSelection = "No Pi selected. Use /select_pi/{pi_name} first."
	detailUnreachable = "Could not reach the selected Raspberry Pi"
	detailInvalidPi   = "Invalid or missing IP for this Pi"

	maxForwardBody = 1 << 20
)

// HandlerOptions tunes NewHandler.
type HandlerOptions struct {
	TargetPort int
	Client     *http.Client
	Timeout    time.Duration
}

type handler struct {
	store  *Store
	port   int
	client *http.Client
}

// NewHandler returns the relay router: selection, mapping updates, and a
// catch-all POST forwarder to the selected Pi.
func NewHandler(store *Store, opts HandlerOptions) http.Handler {
	if opts.TargetPort == 0 {
		opts.TargetPort = config.DefaultRelayTargetPort
	}
	if opts.Client == nil {
		opts.Client = httpx.NewClient(httpx.Options{Timeout: opts.Timeout, Traced: true})
	}
	h := &handler{store: store, port: opts.TargetPort, client: opts.Client}

	r := chi.NewRouter()
	r.Post("/select_pi/{pi_name}", h.selectPi)
	r.Post("/update_pi/{pi_name}/{ip}", h.updatePi)
	r.Post("/*", h.forward)
	return r
}

func (h *handler) selectPi(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "pi_name")
	ip, err := h.store.Select(name)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, detailInvalidPi)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Selected Pi: %s (%s)", name, ip),
	})
}

func (h *handler) updatePi(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "pi_name")
	ip := chi.URLParam(r, "ip")
	if err := h.store.Update(name, ip); err != nil {
		if errors.Is(err, ErrInvalidIP) {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		log.FromContext(r.Context()).Error().Err(err).Str(log.FieldPiName, name).Msg("persist pi mapping")
		writeDetail(w, http.StatusInternalServerError, "Could not save Pi mapping")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Updated %s to %s", name, ip),
	})
}

func (h *handler) forward(w http.ResponseWriter, r *http.Request) {
	name, ip, err := h.store.Selected()
	switch {
	case errors.Is(err, ErrNoSelection):
		metrics.IncRelayForward("no_selection")
		writeDetail(w, http.StatusBadRequest, detailNoSelection)
		return
	case err != nil:
		metrics.IncRelayForward("no_selection")
		writeDetail(w, http.StatusBadRequest, detailInvalidPi)
		return
	}

	target := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(ip, strconv.Itoa(h.port)),
		Path:     "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/"),
		RawQuery: r.URL.RawQuery,
	}
	logger := log.FromContext(r.Context()).With().Str(log.FieldPiName, name).Str("target", target.String()).Logger()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, target.String(), io.LimitReader(r.Body, maxForwardBody))
	if err != nil {
		metrics.IncRelayForward("unreachable")
		writeDetail(w, http.StatusInternalServerError, detailUnreachable)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if id := log.RequestIDFromContext(r.Context()); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		metrics.IncRelayForward("unreachable")
		logger.Warn().Err(err).Str(log.FieldEvent, "relay.forward_failed").Msg("pi unreachable")
		writeDetail(w, http.StatusInternalServerError, detailUnreachable)
		return
	}
	defer resp.Body.Close()

	metrics.IncRelayForward("ok")
	logger.Debug().Str(log.FieldEvent, "relay.forwarded").Int(log.FieldStatus, resp.StatusCode).Msg("command forwarded")

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
