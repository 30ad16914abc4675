// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package relay forwards operator commands to one selected Raspberry Pi out
// of a fleet listed in a JSON mapping file.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/metrics"
	"github.com/pyronear/camctl/internal/validate"
)

var (
	ErrInvalidPi   = errors.New("invalid or missing IP for this Pi")
	ErrNoSelection = errors.New("no Pi selected")
	ErrInvalidIP   = errors.New("invalid Pi address")
)

const defaultDebounce = 250 * time.Millisecond

// Store is the name to IP table plus the current selection. A Pi mapped to
// null (or an empty string) is listed but not provisioned.
type Store struct {
	path     string
	debounce time.Duration
	logger   zerolog.Logger

	mu       sync.RWMutex
	pis      map[string]*string
	selected string
}

// NewStore returns an empty store backed by path. Call Load to read it.
func NewStore(path string) *Store {
	return &Store{
		path:     path,
		debounce: defaultDebounce,
		logger:   log.WithComponent("relay"),
		pis:      map[string]*string{},
	}
}

// Path returns the mapping file path.
func (s *Store) Path() string { return s.path }

// Load reads the mapping file. A missing or malformed file yields an empty
// table; only unexpected I/O errors are returned.
func (s *Store) Load() error {
	pis, err := readMapping(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info().Str(log.FieldEvent, "relay.mapping_missing").Str("path", s.path).Msg("mapping file not found, starting empty")
		pis = map[string]*string{}
	case errors.As(err, new(*json.SyntaxError)), errors.As(err, new(*json.UnmarshalTypeError)):
		s.logger.Warn().Err(err).Str(log.FieldEvent, "relay.mapping_malformed").Str("path", s.path).Msg("mapping file malformed, starting empty")
		pis = map[string]*string{}
	case err != nil:
		return err
	}

	s.mu.Lock()
	s.pis = pis
	s.mu.Unlock()
	return nil
}

// Reload re-reads the mapping file, keeping the current table when the file
// cannot be parsed.
func (s *Store) Reload() error {
	pis, err := readMapping(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		pis, err = map[string]*string{}, nil
	}
	metrics.IncRelayStoreReload(err == nil)
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldEvent, "relay.reload_failed").Msg("mapping reload failed, keeping previous table")
		return err
	}

	s.mu.Lock()
	s.pis = pis
	s.mu.Unlock()
	s.logger.Info().Str(log.FieldEvent, "relay.reloaded").Int("pis", len(pis)).Msg("mapping reloaded")
	return nil
}

func readMapping(path string) (map[string]*string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-provided path
	if err != nil {
		return nil, err
	}
	pis := map[string]*string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return pis, nil
	}
	if err := json.Unmarshal(data, &pis); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return pis, nil
}

// Lookup returns the IP of name if it is provisioned.
func (s *Store) Lookup(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(name)
}

func (s *Store) lookupLocked(name string) (string, bool) {
	ip, ok := s.pis[name]
	if !ok || ip == nil || *ip == "" {
		return "", false
	}
	return *ip, true
}

// Names returns all listed Pis, provisioned or not, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.pis))
	for n := range s.pis {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Select makes name the forwarding target.
func (s *Store) Select(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ip, ok := s.lookupLocked(name)
	if !ok {
		return "", ErrInvalidPi
	}
	s.selected = name
	s.logger.Info().Str(log.FieldEvent, "relay.selected").Str(log.FieldPiName, name).Str("ip", ip).Msg("pi selected")
	return ip, nil
}

// Selected resolves the current selection against the live table.
func (s *Store) Selected() (name, ip string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == "" {
		return "", "", ErrNoSelection
	}
	ip, ok := s.lookupLocked(s.selected)
	if !ok {
		return s.selected, "", ErrInvalidPi
	}
	return s.selected, ip, nil
}

// Update maps name to ip and persists the table.
func (s *Store) Update(name, ip string) error {
	v := validate.New()
	v.NotEmpty("pi_name", name)
	v.Host("ip", ip)
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIP, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*string, len(s.pis)+1)
	for k, v := range s.pis {
		next[k] = v
	}
	addr := ip
	next[name] = &addr

	if err := writeMapping(s.path, next); err != nil {
		return err
	}
	s.pis = next
	s.logger.Info().Str(log.FieldEvent, "relay.updated").Str(log.FieldPiName, name).Str("ip", ip).Msg("pi mapping updated")
	return nil
}

func writeMapping(path string, pis map[string]*string) error {
	data, err := json.MarshalIndent(pis, "", "    ")
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

// Watch reloads the table when the mapping file changes on disk. The
// directory is watched since atomic replaces swap the file's inode. It
// blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	s.logger.Info().Str(log.FieldEvent, "relay.watcher_started").Str("path", s.path).Msg("watching mapping file")

	debounce := time.NewTimer(s.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Str(log.FieldEvent, "relay.watcher_stopped").Msg("mapping watcher stopped")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				debounce.Reset(s.debounce)
			}
		case <-debounce.C:
			_ = s.Reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error().Err(err).Str(log.FieldEvent, "relay.watcher_error").Msg("mapping watcher error")
		}
	}
}
