package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// alternateExts are tried, in order, when the configured artifact path does not exist.
var alternateExts = []string{".yaml", ".yml", ".json"}

// ResolvePath returns preferred if it exists, otherwise the first sibling
// with an alternate extension that does.
func ResolvePath(preferred string) (string, error) {
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}
	base := strings.TrimSuffix(preferred, filepath.Ext(preferred))
	for _, ext := range alternateExts {
		alt := base + ext
		if alt == preferred {
			continue
		}
		if _, err := os.Stat(alt); err == nil {
			return alt, nil
		}
	}
	return "", fmt.Errorf("%w at %s (tried %s)", ErrModelNotFound, preferred, strings.Join(alternateExts, ", "))
}

// Load reads and validates an artifact. JSON artifacts decode through the
// same YAML decoder.
func Load(path string) (*Model, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrModelNotFound, resolved)
		}
		return nil, fmt.Errorf("read model %s: %w", resolved, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Model
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrModelInvalid, resolved, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", resolved, err)
	}
	if m.Name == "" {
		m.Name = filepath.Base(resolved)
	}
	return &m, nil
}

// Store resolves and caches one artifact per Kind.
type Store struct {
	paths  map[Kind]string
	logger *slog.Logger

	mu    sync.Mutex
	cache map[Kind]*Model
}

// NewStore creates a Store for the given artifact paths.
func NewStore(paths map[Kind]string, logger *slog.Logger) *Store {
	p := make(map[Kind]string, len(paths))
	for k, v := range paths {
		p[k] = v
	}
	return &Store{
		paths:  p,
		logger: logger,
		cache:  make(map[Kind]*Model),
	}
}

// Get returns the model for kind, loading it on first use.
// Failed loads are not cached so a fixed artifact is picked up on the next call.
func (s *Store) Get(ctx context.Context, kind Kind) (*Model, error) {
	s.mu.Lock()
	if m, ok := s.cache[kind]; ok {
		s.mu.Unlock()
		return m, nil
	}
	path, ok := s.paths[kind]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := Load(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[kind]; ok {
		return cached, nil
	}
	s.cache[kind] = m
	s.logger.Info("model loaded",
		"kind", string(kind),
		"name", m.Name,
		"estimator", string(m.Estimator),
		"features", len(m.Features),
	)
	return m, nil
}

// LoadAll loads every configured artifact concurrently.
func (s *Store) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for kind := range s.paths {
		kind := kind
		g.Go(func() error {
			_, err := s.Get(ctx, kind)
			return err
		})
	}
	return g.Wait()
}
