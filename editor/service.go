package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/buildflow/buildflow/designs"
	"github.com/buildflow/buildflow/observability"
)

// Service owns the open editing sessions and sequences persistence. One
// session exists per design at a time; the session's document is the live
// truth while it is open, and the store receives the stripped document on
// every successful edit.
type Service struct {
	store  *designs.Store
	events *observability.EventLogger
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// ServiceConfig configures NewService.
type ServiceConfig struct {
	Store  *designs.Store
	Events *observability.EventLogger // optional
	Logger *slog.Logger
}

// NewService creates the editor service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		store:    cfg.Store,
		events:   cfg.Events,
		logger:   cfg.Logger,
		sessions: make(map[string]*Session),
	}
}

// Store exposes the underlying design store for read-side handlers.
func (svc *Service) Store() *designs.Store { return svc.store }

// Open returns the session for a design, loading and tagging the stored
// document on first open.
func (svc *Service) Open(ctx context.Context, designID string) (*Session, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if s, ok := svc.sessions[designID]; ok {
		return s, nil
	}

	d, err := svc.store.Load(ctx, designID)
	if err != nil {
		return nil, fmt.Errorf("editor: open %s: %w", designID, err)
	}
	s := NewSession(SessionConfig{
		DesignID: designID,
		Document: d.Document,
		Logger:   svc.logger,
	})
	svc.sessions[designID] = s
	return s, nil
}

// AttachRenderer wires a live preview renderer to an open session.
func (svc *Service) AttachRenderer(ctx context.Context, designID string, r Renderer) error {
	s, err := svc.Open(ctx, designID)
	if err != nil {
		return err
	}
	s.renderer = r
	return nil
}

// Close discards a design's session without saving. The next Open reloads
// and re-tags from the store.
func (svc *Service) Close(designID string) {
	svc.mu.Lock()
	delete(svc.sessions, designID)
	svc.mu.Unlock()
}

// Apply runs one mutation against a design's session and persists the result
// when the document actually changed. The mutation itself is the supplied
// closure, so HTTP handlers and MCP tools share this path.
func (svc *Service) Apply(ctx context.Context, designID, action string, mutate func(*Session) bool) (changed bool, doc string, err error) {
	s, err := svc.Open(ctx, designID)
	if err != nil {
		return false, "", err
	}

	changed = mutate(s)
	if changed {
		if err := svc.store.Save(ctx, designID, s.Document()); err != nil {
			return true, s.Document(), fmt.Errorf("editor: persist %s: %w", designID, err)
		}
	}

	if svc.events != nil {
		svc.events.LogEvent(ctx, observability.BusinessEvent{
			EventType:   "design_mutated",
			ServiceName: "buildflow",
			EntityType:  "design",
			EntityID:    designID,
			Action:      action,
			Success:     changed,
		})
	}
	return changed, s.Document(), nil
}
