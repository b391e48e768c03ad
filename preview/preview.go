// Package preview runs the live rendering of a design inside a managed
// Chrome page and relays bridge messages in both directions. The host
// side stays blind to the page internals: everything crosses as bridge
// envelopes, keyed by element identifier.
package preview

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/buildflow/buildflow/bridge"
	"github.com/buildflow/buildflow/browser"
)

//go:embed bridge.js
var bridgeJS []byte

const bindingName = "__buildflow_bridge"

// Config configures an Open call.
type Config struct {
	Manager *browser.Manager

	// DebounceWindow coalesces scroll messages on the host side.
	// Default: 100ms.
	DebounceWindow time.Duration

	Logger *slog.Logger
}

// Session is one live rendering. It implements editor.Renderer via Send.
type Session struct {
	page   *rod.Page
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	rawCh     chan bridge.Message
	msgs      chan bridge.Message
	debouncer *scrollDebouncer
}

// Open creates a blank page and wires the renderer-to-host binding.
// Nothing is rendered until the first Render call.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Manager == nil {
		return nil, fmt.Errorf("preview: nil browser manager")
	}

	page, err := cfg.Manager.Page()
	if err != nil {
		return nil, fmt.Errorf("preview: open page: %w", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		page:   page,
		logger: cfg.Logger,
		ctx:    sctx,
		cancel: cancel,
		rawCh:  make(chan bridge.Message, 256),
		msgs:   make(chan bridge.Message, 64),
	}
	s.debouncer = newScrollDebouncer(cfg.DebounceWindow, func(sc bridge.Scroll) {
		s.deliver(sc)
	})

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		page.Close()
		cancel()
		return nil, fmt.Errorf("preview: add binding: %w", err)
	}

	go s.listenBinding()
	go s.loop()

	return s, nil
}

// Render replaces the page content with the given tagged document and
// re-injects the bridge script. The previous rendering, including any
// preview-only mutations, is discarded entirely.
func (s *Session) Render(doc string) error {
	if err := s.page.SetDocumentContent(doc); err != nil {
		return fmt.Errorf("preview: set content: %w", err)
	}
	// The script announces readiness itself once a tagged element shows
	// up, so Render does not block on the page.
	if _, err := s.page.Eval(string(bridgeJS)); err != nil {
		return fmt.Errorf("preview: inject bridge: %w", err)
	}
	return nil
}

// Send delivers one host-to-renderer message into the page.
func (s *Session) Send(msg bridge.Message) error {
	raw, err := bridge.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = s.page.Eval(`(raw) => {
		if (window.__buildflowDispatch) window.__buildflowDispatch(raw);
	}`, string(raw))
	if err != nil {
		return fmt.Errorf("preview: dispatch %s: %w", msg.BridgeKind(), err)
	}
	return nil
}

// Messages returns the renderer-to-host message stream. Scroll messages
// are coalesced; everything else arrives in order.
func (s *Session) Messages() <-chan bridge.Message {
	return s.msgs
}

// Viewport reports the rendering's current viewport size in CSS pixels.
func (s *Session) Viewport() (width, height int, err error) {
	res, err := s.page.Eval(`() => ({w: window.innerWidth, h: window.innerHeight})`)
	if err != nil {
		return 0, 0, fmt.Errorf("preview: viewport: %w", err)
	}
	var v gson.JSON = res.Value
	return v.Get("w").Int(), v.Get("h").Int(), nil
}

// Page exposes the underlying page for export rendering (PDF, screenshot).
func (s *Session) Page() *rod.Page {
	return s.page
}

// Close stops the message loop and closes the page.
func (s *Session) Close() error {
	s.cancel()
	if err := s.page.Close(); err != nil {
		return fmt.Errorf("preview: close page: %w", err)
	}
	return nil
}

// listenBinding receives renderer messages via Runtime.bindingCalled.
func (s *Session) listenBinding() {
	s.page.Context(s.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		msg, err := bridge.Unmarshal([]byte(e.Payload))
		if err != nil {
			s.logger.Warn("preview: bad bridge payload", "error", err)
			return
		}
		select {
		case s.rawCh <- msg:
		case <-s.ctx.Done():
		}
	})()
}

// loop forwards raw messages to the consumer, coalescing scrolls through
// the debouncer so only the latest position within a window survives.
func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			return

		case m := <-s.rawCh:
			if sc, ok := m.(bridge.Scroll); ok {
				s.debouncer.add(sc)
				continue
			}
			s.deliver(m)

		case <-s.debouncer.timerC():
			s.debouncer.flush()
		}
	}
}

func (s *Session) deliver(m bridge.Message) {
	select {
	case s.msgs <- m:
	default:
		// Consumer is not keeping up. Dropping beats blocking the page
		// event stream.
		s.logger.Warn("preview: dropping message, consumer backlogged",
			"kind", m.BridgeKind())
	}
}
