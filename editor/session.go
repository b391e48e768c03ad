// Package editor is the host side of the visual editing loop. A Session owns
// the current markup document and the mutable editor state (selection, hover,
// undo/redo); the markup package stays pure and stateless underneath it.
//
// Every edit goes through the same cycle: apply a pure mutation, diff the
// result against the previous document, and only on an actual change push an
// undo frame and notify the renderer. A mutation that silently did nothing
// (stale identifier, refused unsafe edit) leaves the session untouched.
package editor

import (
	"log/slog"

	"github.com/buildflow/buildflow/bridge"
	"github.com/buildflow/buildflow/markup"
)

// maxUndoDepth caps the undo stack. Oldest frames fall off first.
const maxUndoDepth = 100

// State is the mutable editor state owned by the host. The core mutation
// functions never see it.
type State struct {
	Selected     string
	Hovered      string
	ScrollX      float64
	ScrollY      float64
	PanelVisible bool
	Ready        bool
}

// Renderer delivers host-to-renderer bridge messages. The preview package
// provides the real implementation; tests substitute a recorder.
type Renderer interface {
	Send(msg bridge.Message) error
}

// Session is one open design being edited.
type Session struct {
	DesignID string

	doc      string
	state    State
	undo     []string
	redo     []string
	renderer Renderer
	logger   *slog.Logger
}

// SessionConfig configures NewSession.
type SessionConfig struct {
	DesignID string
	Document string
	Renderer Renderer // optional; nil means no live preview
	Logger   *slog.Logger
}

// NewSession opens a session over an already-tagged document.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		DesignID: cfg.DesignID,
		doc:      cfg.Document,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
	}
}

// Document returns the current markup document.
func (s *Session) Document() string { return s.doc }

// State returns a copy of the current editor state.
func (s *Session) State() State { return s.state }

// SetPanelVisible toggles the inspector panel flag.
func (s *Session) SetPanelVisible(v bool) { s.state.PanelVisible = v }

// apply commits newDoc if it differs from the current document. Returns
// whether anything changed. New edits clear the redo stack.
func (s *Session) apply(op string, newDoc string) bool {
	if newDoc == s.doc {
		s.logger.Debug("editor: no-op", "op", op, "design", s.DesignID)
		return false
	}
	s.undo = append(s.undo, s.doc)
	if len(s.undo) > maxUndoDepth {
		s.undo = s.undo[1:]
	}
	s.redo = nil
	s.doc = newDoc
	return true
}

// SetClasses replaces the selected element's class list.
func (s *Session) SetClasses(id, classes string) bool {
	changed := s.apply("set_classes", markup.SetClasses(s.doc, id, classes))
	if changed {
		s.preview(bridge.PreviewClass{ID: id, Classes: classes})
	}
	return changed
}

// AddClass adds one class token to the element.
func (s *Session) AddClass(id, class string) bool {
	changed := s.apply("add_class", markup.AddClass(s.doc, id, class))
	if changed {
		if span, ok := markup.Locate(s.doc, id); ok {
			s.preview(bridge.PreviewClass{ID: id, Classes: span.ClassValue})
		}
	}
	return changed
}

// RemoveClass removes one class token from the element.
func (s *Session) RemoveClass(id, class string) bool {
	changed := s.apply("remove_class", markup.RemoveClass(s.doc, id, class))
	if changed {
		if span, ok := markup.Locate(s.doc, id); ok {
			s.preview(bridge.PreviewClass{ID: id, Classes: span.ClassValue})
		}
	}
	return changed
}

// SetText replaces the element's text content. oldText anchors the edit when
// the element mixes text with child elements; without a matching anchor the
// mutation is refused and the session is unchanged.
func (s *Session) SetText(id, newText, oldText string) bool {
	changed := s.apply("set_text", markup.SetText(s.doc, id, newText, oldText))
	if changed {
		s.preview(bridge.PreviewText{ID: id, Text: newText})
	}
	return changed
}

// SetAttribute sets one attribute on the element. Attributes bound to
// variable expressions are refused.
func (s *Session) SetAttribute(id, name, value string) bool {
	changed := s.apply("set_attribute", markup.SetAttribute(s.doc, id, name, value))
	if changed {
		s.preview(bridge.PreviewAttr{ID: id, Name: name, Value: value})
	}
	return changed
}

// SetInlineStyle sets one inline style declaration on the element.
func (s *Session) SetInlineStyle(id, property, value string) bool {
	changed := s.apply("set_inline_style", markup.SetInlineStyleProperty(s.doc, id, property, value))
	if changed {
		s.preview(bridge.PreviewStyle{ID: id, Property: property, Value: value})
	}
	return changed
}

// ReplaceElement substitutes the element's whole span with new markup.
// Structural edits always force a full re-render.
func (s *Session) ReplaceElement(id, newMarkup string) bool {
	return s.apply("replace_element", markup.ReplaceElement(s.doc, id, newMarkup))
}

// InsertAfter inserts new markup as the element's next sibling.
func (s *Session) InsertAfter(id, newMarkup string) bool {
	return s.apply("insert_after", markup.InsertAfter(s.doc, id, newMarkup))
}

// RemoveElement deletes the element. A removed element that was selected is
// deselected.
func (s *Session) RemoveElement(id string) bool {
	changed := s.apply("remove_element", markup.RemoveElement(s.doc, id))
	if changed && s.state.Selected == id {
		s.state.Selected = ""
	}
	return changed
}

// MoveElement moves the element before or after the target element.
func (s *Session) MoveElement(id, targetID string, pos markup.Position) bool {
	return s.apply("move_element", markup.MoveElement(s.doc, id, targetID, pos))
}

// MoveUp moves the element before its previous sibling. No-op at the first
// position.
func (s *Session) MoveUp(id string) bool {
	rel := markup.FindSiblings(s.doc, id)
	if rel.Previous == "" {
		return false
	}
	return s.MoveElement(id, rel.Previous, markup.Before)
}

// MoveDown moves the element after its next sibling. No-op at the last
// position.
func (s *Session) MoveDown(id string) bool {
	rel := markup.FindSiblings(s.doc, id)
	if rel.Next == "" {
		return false
	}
	return s.MoveElement(id, rel.Next, markup.After)
}

// Undo restores the previous document version. Returns false when the undo
// stack is empty.
func (s *Session) Undo() bool {
	if len(s.undo) == 0 {
		return false
	}
	s.redo = append(s.redo, s.doc)
	s.doc = s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	return true
}

// Redo reapplies the most recently undone version.
func (s *Session) Redo() bool {
	if len(s.redo) == 0 {
		return false
	}
	s.undo = append(s.undo, s.doc)
	s.doc = s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	return true
}

// Select marks an element as selected and requests its live info from the
// renderer.
func (s *Session) Select(id string) {
	s.state.Selected = id
	s.send(bridge.RequestInfo{ID: id})
}

// Deselect clears the selection.
func (s *Session) Deselect() {
	s.state.Selected = ""
}

// HandleBridge processes one renderer-to-host message against the current
// state. It returns the element info to surface to the UI, or nil.
//
// Message delivery is not ordered relative to host state transitions: an
// Info response can arrive after the selection has already moved on. Stale
// responses are dropped here, not applied.
func (s *Session) HandleBridge(msg bridge.Message) *bridge.Info {
	switch m := msg.(type) {
	case bridge.Ready:
		s.state.Ready = true
		if m.Fallback {
			s.logger.Debug("editor: renderer ready via fallback timeout", "design", s.DesignID)
		}

	case bridge.Click:
		s.Select(m.ID)

	case bridge.Deselect:
		s.Deselect()

	case bridge.Hover:
		s.state.Hovered = m.ID

	case bridge.HoverOut:
		if s.state.Hovered == m.ID {
			s.state.Hovered = ""
		}

	case bridge.Scroll:
		s.state.ScrollX, s.state.ScrollY = m.X, m.Y

	case bridge.Info:
		if m.ID != s.state.Selected {
			s.logger.Debug("editor: dropping stale element info",
				"design", s.DesignID, "stale", m.ID, "selected", s.state.Selected)
			return nil
		}
		info := m
		return &info
	}
	return nil
}

// preview sends a live-preview mutation for instant visual feedback. The
// document just mutated remains the source of truth; the renderer applies
// the same change without a full re-render.
func (s *Session) preview(msg bridge.Message) {
	s.send(msg)
}

func (s *Session) send(msg bridge.Message) {
	if s.renderer == nil {
		return
	}
	if err := s.renderer.Send(msg); err != nil {
		s.logger.Warn("editor: renderer send failed",
			"design", s.DesignID, "kind", msg.BridgeKind(), "error", err)
	}
}
