// Package bridge defines the message contract between the host editor
// and the isolated rendering context. This is the public API of the
// preview boundary: the host never sees the renderer's implementation,
// only these messages, keyed entirely by element identifier.
//
// Every message kind is its own struct carrying only the fields that
// kind needs. The wire form is an envelope {kind, payload}; Unmarshal
// dispatches on the kind and returns the concrete type.
//
// The four Preview* messages exist purely for instant visual feedback
// while a control is being dragged. They are never the source of truth:
// the authoritative state is always the markup document, mutated on the
// host and re-rendered from scratch.
package bridge

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates bridge messages on the wire.
type Kind string

// Host to renderer.
const (
	KindRequestTree  Kind = "request_tree"
	KindRequestInfo  Kind = "request_info"
	KindScrollTo     Kind = "scroll_to"
	KindPreviewClass Kind = "preview_class"
	KindPreviewText  Kind = "preview_text"
	KindPreviewAttr  Kind = "preview_attr"
	KindPreviewStyle Kind = "preview_style"
)

// Renderer to host.
const (
	KindReady    Kind = "ready"
	KindTree     Kind = "tree"
	KindInfo     Kind = "info"
	KindClick    Kind = "click"
	KindDeselect Kind = "deselect"
	KindHover    Kind = "hover"
	KindHoverOut Kind = "hover_out"
	KindScroll   Kind = "scroll"
)

// Message is implemented by every bridge payload.
type Message interface {
	BridgeKind() Kind
}

// RequestTree asks the renderer for a full element tree snapshot.
type RequestTree struct{}

// RequestInfo asks the renderer for one element's live info.
type RequestInfo struct {
	ID string `json:"id"`
}

// ScrollTo asks the renderer to scroll the element into view.
type ScrollTo struct {
	ID string `json:"id"`
}

// PreviewClass updates an element's class attribute in the rendering
// only.
type PreviewClass struct {
	ID      string `json:"id"`
	Classes string `json:"classes"`
}

// PreviewText updates an element's text content in the rendering only.
type PreviewText struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PreviewAttr updates one attribute in the rendering only.
type PreviewAttr struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PreviewStyle sets one inline style property in the rendering only.
// The renderer applies it with forced importance so it wins over
// stylesheet rules during the preview.
type PreviewStyle struct {
	ID       string `json:"id"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Ready signals that the rendering is usable: at least one tagged
// element exists, or the fallback timeout elapsed first on a document
// with nothing tagged.
type Ready struct {
	Fallback bool `json:"fallback,omitempty"`
}

// TreeNode is one element in a tree snapshot. Untagged elements are not
// represented; their tagged descendants attach to the nearest tagged
// ancestor.
type TreeNode struct {
	ID       string     `json:"id"`
	Tag      string     `json:"tag"`
	Children []TreeNode `json:"children,omitempty"`
}

// Tree is the full element tree snapshot.
type Tree struct {
	Roots []TreeNode `json:"roots"`
}

// Rect is a viewport-relative bounding rectangle. Invalidated by any
// scroll or re-render.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// Info carries one element's live info, obtainable only from a real
// rendering: computed color, box geometry, direct text, and tagged
// neighbors.
type Info struct {
	ID       string   `json:"id"`
	Tag      string   `json:"tag"`
	Rect     Rect     `json:"rect"`
	Color    string   `json:"color,omitempty"`
	Text     string   `json:"text,omitempty"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
}

// Click reports a selection click resolved to the nearest tagged
// ancestor of the raw event target.
type Click struct {
	ID string `json:"id"`
}

// Deselect reports a click on a region with no tagged ancestor.
type Deselect struct{}

// Hover reports the pointer entering a tagged element.
type Hover struct {
	ID string `json:"id"`
}

// HoverOut reports the pointer leaving a tagged element.
type HoverOut struct {
	ID string `json:"id"`
}

// Scroll reports the rendering's scroll position. Throttled on the
// renderer side.
type Scroll struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (RequestTree) BridgeKind() Kind  { return KindRequestTree }
func (RequestInfo) BridgeKind() Kind  { return KindRequestInfo }
func (ScrollTo) BridgeKind() Kind     { return KindScrollTo }
func (PreviewClass) BridgeKind() Kind { return KindPreviewClass }
func (PreviewText) BridgeKind() Kind  { return KindPreviewText }
func (PreviewAttr) BridgeKind() Kind  { return KindPreviewAttr }
func (PreviewStyle) BridgeKind() Kind { return KindPreviewStyle }
func (Ready) BridgeKind() Kind        { return KindReady }
func (Tree) BridgeKind() Kind         { return KindTree }
func (Info) BridgeKind() Kind         { return KindInfo }
func (Click) BridgeKind() Kind        { return KindClick }
func (Deselect) BridgeKind() Kind     { return KindDeselect }
func (Hover) BridgeKind() Kind        { return KindHover }
func (HoverOut) BridgeKind() Kind     { return KindHoverOut }
func (Scroll) BridgeKind() Kind       { return KindScroll }

type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Marshal encodes a message into its wire envelope.
func Marshal(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("bridge: marshal %s: %w", m.BridgeKind(), err)
	}
	return json.Marshal(envelope{Kind: m.BridgeKind(), Payload: payload})
}

// Unmarshal decodes a wire envelope into its concrete message type.
// Unknown kinds are an error: the two sides must agree on the contract,
// and silently dropping a message hides version skew.
func Unmarshal(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bridge: decode envelope: %w", err)
	}
	m, err := emptyMessage(env.Kind)
	if err != nil {
		return nil, err
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, m); err != nil {
			return nil, fmt.Errorf("bridge: decode %s payload: %w", env.Kind, err)
		}
	}
	return deref(m), nil
}

func emptyMessage(k Kind) (Message, error) {
	switch k {
	case KindRequestTree:
		return &RequestTree{}, nil
	case KindRequestInfo:
		return &RequestInfo{}, nil
	case KindScrollTo:
		return &ScrollTo{}, nil
	case KindPreviewClass:
		return &PreviewClass{}, nil
	case KindPreviewText:
		return &PreviewText{}, nil
	case KindPreviewAttr:
		return &PreviewAttr{}, nil
	case KindPreviewStyle:
		return &PreviewStyle{}, nil
	case KindReady:
		return &Ready{}, nil
	case KindTree:
		return &Tree{}, nil
	case KindInfo:
		return &Info{}, nil
	case KindClick:
		return &Click{}, nil
	case KindDeselect:
		return &Deselect{}, nil
	case KindHover:
		return &Hover{}, nil
	case KindHoverOut:
		return &HoverOut{}, nil
	case KindScroll:
		return &Scroll{}, nil
	}
	return nil, fmt.Errorf("bridge: unknown message kind %q", k)
}

// deref returns the value the decode target points at, so callers can
// type-switch on value types.
func deref(m Message) Message {
	switch v := m.(type) {
	case *RequestTree:
		return *v
	case *RequestInfo:
		return *v
	case *ScrollTo:
		return *v
	case *PreviewClass:
		return *v
	case *PreviewText:
		return *v
	case *PreviewAttr:
		return *v
	case *PreviewStyle:
		return *v
	case *Ready:
		return *v
	case *Tree:
		return *v
	case *Info:
		return *v
	case *Click:
		return *v
	case *Deselect:
		return *v
	case *Hover:
		return *v
	case *HoverOut:
		return *v
	case *Scroll:
		return *v
	}
	return m
}
