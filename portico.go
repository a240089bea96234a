// Package portico provides the public API for the portico portal engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/portico-ui/portico"
//
// Usage:
//
//	eng := portico.NewEngine()
//	eng.Start(ctx)
//	defer eng.Stop()
//
//	menu := portico.NewClient(eng.Registry(), "menu", portico.Overlay, content)
//	if err := menu.Open(ctx, anchorRef); err != nil { ... }
package portico

import (
	"github.com/portico-ui/portico/pkg/anchor"
	"github.com/portico-ui/portico/pkg/portal"
	"github.com/portico-ui/portico/pkg/vdom"
)

// Portal categories.
const (
	// Container is for modal-style portals rendered with a backdrop.
	Container = portal.CategoryContainer

	// Overlay is for floating anchored portals.
	Overlay = portal.CategoryOverlay
)

// Category partitions portals by rendering semantics.
type Category = portal.Category

// Engine bundles a registry with one render host per category.
type Engine = portal.Engine

// Registry holds every portal scope.
type Registry = portal.Registry

// Client drives one portal's lifecycle: register, await render, position,
// teardown.
type Client = portal.Client

// ContentProducer returns the current content for a portal entry.
type ContentProducer = portal.ContentProducer

// VNode is a node in the virtual document tree.
type VNode = vdom.VNode

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect = anchor.Rect

// Position is a computed floating-element position.
type Position = anchor.Position

// Sentinel errors.
var (
	// ErrDuplicateID reports a portal id already in use.
	ErrDuplicateID = portal.ErrDuplicateID

	// ErrUnknownParent reports an append against a nonexistent root scope.
	ErrUnknownParent = portal.ErrUnknownParent

	// ErrAnchorGone reports positioning against a departed anchor.
	ErrAnchorGone = anchor.ErrAnchorGone
)

// NewEngine creates a portal engine. See portal.NewEngine for options.
var NewEngine = portal.NewEngine

// NewClient creates a portal client. See portal.NewClient for options.
var NewClient = portal.NewClient

// DefaultClientConfig returns the default per-portal configuration.
var DefaultClientConfig = portal.DefaultClientConfig
