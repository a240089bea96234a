// Package vdom provides the renderable content model for Portico.
//
// Portal content producers return VNode trees. A VNode is an in-memory
// representation of markup that the render package turns into HTML when a
// category host runs a render pass.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("menu"), ID("file-menu"),
//	    Ul(
//	        Li(Text("Open")),
//	        Li(Text("Save")),
//	    ),
//	)
//
// Arguments may be attributes (Attr), child nodes (*VNode or []*VNode),
// plain strings (converted to text nodes), or nil (ignored, which allows
// conditional attributes and children inline).
package vdom
