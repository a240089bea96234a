// Package render turns vdom trees into HTML.
//
// Category hosts use a Renderer to produce the output for each root portal's
// composite content during a render pass. Output is deterministic: attribute
// keys are sorted, and text and attribute values are escaped.
package render
