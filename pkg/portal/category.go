package portal

import (
	"fmt"
	"strings"
)

// Category partitions portals by rendering semantics. Every portal entry has
// exactly one category for its lifetime, and categories never share change
// events: a mutation in one category is invisible to hosts of another.
type Category uint8

const (
	// CategoryContainer is for modal-style portals rendered with a backdrop
	// (dialogs, sheets).
	CategoryContainer Category = iota

	// CategoryOverlay is for floating anchored portals (menus, popovers,
	// tooltips).
	CategoryOverlay
)

// String returns the string representation of the Category.
func (c Category) String() string {
	switch c {
	case CategoryContainer:
		return "Container"
	case CategoryOverlay:
		return "Overlay"
	default:
		return "Unknown"
	}
}

// ParseCategory converts a wire-format category name to a Category.
// Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(s) {
	case "container":
		return CategoryContainer, nil
	case "overlay":
		return CategoryOverlay, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Categories returns all defined categories, one Host each.
func Categories() []Category {
	return []Category{CategoryContainer, CategoryOverlay}
}
