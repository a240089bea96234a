// Package portal implements hierarchical portal composition and invalidation.
//
// Overlay UI (menus, submenus, dialogs, popovers) renders into out-of-band
// regions. The Registry owns the authoritative set of portal scopes; a root
// portal owns an ordered list of children, and all visual descendants append
// to the same root scope regardless of nesting depth. Change notifications
// are partitioned by Category so unrelated overlay types never re-render
// each other.
//
// A Host per category re-renders the roots of its category on change and
// signals render completion per root. A Client runs the per-overlay open
// protocol: register or append, wait for the root render signal (or yield
// once for children), then request positioning from the anchor collaborator.
//
// The Registry is an explicitly owned, per-session instance. There is no
// package-level state; construct an Engine (or a Registry plus Hosts) per
// interactive session and tear it down when the session ends.
package portal
