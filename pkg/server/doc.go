// Package server exposes the portal engine over HTTP and WebSocket.
//
// Each WebSocket connection gets its own Session with a dedicated
// portal.Engine. The client sends JSON operations (register, append, remove,
// unregister) and receives one render frame per root whenever the root's
// category re-renders. Sessions are isolated: portals registered on one
// connection are never visible to another.
package server
