// Package errors provides coded, user-facing errors for the portico CLI.
//
// Each error carries a stable code (e.g. "E100"), a category, and optional
// detail and fix suggestion. The CLI prints them with Format; library code
// treats them as ordinary errors via errors.Is/As.
package errors
