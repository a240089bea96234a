// Package config loads and validates portico.json, the project
// configuration file read by the portico CLI.
package config
