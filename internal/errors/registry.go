package errors

// template holds the registered description of an error code.
type template struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps stable error codes to their descriptions. Codes are never
// reused once published.
var registry = map[string]template{
	// Config errors (E1xx)
	"E100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		DocURL:   "https://portico-ui.dev/errors/E100",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Configuration file could not be parsed",
		Detail:   "The file exists but is not valid JSON.",
		DocURL:   "https://portico-ui.dev/errors/E101",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   "https://portico-ui.dev/errors/E102",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Configuration file could not be written",
		DocURL:   "https://portico-ui.dev/errors/E103",
	},

	// Server errors (E2xx)
	"E200": {
		Category: CategoryServer,
		Message:  "Server failed to start",
		DocURL:   "https://portico-ui.dev/errors/E200",
	},
	"E201": {
		Category: CategoryServer,
		Message:  "Invalid listen address",
		DocURL:   "https://portico-ui.dev/errors/E201",
	},
}
