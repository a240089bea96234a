package server

// Outbound frame types.
const (
	FrameRender = "render"
	FramePong   = "pong"
	FrameError  = "error"
)

// Frame is an outbound JSON message. Render frames carry the full HTML for
// one root; the client swaps the root's mount point wholesale.
type Frame struct {
	Type    string `json:"type"`
	Root    string `json:"root,omitempty"`
	HTML    string `json:"html,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Inbound operations.
const (
	OpRegister   = "register"
	OpAppend     = "append"
	OpRemove     = "remove"
	OpUnregister = "unregister"
	OpPing       = "ping"
)

// Op is an inbound JSON message from the client. Register creates a root
// scope; append and remove edit a root's child list; unregister tears the
// whole scope down.
type Op struct {
	Op       string `json:"op"`
	ID       string `json:"id,omitempty"`
	Parent   string `json:"parent,omitempty"`
	Category string `json:"category,omitempty"`
	HTML     string `json:"html,omitempty"`
}

// Error codes sent in error frames.
const (
	CodeBadOp         = "bad_op"
	CodeBadCategory   = "bad_category"
	CodeDuplicateID   = "duplicate_id"
	CodeUnknownParent = "unknown_parent"
)
