package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/portico-ui/portico/pkg/middleware"
	"github.com/portico-ui/portico/pkg/portal"
	"github.com/portico-ui/portico/pkg/render"
	"github.com/portico-ui/portico/pkg/vdom"
)

// Session is one WebSocket connection with its own portal engine. Inbound
// operations mutate the session's registry; the engine's hosts push render
// frames back over the same connection.
type Session struct {
	// ID is the unique session identifier.
	ID string

	conn   *websocket.Conn
	config *SessionConfig
	engine *portal.Engine
	logger *slog.Logger

	sendCh chan Frame
	done   chan struct{}
	closed atomic.Bool

	// onClose is invoked exactly once when the session shuts down.
	onClose func(*Session)

	lastActive atomic.Int64
}

// NewSession creates a session around an upgraded connection. Call Start to
// begin processing.
func NewSession(id string, conn *websocket.Conn, config *SessionConfig, logger *slog.Logger) *Session {
	if config == nil {
		config = DefaultSessionConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		ID:     id,
		conn:   conn,
		config: config,
		logger: logger.With("session", id),
		sendCh: make(chan Frame, config.MaxSendQueue),
		done:   make(chan struct{}),
	}
	s.engine = portal.NewEngine(
		portal.WithEngineLogger(s.logger),
		portal.WithEngineSink(s.pushRender),
		portal.WithEngineRenderer(render.New(render.Config{Pretty: config.Pretty})),
	)
	s.touch()
	return s
}

// NewClient creates a portal client bound to this session's registry, for
// portals the server opens programmatically rather than via wire operations.
// The session-wide client defaults from SessionConfig.Portal and the session
// logger apply first; opts may override both.
func (s *Session) NewClient(id string, category portal.Category, content portal.ContentProducer, opts ...portal.ClientOption) *portal.Client {
	base := []portal.ClientOption{
		portal.WithClientConfig(s.config.Portal),
		portal.WithClientLogger(s.logger),
	}
	return portal.NewClient(s.engine.Registry(), id, category, content, append(base, opts...)...)
}

// Engine returns the session's portal engine.
func (s *Session) Engine() *portal.Engine {
	return s.engine
}

// SetOnClose sets the close callback. Must be called before Start.
func (s *Session) SetOnClose(fn func(*Session)) {
	s.onClose = fn
}

// Start launches the engine and the read and write loops.
func (s *Session) Start(ctx context.Context) {
	s.engine.Start(ctx)
	go s.readLoop()
	go s.writeLoop()
}

// Close tears the session down: connection, loops, engine and every portal
// scope the session registered. Safe to call more than once and from any
// goroutine except a render host's.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	close(s.done)
	s.conn.Close()
	s.engine.Stop()
	if s.onClose != nil {
		s.onClose(s)
	}
	s.logger.Debug("session closed")
}

// LastActive returns the time of the last inbound message.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// pushRender is the engine sink. It runs on a render host goroutine, so it
// must never block and must not stop the engine synchronously.
func (s *Session) pushRender(rootID, html string) {
	if s.closed.Load() {
		return
	}
	select {
	case s.sendCh <- Frame{Type: FrameRender, Root: rootID, HTML: html}:
	default:
		s.logger.Warn("send queue full, dropping session", "root", rootID)
		middleware.RecordWebSocketError("backpressure")
		go s.Close()
	}
}

// enqueue queues an outbound frame without blocking the caller.
func (s *Session) enqueue(f Frame) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.sendCh <- f:
		return nil
	default:
		return ErrSessionClosed
	}
}

func (s *Session) sendError(code, message string) {
	if err := s.enqueue(Frame{Type: FrameError, Code: code, Message: message}); err != nil {
		s.logger.Debug("error frame dropped", "code", code)
	}
}

// readLoop reads and dispatches client operations until the connection
// closes.
func (s *Session) readLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				middleware.RecordWebSocketError("read")
			}
			return
		}
		s.touch()

		var op Op
		if err := json.Unmarshal(msg, &op); err != nil {
			s.logger.Error("op decode error", "error", err)
			middleware.RecordWebSocketError("decode")
			s.sendError(CodeBadOp, "invalid message")
			continue
		}

		s.handleOp(op)
	}
}

// handleOp applies one client operation to the session's registry. The
// resulting category event drives the render host, which pushes the new
// frame back through pushRender.
func (s *Session) handleOp(op Op) {
	reg := s.engine.Registry()

	switch op.Op {
	case OpRegister:
		cat, err := portal.ParseCategory(op.Category)
		if err != nil {
			s.sendError(CodeBadCategory, err.Error())
			return
		}
		if err := reg.Register(op.ID, cat, rawProducer(op.HTML)); err != nil {
			if errors.Is(err, portal.ErrDuplicateID) {
				s.sendError(CodeDuplicateID, err.Error())
				return
			}
			s.logger.Error("register failed", "id", op.ID, "error", err)
		}

	case OpAppend:
		if err := reg.AppendChild(op.Parent, op.ID, rawProducer(op.HTML)); err != nil {
			switch {
			case errors.Is(err, portal.ErrUnknownParent):
				s.sendError(CodeUnknownParent, err.Error())
			case errors.Is(err, portal.ErrDuplicateID):
				s.sendError(CodeDuplicateID, err.Error())
			default:
				s.logger.Error("append failed", "id", op.ID, "error", err)
			}
		}

	case OpRemove:
		reg.RemoveChild(op.Parent, op.ID)

	case OpUnregister:
		reg.Unregister(op.ID)

	case OpPing:
		if err := s.enqueue(Frame{Type: FramePong}); err != nil {
			s.logger.Debug("pong dropped")
		}

	default:
		s.sendError(CodeBadOp, "unknown op "+op.Op)
	}
}

// writeLoop is the single writer for the connection: queued frames plus
// periodic heartbeat pings.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.sendCh:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteJSON(frame); err != nil {
				s.logger.Error("write error", "error", err)
				middleware.RecordWebSocketError("write")
				go s.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				go s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// rawProducer wraps client-supplied HTML as portal content. The fragment
// passes through the renderer unescaped, so only trusted clients should
// reach this server.
func rawProducer(html string) portal.ContentProducer {
	return func() *vdom.VNode {
		return vdom.Raw(html)
	}
}
