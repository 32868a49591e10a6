// Package bridge runs the WebSocket endpoint the host UI connects to.
// Commands arrive as streaming envelopes and are fed into the
// dispatcher; overlay frames and classified results are pushed back on
// every session redraw, so the UI never polls for state.
package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/velofit/engine/internal/cache"
	"github.com/velofit/engine/internal/dispatcher"
	"github.com/velofit/engine/internal/render"
	"github.com/velofit/engine/internal/session"
	"github.com/velofit/engine/pkg/streaming"
)

const (
	clientSendChSize = 256
	bridgeWriteWait  = 10 * time.Second
)

// Server accepts one host-UI connection at a time. A second connection
// replaces the first; the engine has a single interactive surface.
type Server struct {
	addr    string
	secret  string
	disp    *dispatcher.Dispatcher
	session *session.Session
	log     *slog.Logger

	upgrader ws.Upgrader
	httpSrv  *http.Server
	listener net.Listener

	mu     sync.Mutex
	client *client

	// FramesPushed counts overlay frames sent to the UI, for the
	// status surface and tests.
	FramesPushed cache.SafeCounter
}

// client wraps one accepted connection with its own write loop, so a
// slow UI never blocks the session's redraw callback.
type client struct {
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
}

// New creates the bridge server and registers the redraw push on the
// session. Call Start to begin listening.
func New(addr, secret string, d *dispatcher.Dispatcher, sess *session.Session, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		addr:    addr,
		secret:  secret,
		disp:    d,
		session: sess,
		log:     log,
		upgrader: ws.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The host UI runs on the same machine; no origin check.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	sess.OnRedraw(s.pushFrame)
	return s
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", s.handleUpgrade)

	s.httpSrv = &http.Server{Handler: mux}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("Bridge server stopped", "error", err)
		}
	}()

	s.log.Info("Bridge listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, useful when configured with
// port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop closes the active connection and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.client != nil {
		s.closeClientLocked(s.client)
	}
	s.mu.Unlock()

	if s.httpSrv != nil {
		return s.httpSrv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if s.secret != "" && r.URL.Query().Get("secret") != s.secret {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Bridge upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		sendCh: make(chan []byte, clientSendChSize),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if s.client != nil {
		s.log.Info("Replacing existing host UI connection")
		s.closeClientLocked(s.client)
	}
	s.client = c
	s.mu.Unlock()

	s.log.Info("Host UI connected", "remote", conn.RemoteAddr().String())

	go s.writeLoop(c)
	go s.readLoop(c)

	// Bring the fresh connection up to date immediately.
	s.pushFrame()
}

// closeClientLocked detaches and closes a client. Caller holds s.mu.
func (s *Server) closeClientLocked(c *client) {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	_ = c.conn.Close()
	if s.client == c {
		s.client = nil
	}
}

func (s *Server) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(bridgeWriteWait)); err != nil {
				s.dropClient(c, err)
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				s.dropClient(c, err)
				return
			}
		}
	}
}

// readLoop is the single reader for a connection. Every inbound
// envelope is dispatched on this goroutine, so command order on the
// wire is command order in the engine.
func (s *Server) readLoop(c *client) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				s.dropClient(c, err)
			}
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.log.Warn("Bridge received malformed envelope", "error", err)
			continue
		}

		if env.Type != streaming.TypeCommand {
			s.log.Debug("Ignoring non-command envelope", "type", env.Type)
			continue
		}

		var cmd streaming.CommandPayload
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			s.log.Warn("Bridge received malformed command payload", "error", err)
			continue
		}

		s.dispatch(c, cmd)
	}
}

func (s *Server) dispatch(c *client, cmd streaming.CommandPayload) {
	result, err := s.disp.Dispatch(dispatcher.Event{
		Command:   cmd.Command,
		Args:      cmd.Args,
		Timestamp: time.Now(),
	})
	if err != nil {
		s.log.Warn("Command failed", "command", cmd.Command, "error", err)
		s.sendEnvelope(c, streaming.TypeError, streaming.ErrorPayload{
			Command: cmd.Command,
			Message: err.Error(),
		})
		return
	}

	if result != nil {
		s.sendEnvelope(c, streaming.TypeStatus, streaming.ResultPayload{
			Command: cmd.Command,
			Result:  result,
		})
	}
}

// pushFrame rebuilds the overlay from committed session state and
// sends it, together with the classified angles, to the connected UI.
// Fired by the session on every state transition.
func (s *Server) pushFrame() {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()
	if c == nil {
		return
	}

	in := render.Input{
		Points:      s.session.Points(),
		Results:     s.session.Results(),
		ActiveIndex: s.session.ActiveIndex(),
		TouchDrag:   s.session.TouchDrag(),
		Image:       s.session.Image(),
	}
	if g, ok := s.session.Ghost(); ok {
		in.Ghost = &g
	}

	ov := render.Build(in)
	s.sendEnvelope(c, streaming.TypeOverlayFrame, ov)
	s.sendEnvelope(c, streaming.TypeResults, streaming.ResultsPayload{Results: in.Results})
	s.FramesPushed.Inc()
}

func (s *Server) sendEnvelope(c *client, msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("Failed to marshal bridge payload", "type", msgType, "error", err)
		return
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		s.log.Error("Failed to marshal bridge envelope", "type", msgType, "error", err)
		return
	}

	select {
	case c.sendCh <- data:
	default:
		s.log.Warn("Bridge send channel full, dropping message", "type", msgType)
	}
}

func (s *Server) dropClient(c *client, err error) {
	s.log.Warn("Host UI connection lost", "error", err)
	s.mu.Lock()
	s.closeClientLocked(c)
	s.mu.Unlock()
}
