package ws

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/audit"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/fsclient"
)

const (
	defaultPollInterval = 200 * time.Millisecond
	writeWait           = 10 * time.Second
	maxMessageSize      = 4096
)

// Message types
const (
	TypeSystem    = "system"
	TypeRecord    = "record"
	TypeGap       = "gap"
	TypePong      = "pong"
	TypeError     = "error"
	TypePing      = "ping"
	TypeSubscribe = "subscribe"
)

// upgrader uses gorilla's same-origin check
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// ClientMessage is sent by the client. A subscribe message replaces the
// current filters; FromSeq > 0 also replays held records after that
// sequence number.
type ClientMessage struct {
	Type       string   `json:"type"`
	Operations []string `json:"operations,omitempty"`
	Outcomes   []string `json:"outcomes,omitempty"`
	Path       string   `json:"path,omitempty"`
	FromSeq    uint64   `json:"from_seq,omitempty"`
}

// ServerMessage is sent to the client
type ServerMessage struct {
	Type      string        `json:"type"`
	Record    *audit.Record `json:"record,omitempty"`
	Missed    uint64        `json:"missed,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

// Handler streams history records over WebSocket as they are appended
type Handler struct {
	client   *fsclient.Client
	logger   *zap.Logger
	interval time.Duration
}

// NewHandler creates a new WebSocket handler
func NewHandler(client *fsclient.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, logger: logger, interval: defaultPollInterval}
}

// stream is the per-connection state. Only the HandleConnection goroutine
// writes to conn.
type stream struct {
	conn   *websocket.Conn
	cursor uint64
	match  audit.Filter
}

// HandleConnection upgrades the request and streams records until the
// client disconnects or the request context ends
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	s := &stream{conn: conn, cursor: h.lastSeq(), match: audit.All()}
	if err := h.send(s, ServerMessage{Type: TypeSystem, Message: "connected"}); err != nil {
		return
	}

	incoming := make(chan ClientMessage)
	go h.readLoop(ctx, conn, incoming, cancel)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case msg := <-incoming:
			if err := h.handleMessage(s, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := h.flush(s); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- ClientMessage, cancel context.CancelFunc) {
	defer cancel()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		var msg ClientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			msg = ClientMessage{Type: "invalid"}
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) handleMessage(s *stream, msg ClientMessage) error {
	switch msg.Type {
	case TypePing:
		return h.send(s, ServerMessage{Type: TypePong})
	case TypeSubscribe:
		criteria := audit.Criteria{Operations: msg.Operations, Outcomes: msg.Outcomes, PathContains: msg.Path}
		filters, err := criteria.Filters(time.Now())
		if err != nil {
			return h.sendError(s, err.Error())
		}
		s.match = audit.All(filters...)
		if msg.FromSeq > 0 {
			s.cursor = msg.FromSeq - 1
		}
		return h.flush(s)
	default:
		return h.sendError(s, "unknown message type")
	}
}

// flush sends every record appended since the cursor. Records evicted from
// the history before they could be sent are reported as a gap.
func (h *Handler) flush(s *stream) error {
	records := h.client.History(audit.AfterSeq(s.cursor))
	if len(records) == 0 {
		return nil
	}
	if first := records[0].Seq; first > s.cursor+1 {
		if err := h.send(s, ServerMessage{Type: TypeGap, Missed: first - s.cursor - 1}); err != nil {
			return err
		}
	}
	for i := range records {
		rec := records[i]
		s.cursor = rec.Seq
		if !s.match(rec) {
			continue
		}
		if err := h.send(s, ServerMessage{Type: TypeRecord, Record: &rec}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) lastSeq() uint64 {
	records := h.client.History()
	if len(records) == 0 {
		return 0
	}
	return records[len(records)-1].Seq
}

func (h *Handler) send(s *stream, msg ServerMessage) error {
	msg.Timestamp = time.Now().Unix()
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	return nil
}

func (h *Handler) sendError(s *stream, msg string) error {
	return h.send(s, ServerMessage{Type: TypeError, Message: msg})
}
