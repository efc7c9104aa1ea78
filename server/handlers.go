package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/controller"
	"github.com/becomeliminal/acc-agent/core"
)

// ChatRequest is the body of POST /chat and of each WebSocket message.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Reply string    `json:"reply"`
	State *core.CCS `json:"state"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Frame types sent over the WebSocket.
const (
	FrameChunk = "chunk"
	FrameDone  = "done"
	FrameError = "error"
)

// Frame is one server-to-client WebSocket message.
type Frame struct {
	Type    string    `json:"type"`
	Content string    `json:"content,omitempty"`
	State   *core.CCS `json:"state,omitempty"`
}

var errRateLimited = errors.New("rate limit exceeded")

func sessionID(id string) string {
	if strings.TrimSpace(id) == "" {
		return controller.DefaultSessionID
	}
	return id
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: controller.ErrEmptyInput.Error()})
		return
	}

	id := sessionID(req.SessionID)
	if !s.admit(id) {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: errRateLimited.Error()})
		return
	}

	session, err := s.registry.Get(id)
	if err != nil {
		s.logger.Error("open session failed", zap.String("session_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	res, err := session.Turn(c.Request.Context(), req.Message)
	if err != nil {
		s.logger.Error("turn failed", zap.String("session_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Reply: res.Reply, State: res.CCS})
}

func (s *Server) handleState(c *gin.Context) {
	id := c.Param("session_id")
	session, ok := s.registry.Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		return
	}
	state := session.State()
	if state == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no state yet"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// handleWebSocket streams one reply per client message. Malformed or
// rejected messages get an error frame; the connection stays open.
func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()
	s.logger.Info("websocket client connected")

	ctx := c.Request.Context()
	for {
		var req ChatRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			if s.send(ws, Frame{Type: FrameError, Content: controller.ErrEmptyInput.Error()}) != nil {
				return
			}
			continue
		}
		id := sessionID(req.SessionID)
		if !s.admit(id) {
			if s.send(ws, Frame{Type: FrameError, Content: errRateLimited.Error()}) != nil {
				return
			}
			continue
		}
		session, err := s.registry.Get(id)
		if err != nil {
			if s.send(ws, Frame{Type: FrameError, Content: err.Error()}) != nil {
				return
			}
			continue
		}

		var writeErr error
		res, err := session.TurnStream(ctx, req.Message, func(chunk string) {
			if writeErr == nil {
				writeErr = s.send(ws, Frame{Type: FrameChunk, Content: chunk})
			}
		})
		if writeErr != nil {
			return
		}
		if err != nil {
			if s.send(ws, Frame{Type: FrameError, Content: err.Error()}) != nil {
				return
			}
			continue
		}
		if s.send(ws, Frame{Type: FrameDone, State: res.CCS}) != nil {
			return
		}
	}
}

func (s *Server) send(ws *websocket.Conn, f Frame) error {
	if err := ws.WriteJSON(f); err != nil {
		s.logger.Warn("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}
