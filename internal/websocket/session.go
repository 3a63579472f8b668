package websocket

import (
	"context"
	"encoding/json"

	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	actionGetTasks = "getTasks"
	actionTasks    = "tasks"
	actionError    = "error"

	localIdentity = "wsUserID"
)

type TaskPager interface {
	Paginate(ctx context.Context, q repository.PageQuery) (*models.TaskPage, error)
}

type request struct {
	Action   string `json:"action"`
	UserID   string `json:"userId"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type tasksReply struct {
	Action string        `json:"action"`
	Tasks  []models.Task `json:"tasks"`
}

type errorReply struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

// Handler serves the realtime task channel.
type Handler struct {
	hub         *Hub
	tasks       TaskPager
	sessions    middleware.SessionVerifier
	requireAuth bool
}

func NewHandler(hub *Hub, tasks TaskPager, sessions middleware.SessionVerifier, requireAuth bool) *Handler {
	return &Handler{hub: hub, tasks: tasks, sessions: sessions, requireAuth: requireAuth}
}

// Upgrade only lets websocket handshakes through and, when auth is on,
// resolves the token from the headers or the "token" query parameter.
func (h *Handler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if !h.requireAuth {
		return c.Next()
	}

	token := middleware.TokenFromRequest(c)
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return fiber.NewError(fiber.StatusNotFound, "Token is required")
	}
	userID, err := h.sessions.Verify(c.UserContext(), token)
	if err != nil {
		status, message := middleware.SessionStatus(err)
		if status == fiber.StatusInternalServerError {
			logger.ErrorLogger.Error("WebSocket handshake failed", zap.Error(err))
		} else {
			logger.SecurityLogger.Warn("WebSocket handshake rejected", zap.String("ip", c.IP()), zap.Error(err))
		}
		return fiber.NewError(status, message)
	}
	c.Locals(localIdentity, userID)
	return c.Next()
}

// Serve returns the per-connection loop.
func (h *Handler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		identity, _ := conn.Locals(localIdentity).(string)
		client := &Client{Conn: conn, UserID: identity}
		if !h.hub.Register(client) {
			conn.Close()
			return
		}
		defer h.hub.Unregister(client)

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if messageType != websocket.TextMessage {
				continue
			}
			reply := h.handleMessage(context.Background(), identity, message)
			if reply == nil {
				continue
			}
			data, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			if err := client.Write(websocket.TextMessage, data); err != nil {
				logDrop(client, err)
				break
			}
		}
	})
}

// handleMessage returns the reply for one frame, or nil when nothing should
// be sent back.
func (h *Handler) handleMessage(ctx context.Context, identity string, raw []byte) any {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		logger.ErrorLogger.Error("Malformed WebSocket message", zap.Error(err))
		return nil
	}

	switch req.Action {
	case actionGetTasks:
		return h.getTasks(ctx, identity, req)
	default:
		logger.SystemLogger.Info("Unknown WebSocket action", zap.String("action", req.Action))
		return nil
	}
}

func (h *Handler) getTasks(ctx context.Context, identity string, req request) any {
	owner := req.UserID
	if h.requireAuth {
		if owner == "" {
			owner = identity
		}
		if owner != identity {
			logger.SecurityLogger.Warn("WebSocket cross-user read rejected",
				zap.String("user_id", identity), zap.String("requested", owner))
			return errorReply{Action: actionError, Message: "Not allowed to read another user's tasks"}
		}
	}
	if owner == "" {
		return errorReply{Action: actionError, Message: "userId is required"}
	}

	page, err := h.tasks.Paginate(ctx, repository.PageQuery{
		OwnerID: owner,
		Page:    req.Page,
		Size:    req.PageSize,
		Order:   repository.OrderDueDesc,
	})
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks over WebSocket", zap.String("user_id", owner), zap.Error(err))
		return errorReply{Action: actionError, Message: "An error occurred while fetching tasks"}
	}
	return tasksReply{Action: actionTasks, Tasks: page.Data}
}
