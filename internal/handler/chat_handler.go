package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studytrack/backend/internal/middleware"
	"studytrack/backend/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

type createSessionRequest struct {
	Title string `json:"title"`
}

type postMessageRequest struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	session, apiErr := h.chatService.CreateSession(c.Request.Context(), middleware.UserID(c), req.Title)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	sessions, apiErr := h.chatService.ListSessions(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	session, apiErr := h.chatService.GetSession(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	if apiErr := h.chatService.DeleteSession(c.Request.Context(), c.Param("id"), middleware.UserID(c)); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.chatService.PostMessage(c.Request.Context(), req.SessionID, middleware.UserID(c), req.Content)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}
