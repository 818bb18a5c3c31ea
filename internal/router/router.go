package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studytrack/backend/internal/handler"
	"studytrack/backend/internal/middleware"
	"studytrack/backend/internal/service"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Timer   *handler.TimerHandler
	Chat    *handler.ChatHandler
	Task    *handler.TaskHandler
	Note    *handler.NoteHandler
}

func New(authService *service.AuthService, h Handlers, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(authService))

	authed.GET("/profile", h.Profile.Get)
	authed.PUT("/profile", h.Profile.Update)
	authed.PUT("/profile/password", h.Profile.ChangePassword)

	timer := authed.Group("/timer")
	timer.GET("/state", h.Timer.GetState)
	timer.POST("/start", h.Timer.Start)
	timer.POST("/pause", h.Timer.Pause)
	timer.POST("/reset", h.Timer.Reset)
	timer.POST("/phase", h.Timer.SwitchPhase)
	timer.PUT("/settings", h.Timer.UpdateSettings)

	authed.GET("/pomodoro", h.Timer.GetHistory)
	authed.GET("/time-entries", h.Timer.GetTimeEntries)

	chat := authed.Group("/chat")
	chat.GET("/sessions", h.Chat.ListSessions)
	chat.POST("/sessions", h.Chat.CreateSession)
	chat.GET("/sessions/:id", h.Chat.GetSession)
	chat.DELETE("/sessions/:id", h.Chat.DeleteSession)
	chat.POST("/messages", h.Chat.PostMessage)

	authed.GET("/tasks", h.Task.List)
	authed.POST("/tasks", h.Task.Create)
	authed.PUT("/tasks/:id", h.Task.Update)
	authed.DELETE("/tasks/:id", h.Task.Delete)

	authed.GET("/notes", h.Note.List)
	authed.POST("/notes", h.Note.Create)
	authed.PUT("/notes/:id", h.Note.Update)
	authed.DELETE("/notes/:id", h.Note.Delete)

	return engine
}
