package main

import (
	"log"

	"studytrack/backend/internal/ai"
	"studytrack/backend/internal/config"
	"studytrack/backend/internal/db"
	"studytrack/backend/internal/handler"
	"studytrack/backend/internal/repository"
	"studytrack/backend/internal/router"
	"studytrack/backend/internal/service"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	timerRepo := repository.NewTimerRepository(database)
	chatRepo := repository.NewChatRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	noteRepo := repository.NewNoteRepository(database)

	gateway := ai.NewClient(ai.ClientConfig{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		Referer: cfg.AIReferer,
		Title:   cfg.AITitle,
		Timeout: cfg.AITimeout,
	})

	authService := service.NewAuthService(userRepo, timerRepo, cfg.JWTSecret, cfg.TokenTTL)

	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Profile: handler.NewProfileHandler(service.NewProfileService(userRepo)),
		Timer:   handler.NewTimerHandler(service.NewTimerService(timerRepo, nil)),
		Chat:    handler.NewChatHandler(service.NewChatService(chatRepo, userRepo, gateway)),
		Task:    handler.NewTaskHandler(service.NewTaskService(taskRepo)),
		Note:    handler.NewNoteHandler(service.NewNoteService(noteRepo)),
	}

	engine := router.New(authService, handlers, cfg.CORSOrigins)
	log.Printf("backend listening on :%s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
