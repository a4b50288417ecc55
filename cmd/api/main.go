package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskPlanner/internal/collection"
	"taskPlanner/internal/config"
	"taskPlanner/internal/handlers"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/middleware"
	"taskPlanner/internal/reminder"
	"taskPlanner/internal/store"
	"taskPlanner/internal/store/bunt"
	"taskPlanner/internal/store/inmemory"
	"taskPlanner/internal/store/postgres"
	"taskPlanner/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	// .env опционален, боевые переменные приходят из окружения
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		log.Fatalf("инициализация логгера: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	taskStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Не удалось открыть хранилище", err)
		os.Exit(1)
	}
	defer closeStore()

	notifier := reminder.NewTimerService(nil, nil)
	defer notifier.Close()
	scheduler := reminder.NewScheduler(notifier, cfg.Reminder.Lead)

	coll := collection.New(cfg.Server.OwnerID, taskStore, scheduler)
	if err := coll.Subscribe(ctx); err != nil {
		logger.Error("Не удалось открыть подписку", err)
		os.Exit(1)
	}
	defer coll.Close()

	sweeper := worker.NewReminderWorker(coll, &cfg.Reminder.SweepInterval, &cfg.Reminder.SweepBatch)
	go sweeper.Start(ctx)

	taskHandler := handlers.NewTaskHandler(coll)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(100))

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.GetTasks)    // GET /tasks?q=&tag=&status=&window=
		r.Post("/", taskHandler.PostTask)   // POST /tasks

		r.Get("/suggest", taskHandler.GetSuggestedTasks) // GET /tasks/suggest?limit=
		r.Get("/calendar", taskHandler.GetCalendar)      // GET /tasks/calendar?date=
		r.Get("/stats", taskHandler.GetStats)            // GET /tasks/stats?from=&to=

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTaskByID)       // GET /tasks/{id}
			r.Put("/", taskHandler.UpdateTaskByID)    // PUT /tasks/{id}
			r.Delete("/", taskHandler.DeleteTaskByID) // DELETE /tasks/{id}

			r.Post("/toggle", taskHandler.ToggleTask) // POST /tasks/{id}/toggle
		})
	})

	r.Get("/health", taskHandler.HealthCheck)

	server := &http.Server{
		Addr:    cfg.GetServerAddr(),
		Handler: r,
	}

	go func() {
		logger.Info("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Ошибка сервера", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	logger.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.TaskStore, func(), error) {
	switch cfg.Store.Type {
	case "postgres":
		st, err := postgres.New(ctx, cfg.Store.URL)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case "bunt":
		st, err := bunt.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case "inmemory":
		return inmemory.NewTaskStorage(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("неизвестный тип хранилища: %q", cfg.Store.Type)
	}
}
