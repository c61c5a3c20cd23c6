package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasktracker/internal/config"
	"tasktracker/internal/repository"
	"tasktracker/internal/server"
	"tasktracker/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	mailSvc := service.NewMailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
	authSvc := service.NewAuthService(userRepo, sessionRepo, mailSvc, cfg.SessionSecret, cfg.SessionTTL)
	categorySvc := service.NewCategoryService(categoryRepo)
	taskSvc := service.NewTaskService(taskRepo, categoryRepo)
	statsSvc := service.NewStatsService(taskRepo, categoryRepo)

	scheduler := service.NewSchedulerService(time.UTC)
	if cfg.SessionPurgeInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.SessionPurgeInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if n, err := authSvc.PurgeExpiredSessions(jobCtx); err != nil {
				log.Printf("purge sessions: %v", err)
			} else if n > 0 {
				log.Printf("purged %d expired sessions", n)
			}
		}); err != nil {
			log.Fatalf("schedule session purge: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := server.New(authSvc, taskSvc, categorySvc, statsSvc)
	httpSrv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(server.RateLimit{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("task tracker listening on %s", cfg.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	log.Println("Shutdown complete.")
}
