package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"remindd/internal/config"
	"remindd/internal/notify"
	"remindd/internal/repository"
	"remindd/internal/scheduler"
	"remindd/internal/server"
	"remindd/internal/service"
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

	groupRepo := repository.NewGroupRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	sinks := notify.Fanout{notify.LogSink{}}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramSink(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		sinks = append(sinks, tg)
	}

	clock := scheduler.SystemClock{}
	sched := scheduler.New(reminderRepo, sinks, clock, scheduler.MissedFirePolicy(cfg.MissedFirePolicy))
	if err := sched.Rebuild(ctx); err != nil {
		log.Fatalf("scheduler rebuild: %v", err)
	}

	svc := service.NewReminderService(groupRepo, reminderRepo, sched, clock)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(svc),
	}

	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("scheduler stopped with error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
	}()

	log.Printf("remindd listening on %s", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server: %v", err)
	}
	log.Println("Shutdown complete.")
}
