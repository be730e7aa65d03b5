package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-tabs/internal/bot"
	"todo-tabs/internal/config"
	"todo-tabs/internal/flags"
	"todo-tabs/internal/idgen"
	"todo-tabs/internal/model"
	"todo-tabs/internal/repository"
	"todo-tabs/internal/service"
	"todo-tabs/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	fallback, err := repository.NewFileStore(cfg.FallbackDir)
	if err != nil {
		log.Fatalf("fallback store: %v", err)
	}
	storage := repository.NewAdapter(repository.OpenPrimary(cfg.DatabaseURL), fallback)
	defer func() {
		if closer, ok := storage.Primary().(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.Printf("close db: %v", err)
			}
		}
	}()

	ids := idgen.New()
	categorySvc := service.NewCategoryService(store.Options[model.Category]{Backend: storage, IDs: ids})
	taskSvc := service.NewTaskService(model.KeyTasks, store.Options[model.Task]{Backend: storage, IDs: ids})
	todoSvc := service.NewTaskService(model.KeyTodos, store.Options[model.Task]{Backend: storage, IDs: ids})
	defer categorySvc.Close()
	defer taskSvc.Close()
	defer todoSvc.Close()

	for name, ready := range map[string]func(context.Context) error{
		model.KeyCategories: categorySvc.Ready,
		model.KeyTasks:      taskSvc.Ready,
		model.KeyTodos:      todoSvc.Ready,
	} {
		if err := ready(ctx); err != nil {
			log.Printf("[warn] load %s: %v", name, err)
		}
	}
	log.Printf("[info] storage mode: %s", storage.Mode())

	flagSvc := flags.NewFileService(cfg.FlagsFile, map[string]bool{flags.EnableCategories: true})
	if err := flagSvc.Refresh(); err != nil {
		log.Printf("[warn] flags: %v", err)
	}

	reminderSvc := service.NewReminderService(taskSvc, todoSvc, categorySvc)

	telegramBot, err := bot.New(cfg.TelegramToken, bot.Deps{
		Tasks:      taskSvc,
		Todos:      todoSvc,
		Categories: categorySvc,
		Reminder:   reminderSvc,
		Flags:      flagSvc,
	}, bot.Options{
		AllowedUserID: cfg.AllowedUserID,
		ReportChatID:  cfg.ReportChatID,
	})
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	sendReports := func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := telegramBot.SendReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("report: %v", err)
		}
	}

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.ReportTime != "" {
		if _, err := scheduler.ScheduleDaily("report", cfg.ReportTime, sendReports); err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
	} else if _, err := scheduler.ScheduleInterval("report", cfg.ReportInterval, sendReports); err != nil {
		log.Fatalf("schedule reports: %v", err)
	}
	if _, err := scheduler.ScheduleInterval("flags", cfg.FlagsRefresh, func() {
		if err := flagSvc.Refresh(); err != nil {
			log.Printf("[warn] flags: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule flags refresh: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Todo tabs bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
