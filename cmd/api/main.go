package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/liorazar/cashcoach/internal/allocation"
	"github.com/liorazar/cashcoach/internal/classify"
	"github.com/liorazar/cashcoach/internal/config"
	"github.com/liorazar/cashcoach/internal/conversation"
	"github.com/liorazar/cashcoach/internal/forecast"
	"github.com/liorazar/cashcoach/internal/handler"
	"github.com/liorazar/cashcoach/internal/integrations/boi"
	"github.com/liorazar/cashcoach/internal/integrations/llm"
	"github.com/liorazar/cashcoach/internal/integrations/whatsapp"
	"github.com/liorazar/cashcoach/internal/middleware"
	"github.com/liorazar/cashcoach/internal/monitor"
	"github.com/liorazar/cashcoach/internal/repository"
	"github.com/liorazar/cashcoach/internal/service"
	"github.com/liorazar/cashcoach/internal/utils/email"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)

	allocCfg := allocation.DefaultConfig()
	allocCfg.CriticalResidualRatio = cfg.CriticalResidualRatio
	allocCfg.ComfortableRatio = cfg.ComfortableRatio
	allocCfg.ExcellentRatio = cfg.ExcellentRatio
	engine := allocation.NewEngine(allocCfg, logger)

	forecastCfg := forecast.DefaultConfig()
	forecastCfg.ConfidenceMin = cfg.ForecastConfidenceMin
	forecaster := forecast.NewForecaster(forecastCfg, logger)

	llmClient := llm.NewClient(cfg, logger)
	waClient := whatsapp.NewClient(cfg, logger)
	rates := boi.NewRateClient(cfg, logger)
	mailer := email.NewSender(cfg, logger)

	classifier := classify.NewClassifier(repo, llmClient, rates, logger)
	parser := conversation.NewIntentParser(llmClient, logger)
	incomeMonitor := monitor.NewIncomeMonitor(repo, engine, waClient, logger)
	convRouter := conversation.NewRouter(repo, engine, parser, waClient, classifier, incomeMonitor, logger)

	goalMonitor := monitor.NewGoalMonitor(repo, waClient, logger)
	reminders := monitor.NewReminderDispatcher(repo, waClient, mailer, logger)

	svc := service.NewService(repo, engine, forecaster, classifier, logger, cfg)
	h := handler.NewHandler(svc, convRouter, waClient, llmClient, classifier, cfg, logger)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/webhook", h.VerifyWebhook).Methods("GET")
	r.HandleFunc("/webhook", h.ReceiveWebhook).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/api").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/profile", h.GetProfile).Methods("GET")
	authRouter.HandleFunc("/profile", h.UpdateProfile).Methods("PUT")
	authRouter.HandleFunc("/budgets", h.GetBudget).Methods("GET")
	authRouter.HandleFunc("/budgets", h.CreateBudget).Methods("POST")
	authRouter.HandleFunc("/expenses/{id}/approve", h.ApproveExpense).Methods("POST")
	authRouter.HandleFunc("/expenses/{id}/reject", h.RejectExpense).Methods("POST")
	authRouter.HandleFunc("/goals", h.ListGoals).Methods("GET")
	authRouter.HandleFunc("/goals", h.CreateGoal).Methods("POST")
	authRouter.HandleFunc("/goals/{id}", h.UpdateGoal).Methods("PUT")
	authRouter.HandleFunc("/goals/recalculate", h.RecalculateAllocations).Methods("POST")
	authRouter.HandleFunc("/stats", h.GetStats).Methods("GET")
	authRouter.HandleFunc("/forecast", h.GetForecast).Methods("GET")
	authRouter.HandleFunc("/forecast/refresh", h.RefreshForecast).Methods("POST")

	// Scheduled jobs
	scheduler := cron.New()
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	scheduler.AddFunc("0 9 * * *", func() { incomeMonitor.Run(jobCtx) })
	scheduler.AddFunc("0 10 * * *", func() { goalMonitor.Run(jobCtx) })
	scheduler.AddFunc("*/15 * * * *", func() { reminders.Run(jobCtx) })
	scheduler.AddFunc("0 8 * * 0", func() { reminders.WeeklyDigest(jobCtx) })
	scheduler.Start()
	logger.Info("Scheduled jobs started")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	cancelJobs()
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
