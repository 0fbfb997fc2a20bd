package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"tutorbot/internal/api"
	"tutorbot/internal/config"
	"tutorbot/internal/db"
	"tutorbot/internal/handlers"
	"tutorbot/internal/moderation"
	"tutorbot/internal/referral"
	"tutorbot/internal/registration"
	"tutorbot/internal/session"
	"tutorbot/internal/store"
	"tutorbot/internal/store/memory"
	"tutorbot/internal/telegram_api"
	"tutorbot/internal/utils"
	"tutorbot/internal/withdrawal"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not loaded; environment variables must be set another way.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Critical: could not load configuration: %v", err)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cipher, err := utils.NewAccountCipher(cfg.AccountEncryptionKeyHex)
	if err != nil {
		log.Fatalf("Critical: invalid ACCOUNT_ENCRYPTION_KEY_HEX: %v", err)
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := db.Open(ctx, cfg.DatabaseURL, cipher)
		if err != nil {
			log.Fatalf("Critical: could not initialize the database: %v", err)
		}
		st = pg
	} else {
		st = memory.New()
	}
	defer st.Close()

	client, err := telegram_api.NewBotClient(cfg.TelegramToken, cfg.AppEnv == "dev")
	if err != nil {
		log.Fatalf("Critical: could not initialize the Telegram bot: %v", err)
	}
	if cfg.BotUsername == "" {
		cfg.BotUsername = client.Username()
	}

	engine := referral.NewEngine(st, cfg.ReferralReward)
	mod := moderation.NewService(st, engine, cfg)
	botHandler := handlers.NewBotHandler(handlers.HandlerDependencies{
		Config:         cfg,
		SessionManager: session.NewSessionManager(),
		Registration:   registration.NewWorkflow(st, engine),
		Moderation:     mod,
		Withdrawals:    withdrawal.NewWorkflow(st, cfg),
		Referrals:      engine,
	})
	dispatcher := telegram_api.NewDispatcher(botHandler, client)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.ApiDependencies{
			Config:     cfg,
			Moderation: mod,
			Dispatcher: dispatcher,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("HTTP server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Critical: HTTP server failed: %v", err)
		}
	}()

	if cfg.UpdateMode == config.UpdateModeWebhook {
		if err := client.SetWebhook(cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			log.Fatalf("Critical: %v", err)
		}
		log.Println("Bot is running in webhook mode.")
		<-ctx.Done()
	} else {
		if err := client.DeleteWebhook(false); err != nil {
			log.Printf("Warning: %v", err)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := client.GetUpdatesChan(u)
		log.Println("Bot is running in polling mode.")
		dispatcher.Poll(ctx, updates)
		client.StopReceivingUpdates()
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
	dispatcher.Wait()
	log.Println("Stopped.")
}

// setupLogging mirrors the log to a rotating file when LOG_FILE is set.
func setupLogging(cfg *config.Config) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.LogFile == "" {
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	}))
	log.Printf("Logging to %s", cfg.LogFile)
}
