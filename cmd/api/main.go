package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bdo-market-watch/internal/config"
	"bdo-market-watch/internal/handler"
	"bdo-market-watch/internal/market"
	"bdo-market-watch/internal/notify"
	"bdo-market-watch/internal/repository"
	"bdo-market-watch/internal/router"
	"bdo-market-watch/internal/service"
	"bdo-market-watch/internal/telegram"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting BDO Market Watch...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s, Region: %s", cfg.App.Environment, cfg.Market.Region)

	// Initialize item repository based on config
	var itemRepo repository.ItemRepository
	switch cfg.ItemDB.Type {
	case "mysql":
		db, err := sql.Open("mysql", cfg.ItemDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to ping MySQL: %v", err)
		}
		mysqlRepo, err := repository.NewMySQLItemRepository(db)
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		itemRepo = mysqlRepo
		log.Println("MySQL item repository initialized")
	case "redis":
		redisRepo, err := repository.NewRedisItemRepository(repository.RedisItemConfig{
			Addr:     cfg.ItemDB.RedisAddress(),
			Password: cfg.ItemDB.RedisPassword,
			DB:       cfg.ItemDB.RedisDB,
			Key:      cfg.ItemDB.RedisKey,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		itemRepo = redisRepo
		log.Println("Redis item repository initialized")
	case "jsonfile":
		fileRepo, err := repository.NewJSONFileItemRepository(cfg.ItemDB.JSONPath)
		if err != nil {
			log.Fatalf("Failed to initialize JSON file store: %v", err)
		}
		itemRepo = fileRepo
		log.Println("JSON file item repository initialized")
	default: // sqlite
		if dir := filepath.Dir(cfg.ItemDB.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Fatalf("Failed to create data directory: %v", err)
			}
		}
		sqliteRepo, err := repository.NewSQLiteItemRepository(cfg.ItemDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		itemRepo = sqliteRepo
		log.Println("SQLite item repository initialized")
	}
	defer itemRepo.Close()

	// Market API client
	marketClient := market.New(market.Config{
		BaseURL:  cfg.Market.BaseURL,
		Region:   cfg.Market.Region,
		Language: cfg.Market.Language,
		Timeout:  cfg.Market.FetchTimeout,
	})

	// Webhook notifier (empty URL = disabled, not an error)
	notifier := notify.NewWebhookNotifier(cfg.Notify.WebhookURL)
	if notifier.Enabled() {
		log.Println("Webhook notifications enabled")
	} else {
		log.Println("Webhook notifications disabled (no NOTIFY_WEBHOOK_URL)")
	}

	// Services
	itemService := service.NewItemService(itemRepo, marketClient)
	watcher := service.NewWatcher(itemRepo, marketClient, notifier, service.WatcherConfig{
		Interval:     cfg.Watch.Interval,
		PaceDelay:    cfg.Watch.PaceDelay,
		FetchTimeout: cfg.Market.FetchTimeout,
	})
	watcher.Start()

	// Telegram command bot (optional)
	var tgBot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		var err error
		tgBot, err = telegram.New(cfg.Telegram.BotToken, itemService, watcher)
		if err != nil {
			log.Printf("Warning: Telegram bot initialization failed: %v", err)
		} else if err := tgBot.Start(context.Background()); err != nil {
			log.Printf("Warning: Telegram bot start failed: %v", err)
			tgBot = nil
		}
	} else {
		log.Println("Telegram bot disabled (no TELEGRAM_BOT_TOKEN)")
	}

	// Handlers
	healthHandler := handler.New(cfg.App.Version, cfg.Market.Region)
	itemHandler := handler.NewItemHandler(itemService)
	watcherHandler := handler.NewWatcherHandler(watcher)

	// Create router
	r := router.New(router.Config{
		Handler:        healthHandler,
		ItemHandler:    itemHandler,
		WatcherHandler: watcherHandler,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	watcher.Stop()
	if tgBot != nil {
		tgBot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
