package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"volt-inventory/internal/config"
	"volt-inventory/internal/handler"
	"volt-inventory/internal/logger"
	"volt-inventory/internal/mail"
	"volt-inventory/internal/repository"
	"volt-inventory/internal/service"
	"volt-inventory/pkg/database"
	"volt-inventory/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Level:         cfg.Logger.Level,
		Encoding:      cfg.Logger.Encoding,
		IsDevelopment: cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	// 2. Setup Database
	db, err := database.Connect(cfg.Database.Options())
	if err != nil {
		zl.Fatal("connect database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	if err := repository.Migrate(db); err != nil {
		zl.Fatal("migrate database", zap.Error(err))
	}

	// 3. Dependency Injection (Wiring Layers)
	companyRepo := repository.NewCompanyRepo(db)
	storeRepo := repository.NewStoreRepo(db)
	userRepo := repository.NewUserRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	transferRepo := repository.NewTransferRepo(db)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expire, cfg.JWT.Issuer)
	mailer := newMailer(cfg, zl)

	authService := service.NewAuthService(db, userRepo, companyRepo, storeRepo, tokens, mailer,
		service.AuthOptions{ResetTokenTTL: cfg.Auth.ResetTokenTTL, FrontendURL: cfg.Server.FrontendURL},
		zl.Named("auth"))
	storeService := service.NewStoreService(storeRepo, userRepo, inventoryRepo, transferRepo, zl.Named("store"))
	userService := service.NewUserService(userRepo, storeRepo, mailer,
		service.UserOptions{InviteTokenTTL: cfg.Auth.InviteTokenTTL, FrontendURL: cfg.Server.FrontendURL},
		zl.Named("user"))
	inventoryService := service.NewInventoryService(inventoryRepo, userRepo, zl.Named("inventory"))
	transferService := service.NewTransferService(db, transferRepo, storeRepo, userRepo, inventoryRepo, zl.Named("transfer"))

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Store:     handler.NewStoreHandler(storeService),
		User:      handler.NewUserHandler(userService),
		Inventory: handler.NewInventoryHandler(inventoryService),
		Transfer:  handler.NewTransferHandler(transferService),
		Health:    handler.NewHealthHandler(db),
	}

	// 4. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.Server.AppName,
		ErrorHandler: handler.ErrorHandler(zl),
	})

	// Middleware
	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// 5. Routes
	handler.RegisterRoutes(app, handlers, authService)

	// 6. Graceful Shutdown
	go func() {
		zl.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.AppEnv))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			zl.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	zl.Info("server exited")
}

// newMailer sends through SMTP when a host is configured and only logs
// messages otherwise.
func newMailer(cfg *config.Config, zl *zap.Logger) mail.Sender {
	if cfg.SMTP.Host == "" {
		zl.Warn("SMTP_HOST not set, outgoing mail will only be logged")
		return mail.NewLogSender(zl.Named("mail"))
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}
