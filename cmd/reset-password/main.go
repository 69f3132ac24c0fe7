package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"volt-inventory/internal/config"
	"volt-inventory/internal/logger"
	"volt-inventory/internal/mail"
	"volt-inventory/internal/repository"
	"volt-inventory/internal/service"
	"volt-inventory/pkg/database"
	"volt-inventory/pkg/jwt"

	"go.uber.org/zap"
)

// stdoutSender hands the reset message to the operator instead of mailing it.
type stdoutSender struct{}

func (stdoutSender) Send(_ context.Context, msg mail.Message) error {
	fmt.Printf("To: %s\nSubject: %s\n\n%s\n", msg.To, msg.Subject, msg.Body)
	return nil
}

func main() {
	email := flag.String("email", "", "account to issue a password reset link for")
	printOnly := flag.Bool("print", false, "print the link instead of emailing it")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: "console"})
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

	// 3. Issue the reset link
	var mailer mail.Sender = stdoutSender{}
	if !*printOnly && cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	authService := service.NewAuthService(db,
		repository.NewUserRepo(db),
		repository.NewCompanyRepo(db),
		repository.NewStoreRepo(db),
		jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expire, cfg.JWT.Issuer),
		mailer,
		service.AuthOptions{ResetTokenTTL: cfg.Auth.ResetTokenTTL, FrontendURL: cfg.Server.FrontendURL},
		zl,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := authService.ForgotPassword(ctx, *email); err != nil {
		zl.Fatal("issue reset link", zap.String("email", *email), zap.Error(err))
	}

	zl.Info("reset link issued",
		zap.String("email", *email),
		zap.Duration("valid_for", cfg.Auth.ResetTokenTTL),
	)
}
