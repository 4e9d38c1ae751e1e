// Command reset-password sets a new password for an existing account and ends
// its sessions. Usage: reset-password -email ana@example.com -password s3cret
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"go-label-ws/internal/config"
	"go-label-ws/internal/model"
	"go-label-ws/internal/repository"
	"go-label-ws/pkg/database"
	applog "go-label-ws/pkg/logger"
)

func main() {
	email := flag.String("email", os.Getenv("RESET_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("RESET_PASSWORD"), "new password (min 6 characters)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applog.Setup(cfg.LogLevel, cfg.LogFormat)

	if *email == "" || len(*password) < 6 {
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepo(db)
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("user not found")
	}

	var hashed model.User
	if err := hashed.SetPassword(*password); err != nil {
		log.Fatal().Err(err).Msg("failed to hash password")
	}
	if err := users.UpdatePassword(ctx, user.ID, hashed.Password); err != nil {
		log.Fatal().Err(err).Msg("failed to update password")
	}
	// existing tokens stop working
	if err := users.UpdateTokenVersion(ctx, user.ID, uuid.NewString()); err != nil {
		log.Fatal().Err(err).Msg("failed to end sessions")
	}

	log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("password reset")
}
