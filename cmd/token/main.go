package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/quickfacts/internal/auth/jwt"
	"github.com/gokatarajesh/quickfacts/internal/config"
)

// token mints an access token for one user, for local testing and
// operator access to the /v1/users routes.
func main() {
	userID := flag.String("user", "", "User id to place in the token subject")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			log.Warn().Err(err).Msg("could not load .env file")
		}
	}

	if *userID == "" {
		log.Fatal().Msg("-user is required")
	}

	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Security.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set; the API accepts unauthenticated requests")
	}

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret:    []byte(cfg.Security.JWTSecret),
		AccessTTL: *ttl,
		Issuer:    cfg.Name,
	})
	token, err := tokens.GenerateAccessToken(*userID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign token")
	}
	fmt.Println(token)
}
