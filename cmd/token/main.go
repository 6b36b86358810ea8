// Command token issues a signed bearer token for the ops API.
package main

import (
	"flag"
	"fmt"
	"time"

	"disburse/internal/config"
	"disburse/internal/logger"
	"disburse/internal/models"
	"disburse/internal/utils"
)

func main() {
	subject := flag.String("subject", "", "operator the token is issued to")
	role := flag.String("role", models.RoleOperator, "operator or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	config.LoadEnv()
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)

	if err := cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *subject == "" {
		log.Fatal().Msg("-subject is required")
	}
	if *role != models.RoleOperator && *role != models.RoleAdmin {
		log.Fatal().Str("role", *role).Msg("unknown role")
	}

	token, err := utils.GenerateOperatorToken(cfg.JWTSecret, *subject, *role, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign token")
	}
	fmt.Println(token)
}
