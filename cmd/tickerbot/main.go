package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/tickerbot/core/bootstrap"
	corecmd "github.com/m3rciful/tickerbot/core/cmd"
	"github.com/m3rciful/tickerbot/internal/bot"
)

func main() {
	// Optional: local development convenience. Missing .env is not an error.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.Load(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg := carrier.(*bot.Config)
			result, err := bootstrap.Run(bootstrap.Options{
				Config:   cfg.CoreConfig(),
				Database: cfg.Database,
			})
			if err != nil {
				return nil, err
			}
			return bot.NewApp(cfg, result.DB)
		},
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
