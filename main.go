package main

import (
	"flag"
	"log"

	"wellbeing_dashboard/internal/app"
	"wellbeing_dashboard/internal/config"
	"wellbeing_dashboard/pkg/database"
	"wellbeing_dashboard/pkg/logger"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *migrateOnly {
		logger.InitLogger(cfg)
		if _, err := database.InitDB(&cfg.Database, false); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Database migration completed")
		return
	}

	application := app.NewApp(cfg)
	application.Run()
}
