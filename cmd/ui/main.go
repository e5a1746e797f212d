package main

import (
	"context"
	"log"

	"healthinsights/internal/config"
	"healthinsights/internal/container"
	"healthinsights/ui"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	app, err := ui.NewApp(appContainer.Dashboards, ui.Config{ChartTopN: appConfig.Data.ChartTopN}, appContainer.Metrics, appContainer.Logger)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	log.Fatal(app.Start(":" + appConfig.Server.UIPort))
}
