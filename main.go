package main

import (
	"context"
	"log"
	"time"

	"healthinsights/internal/config"
	"healthinsights/internal/container"
	"healthinsights/ui"

	"github.com/gin-gonic/gin"
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
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	appContainer.Warmup(ctx)
	cancel()

	server := ui.NewServer(appContainer.Dashboards, appContainer.Metrics, appContainer.Logger)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
