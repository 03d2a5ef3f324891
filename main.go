package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"museum-ticketing/database"
	"museum-ticketing/database/seeders"
	"museum-ticketing/filestore"
	"museum-ticketing/logger"
	"museum-ticketing/routes"
	"museum-ticketing/services/notification"
	"museum-ticketing/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	app := fiber.New(fiber.Config{
		ReadBufferSize:  32768, // 32KB read buffer
		WriteBufferSize: 32768, // 32KB write buffer
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		BodyLimit:       10 * 1024 * 1024, // 10MB body limit, proof uploads are capped far lower
	})
	env := godotenv.Load()
	if env != nil {
		logger.Error("Error loading .env file", env)
		fmt.Println("Error loading .env file", env)
	}
	logger.Success("Server is running on ip: " + os.Getenv("APP_HOST") + " port: " + os.Getenv("APP_PORT") +
		"\n\t\t\t\t\t\t******************************************************************************************\n")

	db, err := database.InitDB()
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return
	}

	if err := seeders.SeedTicketTypes(db); err != nil {
		logger.Error("Failed to seed ticket types", err)
		return
	}

	proofDir := os.Getenv("PROOF_STORAGE_DIR")
	if proofDir == "" {
		proofDir = "./storage/proofs"
	}
	files, err := filestore.NewDiskStore(proofDir)
	if err != nil {
		logger.Error("Failed to initialize proof storage", err)
		return
	}

	var notifier notification.Sink
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		notifier = notification.NewAMQPSink(amqpURL)
		logger.Info("Publishing order events to RabbitMQ")
	} else {
		notifier = notification.NewLogSink()
		logger.Warning("AMQP_URL not set, order events will only be logged")
	}

	svc := routes.NewServices(db, files, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go workers.NewExpiryWorker(svc.Orders).Run(ctx)

	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("FRONTEND_URL"),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, db, svc)

	app_host := os.Getenv("APP_HOST")
	app_port := os.Getenv("APP_PORT")
	app.Listen(app_host + ":" + app_port)
}
