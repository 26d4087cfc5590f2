package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"localxplore/internal/adapter/api"
	"localxplore/internal/adapter/api/handler"
	apimiddleware "localxplore/internal/adapter/api/middleware"
	"localxplore/internal/adapter/api/router"
	"localxplore/internal/adapter/repository"
	"localxplore/internal/infrastructure/firebase"
	"localxplore/internal/infrastructure/ws"
	"localxplore/internal/usecase"
	"localxplore/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	// Try to get service account from environment variable (for production)
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		// Fallback to file path (for local development)
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	experienceRepo := repository.NewFirestoreExperienceRepository(firestoreClient)
	bookingRepo := repository.NewFirestoreBookingRepository(firestoreClient)
	messagingRepo := repository.NewFirestoreMessagingRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	hub := ws.NewHub()
	hub.Run(ctx)

	bookingUseCase := usecase.NewBookingUseCase(bookingRepo, experienceRepo, hub, cfg.AllowPastCancel)
	messagingUseCase := usecase.NewMessagingUseCase(messagingRepo, hub)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	bookingHandler := handler.NewBookingHandler(bookingUseCase)
	messageHandler := handler.NewMessageHandler(messagingUseCase)
	wsHandler := handler.NewWebSocketHandler(hub, firebaseAuthClient)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	router.SetupBookingRouter(e, bookingHandler, authMiddleware)
	router.SetupMessageRouter(e, messageHandler, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
