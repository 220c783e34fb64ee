package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"voice-connector/internal/config"
	Iservices "voice-connector/internal/domain/interfaces/services"
	"voice-connector/internal/infra/handlers"
	"voice-connector/internal/infra/logger"
	"voice-connector/internal/infra/provider"
	"voice-connector/internal/infra/relay"
	"voice-connector/internal/infra/routes"
	"voice-connector/internal/infra/services"
	"voice-connector/internal/middleware"
	"voice-connector/internal/prompt"

	"github.com/gorilla/mux"
)

func main() {
	config.LoadEnv()

	log := logger.NewLogger(true)

	openAIKey := config.GetEnv("OPENAI_API_KEY")
	twilioAccountSid := config.GetEnv("TWILIO_ACCOUNT_SID")
	twilioAuthToken := config.GetEnv("TWILIO_AUTH_TOKEN")
	twilioNumber := config.GetEnv("TWILIO_NUMBER")
	port := config.GetEnvDefault("PORT", "5050")

	relayConfig := relay.Config{
		TranscriptWebhookURL: config.GetEnvDefault("TRANSCRIPT_WEBHOOK_URL", "https://hook.us2.make.com/502f0pmgwgflsntsr7pz1b9f5ni8ei5y"),
		BookingWebhookURL:    config.GetEnvDefault("BOOKING_WEBHOOK_URL", "https://hook.us2.make.com/vadekk22b1evluaepzql13tg1pqrabbn"),
		GoodbyeDelay:         3 * time.Second,
		HangupDelay:          6 * time.Second,
	}

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(log))

	httpClient := &http.Client{Timeout: 30 * time.Second}

	var store Iservices.ISessionStore = services.NewSessionStore()
	var notifier Iservices.IWebhookNotifier = services.NewWebhookNotifier(log, httpClient)
	var calls Iservices.ICallController = provider.NewTwilioCallProvider(log, twilioAccountSid, twilioAuthToken, twilioNumber)

	httpHandlers := handlers.NewHttpHandlers(log, calls)
	mediaStreamHandler := handlers.NewMediaStreamHandler(
		log, store, notifier, calls,
		relayConfig, openAIKey, prompt.SystemMessage,
	)

	routes := routes.NewRoutes(router, httpHandlers, mediaStreamHandler)
	routes.Init()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	go func() {
		log.Info(fmt.Sprintf("Server is running on port %s", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(fmt.Sprintf("Error running HTTP server: %s", err))
			os.Exit(1)
		}
	}()

	<-stop
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	} else {
		log.Info("Server stopped gracefully.")
	}
}
