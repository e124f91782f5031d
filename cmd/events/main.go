package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"filechat-be/internal/config"
	"filechat-be/pkg/events"
	pktNats "filechat-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// Tails the event stream. Useful to watch ingests and sweeps land.
func main() {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("Warning: Could not load .env: %v", err)
	}
	cfg := config.Load()

	color.Cyan("📡 Tailing events from %s", cfg.App.NatsURL)

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		color.Red("Failed to connect: %v", err)
		return
	}
	defer sub.Close()

	err = sub.Subscribe("events.>", "event-tail", func(ctx context.Context, event events.Event) error {
		payload, _ := json.Marshal(event.Payload())
		switch event.EventType() {
		case "events.SESSION_INGESTED":
			color.Green("%s %s", event.EventType(), payload)
		case "events.SWEEP_COMPLETED":
			color.Yellow("%s %s", event.EventType(), payload)
		default:
			color.White("%s %s", event.EventType(), payload)
		}
		return nil
	})
	if err != nil {
		color.Red("Subscribe failed: %v", err)
		return
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	color.Cyan("Bye.")
}
