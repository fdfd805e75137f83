// cmd/scheduler/main.go
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/salesagentai/outreach-backend/internal/db"
	"github.com/salesagentai/outreach-backend/internal/mail"
	"github.com/salesagentai/outreach-backend/internal/repository"
	"github.com/salesagentai/outreach-backend/internal/scheduler"
	"github.com/salesagentai/outreach-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db.Init()

	transport, err := mail.NewResendTransport(
		os.Getenv("RESEND_API_KEY"),
		os.Getenv("SENDER_EMAIL"),
		os.Getenv("SENDER_NAME"),
	)
	if err != nil {
		log.Fatal("failed to init transport:", err)
	}

	dispatcher := &service.Dispatcher{
		CampaignRepo: &repository.CampaignRepository{DB: db.DB},
		EmailRepo:    &repository.EmailRepository{DB: db.DB},
		Transport:    transport,
		Clock:        service.RealClock(),
	}

	interval := scheduler.DefaultTickInterval
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid TICK_INTERVAL %q: %v", v, err)
		}
		interval = d
	}

	s := scheduler.New(dispatcher, interval)
	if err := s.Start(); err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	// Wait for shutdown; Stop drains the in-flight tick.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	s.Stop()
}
