// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/salesagentai/outreach-backend/internal/ai"
	"github.com/salesagentai/outreach-backend/internal/db"
	"github.com/salesagentai/outreach-backend/internal/handler"
	"github.com/salesagentai/outreach-backend/internal/queue"
	"github.com/salesagentai/outreach-backend/internal/repository"
	"github.com/salesagentai/outreach-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	leadRepo := &repository.LeadRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	emailRepo := &repository.EmailRepository{DB: db.DB}

	var aiClient *ai.Client
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		var err error
		if aiClient, err = ai.New(key); err != nil {
			log.Println("⚠️ OpenAI client disabled:", err)
		}
	} else {
		log.Println("⚠️ OPENAI_API_KEY not set, email generation disabled")
	}

	var publisher *queue.Publisher
	if url := os.Getenv("AMQP_URL"); url != "" {
		var err error
		if publisher, err = queue.NewPublisher(url); err != nil {
			log.Println("⚠️ Delivery event queue disabled:", err)
		} else {
			defer publisher.Close()
		}
	} else {
		log.Println("⚠️ AMQP_URL not set, delivery event ingestion disabled")
	}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		LeadRepo:     leadRepo,
	}
	emailService := &service.EmailService{
		LeadRepo:  leadRepo,
		EmailRepo: emailRepo,
		AI:        aiClient,
	}

	campaignHandler := &handler.CampaignHandler{Service: campaignService}
	leadHandler := &handler.LeadHandler{Repo: leadRepo}
	emailHandler := &handler.EmailHandler{Service: emailService}
	webhookHandler := &handler.WebhookHandler{Publisher: publisher}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignHandler.CreateCampaign)
	r.Get("/campaigns", campaignHandler.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaign)
	r.Patch("/campaigns/{id}/status", campaignHandler.UpdateStatus)
	r.Put("/campaigns/{id}/schedule", campaignHandler.UpdateSchedule)
	r.Post("/campaigns/{id}/leads", campaignHandler.AddLeads)

	// Lead routes
	r.Post("/leads", leadHandler.CreateLead)
	r.Get("/leads", leadHandler.ListLeads)
	r.Get("/leads/{id}", leadHandler.GetLead)
	r.Delete("/leads/{id}", leadHandler.DeleteLead)
	r.Post("/leads/import", leadHandler.BulkImport)

	// Email routes
	r.Post("/leads/{id}/generate", emailHandler.GenerateEmail)
	r.Get("/leads/{id}/email", emailHandler.GetLeadEmail)
	r.Post("/emails/{id}/approve", emailHandler.ApproveEmail)

	// Provider webhook
	r.Post("/webhooks/email", webhookHandler.ReceiveEvents)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Println("🚀 Server running on", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
