package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	appLogger "github.com/FACorreiaa/go-travel-agent-crm/app/logger"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/api/itinerary"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/api/leads"
	"github.com/FACorreiaa/go-travel-agent-crm/internal/api/media"
)

// Config contains the dependencies needed to build the router.
type Config struct {
	ItineraryHandler *itinerary.Handler
	LeadHandler      *leads.Handler
	MediaHandler     *media.Handler
	Logger           *slog.Logger
	AllowedOrigins   []string
	RequestTimeout   time.Duration
	// GenerateRequests per GenerateWindow are allowed per client IP on the
	// itinerary generation route. Zero disables the limit.
	GenerateRequests int
	GenerateWindow   time.Duration
}

func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.GenerateRequests > 0 {
				r.Use(httprate.LimitByIP(cfg.GenerateRequests, cfg.GenerateWindow))
			}
			r.Post("/itinerary/generate", cfg.ItineraryHandler.GenerateItinerary)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", cfg.LeadHandler.ListLeads)
			r.Post("/", cfg.LeadHandler.CreateLead)
			r.Route("/{leadID}", func(r chi.Router) {
				r.Delete("/", cfg.LeadHandler.DeleteLead)
				r.Patch("/status", cfg.LeadHandler.UpdateLeadStatus)
				r.Post("/share", cfg.LeadHandler.ShareLead)
				r.Get("/itineraries", cfg.ItineraryHandler.ListLeadItineraries)
			})
		})

		r.Get("/activity-stats", cfg.LeadHandler.GetActivityStats)

		r.Route("/media", func(r chi.Router) {
			r.Get("/", cfg.MediaHandler.ListMedia)
			r.Post("/folders", cfg.MediaHandler.CreateFolder)
			r.Patch("/folders/{folderID}", cfg.MediaHandler.RenameFolder)
			r.Delete("/folders/{folderID}", cfg.MediaHandler.DeleteFolder)
		})
	})

	return r
}
