// Package api exposes the booking site over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"yatrinivas/internal/auth"
	"yatrinivas/internal/invoice"
	"yatrinivas/internal/media"
	"yatrinivas/internal/repository"
	"yatrinivas/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Pinger reports backend readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP server. Uploader, Idempotency and Store are optional.
type Deps struct {
	Lodges   *service.LodgeService
	Bookings *service.BookingService
	Admin    *service.AdminService
	Contact  *service.ContactService
	Session  *repository.Auth
	Tokens   *auth.Issuer
	Uploader *media.Uploader
	Store    Pinger

	// Idempotency deduplicates checkout submissions carrying an Idempotency-Key header.
	Idempotency *redis.Client

	Property       invoice.Property
	AllowedOrigins []string
	DefaultGuests  int
	ContactPerMin  int
	Logger         *zerolog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	lodges   *service.LodgeService
	bookings *service.BookingService
	admin    *service.AdminService
	contact  *service.ContactService
	session  *repository.Auth
	tokens   *auth.Issuer
	uploader *media.Uploader
	store    Pinger
	idem     *redis.Client

	property       invoice.Property
	allowedOrigins []string
	defaultGuests  int

	contactLimiter *ipLimiter
	loginLimiter   *ipLimiter

	logger *zerolog.Logger
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		nop := zerolog.Nop()
		d.Logger = &nop
	}
	if d.DefaultGuests <= 0 {
		d.DefaultGuests = 2
	}
	if d.ContactPerMin <= 0 {
		d.ContactPerMin = 5
	}
	if d.Property.Name == "" {
		d.Property = invoice.DefaultProperty
	}
	return &Server{
		lodges:         d.Lodges,
		bookings:       d.Bookings,
		admin:          d.Admin,
		contact:        d.Contact,
		session:        d.Session,
		tokens:         d.Tokens,
		uploader:       d.Uploader,
		store:          d.Store,
		idem:           d.Idempotency,
		property:       d.Property,
		allowedOrigins: d.AllowedOrigins,
		defaultGuests:  d.DefaultGuests,
		contactLimiter: newIPLimiter(d.ContactPerMin, time.Minute),
		loginLimiter:   newIPLimiter(10, time.Minute),
		logger:         d.Logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/lodges", s.handleListLodges)
		r.Get("/lodges/featured", s.handleFeaturedLodges)
		r.Get("/lodges/{id}", s.handleGetLodge)
		r.Get("/lodges/{id}/quote", s.handleQuote)
		r.Get("/lodges/{id}/availability", s.handleAvailability)

		r.With(s.idempotency).Post("/checkout", s.handleCheckout)
		r.Get("/bookings/{id}", s.handleGetBooking)
		r.Get("/bookings/{id}/invoice.pdf", s.handleInvoicePDF)
		r.Get("/bookings/{id}/invoice.html", s.handleInvoiceHTML)

		r.With(s.contactLimiter.middleware).Post("/contact", s.handleContact)

		r.With(s.loginLimiter.middleware).Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/me", s.handleMe)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/bookings", s.handleAdminBookings)
			r.Patch("/bookings/{id}", s.handleUpdateBooking)
			r.Delete("/bookings/{id}", s.handleDeleteBooking)

			r.Post("/lodges", s.handleCreateLodge)
			r.Post("/lodges/import", s.handleImportLodges)
			r.Put("/lodges/{id}", s.handleUpdateLodge)
			r.Delete("/lodges/{id}", s.handleDeleteLodge)

			r.Post("/uploads", s.handleUpload)
			r.Get("/reports/bookings.xlsx", s.handleBookingsReport)
		})
	})

	if s.uploader != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploader.Dir()))))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON value, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// writeServiceError maps domain errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Fields: verr.Fields})
	case errors.Is(err, service.ErrInvalidStay):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrInvalidPatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotAvailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, media.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
