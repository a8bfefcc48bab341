package http

import (
	"net/http"

	"medical-messenger/internal/delivery/http/handler"
	"medical-messenger/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	healthHandler       *handler.HealthHandler
	authHandler         *handler.AuthHandler
	doctorHandler       *handler.DoctorHandler
	subscriptionHandler *handler.SubscriptionHandler
	messageHandler      *handler.MessageHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	loggingMiddleware   *middleware.LoggingMiddleware
}

func NewRouter(
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	doctorHandler *handler.DoctorHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	messageHandler *handler.MessageHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		healthHandler:       healthHandler,
		authHandler:         authHandler,
		doctorHandler:       doctorHandler,
		subscriptionHandler: subscriptionHandler,
		messageHandler:      messageHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		loggingMiddleware:   loggingMiddleware,
	}
}

// Setup registers every route and returns the root handler. CORS wraps the
// mux so preflight requests are answered even for unmatched methods.
func (r *Router) Setup() http.Handler {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthHandler.Check).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Doctor directory (public). Fixed paths go before {id}.
	doctors := api.PathPrefix("/doctors").Subrouter()
	doctors.HandleFunc("", r.doctorHandler.SearchDoctors).Methods(http.MethodGet)
	doctors.HandleFunc("/stats", r.doctorHandler.GetStatistics).Methods(http.MethodGet)
	doctors.HandleFunc("/top-rated", r.doctorHandler.GetTopRatedDoctors).Methods(http.MethodGet)
	doctors.HandleFunc("/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)

	// Subscriptions and chat (protected)
	subs := api.PathPrefix("/subscriptions").Subrouter()
	subs.Use(r.authMiddleware.Authenticate)
	subs.Handle("", middleware.RequirePatient(http.HandlerFunc(r.subscriptionHandler.CreateSubscription))).Methods(http.MethodPost)
	subs.HandleFunc("/mine", r.subscriptionHandler.GetMySubscriptions).Methods(http.MethodGet)
	subs.HandleFunc("/{id}", r.subscriptionHandler.GetSubscription).Methods(http.MethodGet)
	subs.HandleFunc("/{id}", r.subscriptionHandler.UpdateSubscriptionStatus).Methods(http.MethodPatch)
	subs.HandleFunc("/{id}/cancel", r.subscriptionHandler.CancelSubscription).Methods(http.MethodPost)
	subs.HandleFunc("/{id}/messages", r.messageHandler.SendMessage).Methods(http.MethodPost)
	subs.HandleFunc("/{id}/messages", r.messageHandler.GetMessages).Methods(http.MethodGet)
	subs.HandleFunc("/{id}/messages/stream", r.messageHandler.StreamMessages).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/doctors", r.doctorHandler.SearchAllDoctors).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id:[0-9]+}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	return r.corsMiddleware.Handle(r.loggingMiddleware.Handle(r.router))
}
