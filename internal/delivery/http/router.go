package http

import (
	"net/http"

	"dental-referral-tracker/internal/delivery/http/handler"
	"dental-referral-tracker/internal/delivery/http/middleware"
	"dental-referral-tracker/internal/infrastructure/telemetry"

	"github.com/gorilla/mux"
)

type Router struct {
	router           *mux.Router
	authHandler      *handler.AuthHandler
	referralHandler  *handler.ReferralHandler
	dashboardHandler *handler.DashboardHandler
	adminHandler     *handler.AdminHandler
	auditLogHandler  *handler.AuditLogHandler
	authMiddleware   *middleware.AuthMiddleware
	corsMiddleware   *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	referralHandler *handler.ReferralHandler,
	dashboardHandler *handler.DashboardHandler,
	adminHandler *handler.AdminHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:           mux.NewRouter(),
		authHandler:      authHandler,
		referralHandler:  referralHandler,
		dashboardHandler: dashboardHandler,
		adminHandler:     adminHandler,
		auditLogHandler:  auditLogHandler,
		authMiddleware:   authMiddleware,
		corsMiddleware:   corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentStaff).Methods(http.MethodGet)

	// Staff routes (any signed-in staff member)
	staff := api.NewRoute().Subrouter()
	staff.Use(r.authMiddleware.Authenticate)

	staff.HandleFunc("/sync", r.referralHandler.Sync).Methods(http.MethodPost)
	staff.HandleFunc("/dentists", r.referralHandler.ListDentists).Methods(http.MethodGet)

	staff.HandleFunc("/referrals", r.referralHandler.CreateReferral).Methods(http.MethodPost)
	staff.HandleFunc("/referrals/unscheduled", r.referralHandler.ListUnscheduled).Methods(http.MethodGet)
	staff.HandleFunc("/referrals/scheduled", r.referralHandler.ListScheduled).Methods(http.MethodGet)
	staff.HandleFunc("/referrals/payments", r.referralHandler.ListPayments).Methods(http.MethodGet)
	staff.HandleFunc("/referrals/{id:[0-9]+}", r.referralHandler.UpdateReferral).Methods(http.MethodPut)
	staff.HandleFunc("/referrals/{id:[0-9]+}", r.referralHandler.DeleteReferral).Methods(http.MethodDelete)
	staff.HandleFunc("/referrals/{id:[0-9]+}/schedule", r.referralHandler.ScheduleReferral).Methods(http.MethodPost)
	staff.HandleFunc("/referrals/{id:[0-9]+}/payment", r.referralHandler.RecordPayment).Methods(http.MethodPost)

	staff.HandleFunc("/dashboard", r.dashboardHandler.GetDashboard).Methods(http.MethodGet)
	staff.HandleFunc("/dashboard/ranking", r.dashboardHandler.GetRanking).Methods(http.MethodGet)

	// Admin routes (protected - manager only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireManager)

	// Dentist registry
	admin.HandleFunc("/dentists", r.adminHandler.GetAllDentists).Methods(http.MethodGet)
	admin.HandleFunc("/dentists", r.adminHandler.CreateDentist).Methods(http.MethodPost)
	admin.HandleFunc("/dentists/{id:[0-9]+}", r.adminHandler.UpdateDentist).Methods(http.MethodPut)
	admin.HandleFunc("/dentists/{id:[0-9]+}", r.adminHandler.DeleteDentist).Methods(http.MethodDelete)

	// Staff registry
	admin.HandleFunc("/staff", r.adminHandler.GetAllStaff).Methods(http.MethodGet)
	admin.HandleFunc("/staff", r.adminHandler.CreateStaff).Methods(http.MethodPost)
	admin.HandleFunc("/staff/{id:[0-9]+}", r.adminHandler.DeleteStaff).Methods(http.MethodDelete)

	// Audit trail
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetRecentAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id:[0-9]+}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	r.router.Use(telemetry.InstrumentHandler)
	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
