package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hostel-backend/internal/handlers"
	"hostel-backend/internal/middleware"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Rooms   *handlers.RoomHandler
	Tenants *handlers.TenantHandler
	Rents   *handlers.RentHandler
	Health  *handlers.HealthHandler
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery(logger), middleware.RequestLogger(logger), middleware.MetricsMiddleware)

	// Public API routes - Authentication
	r.HandleFunc("/auth/signup", h.Auth.Signup).Methods("POST")
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/auth/me", h.Auth.Me).Methods("GET")
	api.HandleFunc("/auth/logins", h.Auth.ListLogins).Methods("GET")

	// Rooms
	api.HandleFunc("/rooms", h.Rooms.ListRooms).Methods("GET")
	api.HandleFunc("/rooms", h.Rooms.CreateRoom).Methods("POST")
	api.HandleFunc("/rooms/{id}", h.Rooms.GetRoom).Methods("GET")
	api.HandleFunc("/rooms/{id}", h.Rooms.UpdateRoom).Methods("PUT")
	api.HandleFunc("/rooms/{id}", h.Rooms.DeleteRoom).Methods("DELETE")

	// Tenants - static paths before {id}
	api.HandleFunc("/tenants", h.Tenants.ListTenants).Methods("GET")
	api.HandleFunc("/tenants", h.Tenants.CreateTenant).Methods("POST")
	api.HandleFunc("/tenants/document/extract", h.Tenants.ExtractFields).Methods("POST")
	api.HandleFunc("/tenants/{id}", h.Tenants.GetTenant).Methods("GET")
	api.HandleFunc("/tenants/{id}", h.Tenants.UpdateTenant).Methods("PUT")
	api.HandleFunc("/tenants/{id}", h.Tenants.DeleteTenant).Methods("DELETE")
	api.HandleFunc("/tenants/{id}/document", h.Tenants.UploadDocument).Methods("POST")
	api.HandleFunc("/tenants/{id}/document", h.Tenants.GetDocument).Methods("GET")

	// Rents - static paths before {id}
	api.HandleFunc("/rents", h.Rents.ListRents).Methods("GET")
	api.HandleFunc("/rents", h.Rents.CreateRent).Methods("POST")
	api.HandleFunc("/rents/upcoming", h.Rents.Upcoming).Methods("GET")
	api.HandleFunc("/rents/overdue", h.Rents.Overdue).Methods("GET")
	api.HandleFunc("/rents/export", h.Rents.ExportCSV).Methods("GET")
	api.HandleFunc("/rents/create-auto", h.Rents.CreateAuto).Methods("POST")
	api.HandleFunc("/rents/generate-monthly", h.Rents.GenerateMonthly).Methods("POST")
	api.HandleFunc("/rents/jobs/run", h.Rents.RunJobs).Methods("POST")
	api.HandleFunc("/rents/online/verify", h.Rents.VerifyOnlinePayment).Methods("POST")
	api.HandleFunc("/rents/{id}", h.Rents.GetRent).Methods("GET")
	api.HandleFunc("/rents/{id}", h.Rents.UpdateRent).Methods("PUT")
	api.HandleFunc("/rents/{id}", h.Rents.DeleteRent).Methods("DELETE")
	api.HandleFunc("/rents/{id}/pay", h.Rents.PayRent).Methods("PUT")
	api.HandleFunc("/rents/{id}/receipt", h.Rents.Receipt).Methods("GET")
	api.HandleFunc("/rents/{id}/online-order", h.Rents.CreateOnlineOrder).Methods("POST")

	// Health check endpoints
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
