package controller

import (
	"net/http"

	"github.com/Casino-TAO/casino-tao-subnet/app/validator/types"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/utils"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
)

type Controller struct {
	App        *types.App
	AdminToken string
	AuthUser   string
	Users      map[string]User
	JWTSecret  []byte
}

// User is one admin login.
type User struct {
	Username string `json:"username"`
	Hash     []byte `json:"hash"`
	Role     string `json:"role"`
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	adminToken := utils.Env("ADMIN_TOKEN", "devtoken")
	adminUser := utils.Env("ADMIN_USER", "admin")
	adminUsersJSON := utils.Env("ADMIN_USERS", "")
	adminPass := utils.Env("ADMIN_PASSWORD", "admin")
	jwtSecret := []byte(utils.Env("SESSION_SECRET", "change-me-please"))

	phash, _ := utils.HashOrRead(adminPass)
	users := map[string]User{}
	users[adminUser] = User{Username: adminUser, Hash: phash, Role: "admin"}
	if adminUsersJSON != "" {
		_ = json.Unmarshal([]byte(adminUsersJSON), &users)
	}

	return &Controller{
		App:        app,
		AdminToken: adminToken,
		AuthUser:   adminUser,
		Users:      users,
		JWTSecret:  jwtSecret,
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Development: Echo back the origin to allow credentials with any origin
		// TODO: Restrict this in production to specific domains
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodDelete+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	// Score and volume reads, recomputed from the stores on demand
	r.HandleFunc("/scores", c.HandleScores).Methods(http.MethodGet)
	r.HandleFunc("/scores/{uid}", c.HandleScoreDetail).Methods(http.MethodGet)
	r.HandleFunc("/scores/{uid}/history", c.HandleScoreHistory).Methods(http.MethodGet)
	r.HandleFunc("/volumes", c.HandleVolumes).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", c.HandleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/miners", c.HandleMiners).Methods(http.MethodGet)

	// Snapshot audit log
	r.HandleFunc("/snapshots", c.HandleSnapshots).Methods(http.MethodGet)
	r.HandleFunc("/snapshots/{id}", c.HandleSnapshotByID).Methods(http.MethodGet)

	// Wallet-link registration
	r.HandleFunc("/api/wallet-mapping", c.HandleWalletMappingRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/wallet-mappings", c.HandleWalletMappingsList).Methods(http.MethodGet)
	r.HandleFunc("/api/wallet-mapping/{coldkey}", c.HandleWalletMappingResolve).Methods(http.MethodGet)
	r.Handle("/api/wallet-mapping/{coldkey}", c.RequireAdmin(http.HandlerFunc(c.HandleWalletMappingDelete))).Methods(http.MethodDelete)

	// Admin API - Login/Logout
	r.HandleFunc("/api/auth/login", c.HandleAdminLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", c.HandleAdminLogout).Methods(http.MethodPost)

	// Prometheus metrics
	r.Handle("/metrics", c.App.Metrics.Handler()).Methods(http.MethodGet)

	// WebSocket endpoint for real-time snapshot events
	r.HandleFunc("/ws", c.HandleWebSocket).Methods(http.MethodGet)

	return r, nil
}
