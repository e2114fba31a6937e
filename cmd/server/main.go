package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/arnavp/treasurer/internal/auth"
	"github.com/arnavp/treasurer/internal/service"
	"github.com/arnavp/treasurer/internal/storage/sqlite"
	"github.com/arnavp/treasurer/pkg/logging"
)

const (
	jwtTokenDuration = 24 * time.Hour // Tokens valid for 24 hours
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// Setup colored structured logging (level from LOG_LEVEL env, default INFO)
	logging.Setup()

	// Read configuration from environment
	jwtSecret := getEnv("JWT_SECRET", "dev-secret-do-not-use-in-production")
	if jwtSecret == "dev-secret-do-not-use-in-production" {
		slog.Warn("JWT_SECRET not set - using insecure default. Set JWT_SECRET for production.")
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		slog.Error("Invalid PORT value", "port", portStr, "error", err)
		os.Exit(1)
	}

	corsOrigin := getEnv("CORS_ORIGIN", "*")
	if corsOrigin == "*" {
		slog.Warn("CORS_ORIGIN is set to wildcard '*'. Set CORS_ORIGIN to your domain for production.")
	}

	tlsCertFile := getEnv("TLS_CERT_FILE", "")
	tlsKeyFile := getEnv("TLS_KEY_FILE", "")

	dbPath := getEnv("DB_PATH", "./data/treasurer.db")

	// Initialize SQLite storage
	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	engine, err := service.NewEngine(context.Background(), store)
	if err != nil {
		slog.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}

	// Initialize authentication components
	jwtManager := auth.NewJWTManager(jwtSecret, jwtTokenDuration)
	passwordAuth := auth.NewPasswordAuthenticator(store)
	authHandler := service.NewAuthHandler(passwordAuth, jwtManager)

	mux := http.NewServeMux()
	service.RegisterRoutes(mux, engine, authHandler, jwtManager)

	// Add CORS middleware
	handler := corsMiddleware(mux, corsOrigin)

	addr := fmt.Sprintf(":%d", port)

	// TLS mode: both cert and key must be set (or neither)
	if tlsCertFile != "" && tlsKeyFile != "" {
		// TLS negotiates HTTP/2 natively via ALPN — no h2c wrapper needed
		server := &http.Server{
			Addr:    addr,
			Handler: handler,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		}
		slog.Info("Server starting with TLS", "address", addr, "url", fmt.Sprintf("https://localhost%s", addr))
		if err := server.ListenAndServeTLS(tlsCertFile, tlsKeyFile); err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	} else if tlsCertFile != "" || tlsKeyFile != "" {
		slog.Error("Both TLS_CERT_FILE and TLS_KEY_FILE must be set (or neither)")
		os.Exit(1)
	} else {
		// No TLS — use h2c for HTTP/2 without TLS (local dev)
		h2cHandler := h2c.NewHandler(handler, &http2.Server{})
		slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := http.ListenAndServe(addr, h2cHandler); err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
