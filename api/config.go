package api

import "time"

// Config holds the HTTP server settings. Fields are populated from the
// environment with the STRATA prefix (e.g. STRATA_LISTEN_ADDR).
type Config struct {
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8089"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// RateLimit is the sustained request rate per client IP, in
	// requests per second. Zero disables rate limiting.
	RateLimit float64 `envconfig:"RATE_LIMIT" default:"20"`
	RateBurst int     `envconfig:"RATE_BURST" default:"40"`

	// TrustProxy enables X-Real-IP / X-Forwarded-For handling when the
	// server sits behind a reverse proxy.
	TrustProxy bool `envconfig:"TRUST_PROXY" default:"false"`
}
