package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr     string
	LogLevel slog.Level

	Session   Session
	Directory Directory
	Alert     Alert
}

// Session configures session tokens and the login round trip.
type Session struct {
	JWTSigningKey string
	TokenTTL      time.Duration
	// LoginTimeout bounds the wait on the credential verifier.
	LoginTimeout time.Duration
}

// Directory configures the demo credential verifier.
type Directory struct {
	// Latency simulates the external verifier's round trip.
	Latency      time.Duration
	DemoPassword string
}

// Alert configures the emergency alert engine.
type Alert struct {
	DispatchDelay   time.Duration
	OnSceneDelay    time.Duration
	LocateTimeout   time.Duration
	FallbackLat     float64
	FallbackLng     float64
	FallbackAddress string
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Server {
	return Server{
		Addr:     ":8080",
		LogLevel: slog.LevelInfo,
		Session: Session{
			JWTSigningKey: "dev-secret-key-change-in-production",
			TokenTTL:      8 * time.Hour,
			LoginTimeout:  5 * time.Second,
		},
		Directory: Directory{
			Latency:      300 * time.Millisecond,
			DemoPassword: "password123",
		},
		Alert: Alert{
			DispatchDelay:   3 * time.Second,
			OnSceneDelay:    8 * time.Second,
			LocateTimeout:   2 * time.Second,
			FallbackLat:     37.7749,
			FallbackLng:     -122.4194,
			FallbackAddress: "Location unavailable - Main Campus",
		},
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Unparseable values keep their defaults.
func FromEnv() Server {
	cfg := DefaultConfig()

	if addr := os.Getenv("MEDGATE_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if lvl := os.Getenv("MEDGATE_LOG_LEVEL"); lvl != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(lvl)); err == nil {
			cfg.LogLevel = level
		}
	}
	if key := os.Getenv("JWT_SIGNING_KEY"); key != "" {
		cfg.Session.JWTSigningKey = key
	}
	cfg.Session.TokenTTL = durationEnv("SESSION_TOKEN_TTL", cfg.Session.TokenTTL)
	cfg.Session.LoginTimeout = durationEnv("LOGIN_TIMEOUT", cfg.Session.LoginTimeout)

	cfg.Directory.Latency = durationEnv("DIRECTORY_LATENCY", cfg.Directory.Latency)
	if pw := os.Getenv("DEMO_PASSWORD"); pw != "" {
		cfg.Directory.DemoPassword = pw
	}

	cfg.Alert.DispatchDelay = durationEnv("ALERT_DISPATCH_DELAY", cfg.Alert.DispatchDelay)
	cfg.Alert.OnSceneDelay = durationEnv("ALERT_ON_SCENE_DELAY", cfg.Alert.OnSceneDelay)
	cfg.Alert.LocateTimeout = durationEnv("ALERT_LOCATE_TIMEOUT", cfg.Alert.LocateTimeout)
	cfg.Alert.FallbackLat = floatEnv("ALERT_FALLBACK_LAT", cfg.Alert.FallbackLat)
	cfg.Alert.FallbackLng = floatEnv("ALERT_FALLBACK_LNG", cfg.Alert.FallbackLng)
	if addr := os.Getenv("ALERT_FALLBACK_ADDRESS"); addr != "" {
		cfg.Alert.FallbackAddress = addr
	}

	return cfg
}

// Validate rejects configurations the services cannot run with.
func (c Server) Validate() error {
	var errs []error
	if c.Session.JWTSigningKey == "" {
		errs = append(errs, errors.New("jwt signing key is required"))
	}
	if c.Session.TokenTTL <= 0 {
		errs = append(errs, errors.New("session token ttl must be positive"))
	}
	if c.Alert.DispatchDelay <= 0 {
		errs = append(errs, errors.New("alert dispatch delay must be positive"))
	}
	if c.Alert.OnSceneDelay <= c.Alert.DispatchDelay {
		errs = append(errs, errors.New("alert on-scene delay must exceed dispatch delay"))
	}
	if c.Alert.FallbackLat < -90 || c.Alert.FallbackLat > 90 || c.Alert.FallbackLng < -180 || c.Alert.FallbackLng > 180 {
		errs = append(errs, errors.New("alert fallback coordinate out of range"))
	}
	return errors.Join(errs...)
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func floatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
