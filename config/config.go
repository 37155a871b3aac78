// Package config loads server configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/checkin-engine/gamify"
)

type Config struct {
	App     AppConfig
	CheckIn CheckInConfig
}

type AppConfig struct {
	Port   int
	DBPath string
}

// CheckInConfig holds the raw check-in policy knobs before they are
// resolved into gamify.Settings.
type CheckInConfig struct {
	BaseURL       string
	Timezone      string
	WindowStart   string // HH:MM
	WindowEnd     string // HH:MM
	EarlyUntil    string // HH:MM
	OnTimeUntil   string // HH:MM
	LateUntil     string // HH:MM
	Strategy      string
	ManualVersion int
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	manualVersion, err := strconv.Atoi(getEnv("CHECKIN_MANUAL_VERSION", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKIN_MANUAL_VERSION: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Port:   appPort,
			DBPath: getEnv("DB_PATH", "checkin.db"),
		},
		CheckIn: CheckInConfig{
			BaseURL:       getEnv("CHECKIN_BASE_URL", "https://checkin.example.com/scan"),
			Timezone:      getEnv("CHECKIN_TIMEZONE", "UTC"),
			WindowStart:   getEnv("CHECKIN_WINDOW_START", "06:00"),
			WindowEnd:     getEnv("CHECKIN_WINDOW_END", "10:00"),
			EarlyUntil:    getEnv("CHECKIN_EARLY_UNTIL", "07:45"),
			OnTimeUntil:   getEnv("CHECKIN_ONTIME_UNTIL", "08:15"),
			LateUntil:     getEnv("CHECKIN_LATE_UNTIL", "09:00"),
			Strategy:      getEnv("CHECKIN_ROTATION", "daily"),
			ManualVersion: manualVersion,
		},
	}
	return config, nil
}

// Settings resolves the raw config into validated engine settings.
func (c *Config) Settings() (gamify.Settings, error) {
	s := gamify.DefaultSettings()
	s.BaseURL = c.CheckIn.BaseURL
	s.ManualVersion = c.CheckIn.ManualVersion

	loc, err := time.LoadLocation(c.CheckIn.Timezone)
	if err != nil {
		return s, fmt.Errorf("invalid CHECKIN_TIMEZONE: %w", err)
	}
	s.Timezone = loc

	strategy, ok := gamify.ParseRotationStrategy(c.CheckIn.Strategy)
	if !ok {
		return s, fmt.Errorf("invalid CHECKIN_ROTATION: %q", c.CheckIn.Strategy)
	}
	s.Strategy = strategy

	for _, field := range []struct {
		name  string
		value string
		dst   *int
	}{
		{"CHECKIN_WINDOW_START", c.CheckIn.WindowStart, &s.WindowStart},
		{"CHECKIN_WINDOW_END", c.CheckIn.WindowEnd, &s.WindowEnd},
		{"CHECKIN_EARLY_UNTIL", c.CheckIn.EarlyUntil, &s.EarlyThreshold},
		{"CHECKIN_ONTIME_UNTIL", c.CheckIn.OnTimeUntil, &s.OnTimeThreshold},
		{"CHECKIN_LATE_UNTIL", c.CheckIn.LateUntil, &s.LateThreshold},
	} {
		minute, err := gamify.ParseClockTime(field.value)
		if err != nil {
			return s, fmt.Errorf("invalid %s: %w", field.name, err)
		}
		*field.dst = minute
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
