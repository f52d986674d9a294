// Package config handles loading and validating application configuration.
package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// ReminderConfig contains the reminder pipeline settings. Redelivery timing
// and the attempt ceiling are deliberately configuration, not constants.
type ReminderConfig struct {
	// ScanInterval is how often the scanner looks for tasks approaching
	// their due date.
	ScanInterval time.Duration `mapstructure:"scan_interval" validate:"required"`

	// Horizon is how far ahead of now a due date must fall for a reminder
	// to be enqueued.
	Horizon time.Duration `mapstructure:"horizon" validate:"required"`

	// WorkerCount is the number of concurrent delivery workers.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// LeaseDuration is how long a worker owns a leased job before the
	// reaper returns it to the pending state. Must comfortably exceed the
	// notifier timeout.
	LeaseDuration time.Duration `mapstructure:"lease_duration" validate:"required"`

	// MaxAttempts is the number of delivery attempts before a job is
	// dead-lettered.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// PollInterval is the worker backoff when the queue is empty.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required"`

	// NotifyTimeout bounds a single notifier call.
	NotifyTimeout time.Duration `mapstructure:"notify_timeout" validate:"required"`
}
