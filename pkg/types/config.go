// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the configuration structures shared across the
// harvester's packages.
package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mag-harvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the harvest stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Count is the page size requested per evaluate call (default 1000).
	Count int `json:"count" yaml:"count"`

	// Offset is the starting offset (default 0).
	Offset int `json:"offset" yaml:"offset"`

	// Model is the API model version (default "latest").
	Model string `json:"model" yaml:"model"`

	// Attributes is the comma-separated attribute-code list. Empty uses
	// the built-in default.
	Attributes string `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	// MaxResults caps the total entities retrieved (0 = unbounded).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PageDelay is the pause between page fetches (default 3.1s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// FosDelay is the pacing interval between field-of-study lookups
	// (default 200ms).
	FosDelay time.Duration `json:"fos_delay" yaml:"fos_delay"`

	// SubscriptionKey authenticates against the API. Usually supplied
	// via .secrets/mag-subscription-key instead.
	SubscriptionKey string `json:"subscription_key,omitempty" yaml:"subscription_key,omitempty"`
}

// StoreConfig holds settings for the local publication index.
type StoreConfig struct {
	// Path is the SQLite database file (default "index/publications.db").
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LoggingConfig holds settings for the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" yaml:"level"`

	// Format is the output format: json or console.
	Format string `json:"format" yaml:"format"`
}

// Config groups all stage configurations.
type Config struct {
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}
