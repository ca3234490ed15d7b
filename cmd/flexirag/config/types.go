// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

type FlexiragConfig struct {
	// API: where the FlexiRAG backend lives
	API APIConfig `yaml:"api"`

	// Uploads: document ingestion behavior
	Uploads UploadConfig `yaml:"uploads"`

	// UX: terminal output preferences
	UX UXConfig `yaml:"ux"`

	// Logging: optional file logging
	Logging LoggingConfig `yaml:"logging"`
}

type APIConfig struct {
	BaseURL        string `yaml:"base_url"`        // e.g. http://localhost:8000
	TimeoutSeconds int    `yaml:"timeout_seconds"` // per-request timeout
}

type UploadConfig struct {
	// MaxConcurrent caps parallel uploads when ingesting a directory
	MaxConcurrent int `yaml:"max_concurrent"`

	// AllowedExtensions filters which files are ingested
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type UXConfig struct {
	// Personality can be "full", "standard", "minimal", or "machine"
	Personality string `yaml:"personality"`
}

type LoggingConfig struct {
	// Dir enables JSON file logs when set, e.g. ~/.flexirag/logs
	Dir string `yaml:"dir"`

	// Level is the minimum level: debug, info, warn, error
	Level string `yaml:"level"`
}

func DefaultConfig() FlexiragConfig {
	return FlexiragConfig{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 60,
		},
		Uploads: UploadConfig{
			MaxConcurrent:     4,
			AllowedExtensions: []string{".pdf", ".txt", ".md", ".docx", ".html"},
		},
		UX: UXConfig{
			Personality: "full",
		},
		Logging: LoggingConfig{
			Dir:   "",
			Level: "info",
		},
	}
}
