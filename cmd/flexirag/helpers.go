// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/config"
	"github.com/FlexiRAG/flexirag/pkg/ux"
)

const (
	// DefaultAPIHost is used when neither the environment nor the config
	// file names a backend.
	DefaultAPIHost = "localhost"

	// DefaultAPIPort matches the backend's default bind port.
	DefaultAPIPort = "8000"
)

// getAPIBaseURL resolves the backend URL. The FLEXIRAG_API_URL
// environment variable wins, then the config file, then the local
// default. A trailing slash is stripped so path joins stay predictable.
func getAPIBaseURL() string {
	if url := os.Getenv("FLEXIRAG_API_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}
	if config.Global.API.BaseURL != "" {
		return strings.TrimRight(config.Global.API.BaseURL, "/")
	}
	return fmt.Sprintf("http://%s:%s", DefaultAPIHost, DefaultAPIPort)
}

// requestTimeout returns the per-request timeout from config.
func requestTimeout() time.Duration {
	seconds := config.Global.API.TimeoutSeconds
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}

// allowedUploadExts builds the extension filter from config. Keys are
// lowercase with the leading dot, e.g. ".pdf".
func allowedUploadExts() map[string]bool {
	exts := make(map[string]bool, len(config.Global.Uploads.AllowedExtensions))
	for _, e := range config.Global.Uploads.AllowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return exts
}

// isUploadable reports whether a path passes the extension filter.
func isUploadable(path string, exts map[string]bool) bool {
	return exts[strings.ToLower(filepath.Ext(path))]
}

// fail prints the error through ux and exits. Used by the Run handlers
// where the command cannot continue.
func fail(err error) {
	ux.Error(err.Error())
	os.Exit(1)
}
