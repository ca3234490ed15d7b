// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/FlexiRAG/flexirag/pkg/logging"
)

// DeploymentService publishes documents as standalone query endpoints.
type DeploymentService interface {
	// ListDeployed returns the user's currently deployed documents.
	ListDeployed(ctx context.Context, userID string) ([]Deployment, error)

	// Deploy publishes a document and returns its endpoint details.
	Deploy(ctx context.Context, documentID string) (*Deployment, error)
}

// DeploymentConfig configures the deployment service.
type DeploymentConfig struct {
	// BaseURL of the backend, e.g. http://localhost:8000
	BaseURL string

	// Timeout per request. Default: DefaultRequestTimeout
	Timeout time.Duration

	// Logger for request tracing. Default: warnings and errors only
	Logger *logging.Logger
}

type deploymentService struct {
	baseURL string
	client  HTTPClient
	log     *logging.Logger
}

// NewDeploymentService creates a deployment service with the default
// HTTP client.
func NewDeploymentService(config DeploymentConfig) DeploymentService {
	if config.Timeout == 0 {
		config.Timeout = DefaultRequestTimeout
	}
	return NewDeploymentServiceWithClient(NewDefaultHTTPClient(config.Timeout), config)
}

// NewDeploymentServiceWithClient creates a deployment service with a
// custom HTTP client. Used by tests to inject mocks.
func NewDeploymentServiceWithClient(client HTTPClient, config DeploymentConfig) DeploymentService {
	log := config.Logger
	if log == nil {
		log = logging.New(logging.Config{Level: logging.LevelWarn, Service: "api"})
	}
	return &deploymentService{
		baseURL: config.BaseURL,
		client:  client,
		log:     log,
	}
}

func (s *deploymentService) ListDeployed(ctx context.Context, userID string) ([]Deployment, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}

	listURL := s.baseURL + "/deployed/?user_id=" + url.QueryEscape(userID)
	resp, err := s.client.Get(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the deployment service: %w", err)
	}

	var out []Deployment
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *deploymentService) Deploy(ctx context.Context, documentID string) (*Deployment, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document id cannot be empty")
	}

	deployURL := s.baseURL + "/deploy/" + url.PathEscape(documentID)
	resp, err := s.client.Post(ctx, deployURL, "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to reach the deployment service: %w", err)
	}

	var out Deployment
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	s.log.Debug("document deployed", "document_id", documentID, "endpoint", out.Endpoint)
	return &out, nil
}

var _ DeploymentService = (*deploymentService)(nil)
