// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/api"
	"github.com/FlexiRAG/flexirag/pkg/ux"
)

func newDeploymentService() api.DeploymentService {
	return api.NewDeploymentService(api.DeploymentConfig{
		BaseURL: getAPIBaseURL(),
	})
}

func runDeploymentsList(cmd *cobra.Command, args []string) {
	identity := currentIdentity()
	docService := newDocumentService()
	depService := newDeploymentService()
	ctx := context.Background()

	var docs []api.Document
	var deployed []api.Deployment
	err := ux.WithSpinner("Fetching deployments", func() error {
		var listErr error
		if docs, listErr = docService.List(ctx, identity.UserID); listErr != nil {
			return listErr
		}
		deployed, listErr = depService.ListDeployed(ctx, identity.UserID)
		return listErr
	})
	if err != nil {
		fail(err)
	}

	if len(docs) == 0 {
		ux.Muted("No documents yet.")
		return
	}

	// Documents are listed once each, merged with their deployment if
	// one exists.
	deployedByDoc := make(map[string]api.Deployment, len(deployed))
	for _, dep := range deployed {
		deployedByDoc[dep.DocumentID] = dep
	}

	ux.Title("Deployments")
	for _, doc := range docs {
		dep, ok := deployedByDoc[doc.ID]
		if !ok {
			fmt.Printf("  %s  %-30s not deployed\n", ux.IconPending.Render(), doc.FileName)
			continue
		}
		key := ""
		if dep.RequiresAPIKey {
			key = fmt.Sprintf("  %s key required", ux.IconKey.Render())
		}
		fmt.Printf("  %s  %-30s %s%s\n", ux.IconSuccess.Render(), doc.FileName, dep.Endpoint, key)
	}
}

func runDeploy(cmd *cobra.Command, args []string) {
	documentID := args[0]
	service := newDeploymentService()

	var dep *api.Deployment
	err := ux.WithSpinner("Deploying", func() error {
		var deployErr error
		dep, deployErr = service.Deploy(context.Background(), documentID)
		return deployErr
	})
	if err != nil {
		fail(err)
	}

	ux.Success(fmt.Sprintf("Deployed %s", dep.FileName))
	ux.KeyValue("Endpoint", dep.Endpoint)
	if dep.Instructions != "" {
		ux.Box("How to query it", dep.Instructions)
	}
	if dep.RequiresAPIKey {
		ux.Hint("This endpoint needs your Gemini key. Store one with 'flexirag apikey set'.")
	}
}
