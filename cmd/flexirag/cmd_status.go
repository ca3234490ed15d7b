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

func runStatus(cmd *cobra.Command, args []string) {
	identity := currentIdentity()
	ctx := context.Background()

	docService := newDocumentService()
	depService := newDeploymentService()
	keyService := newKeyService()

	var docs []api.Document
	var deployed []api.Deployment
	var keyResp *api.APIKeyResponse
	err := ux.WithSpinner("Fetching status", func() error {
		var statusErr error
		if docs, statusErr = docService.List(ctx, identity.UserID); statusErr != nil {
			return statusErr
		}
		if deployed, statusErr = depService.ListDeployed(ctx, identity.UserID); statusErr != nil {
			return statusErr
		}
		keyResp, statusErr = keyService.GetGeminiKey(ctx, identity.UserID)
		return statusErr
	})
	if err != nil {
		fail(err)
	}

	ux.Title("FlexiRAG status")
	ux.KeyValue("Account", fmt.Sprintf("%s <%s>", identity.Name, identity.Email))
	ux.KeyValue("Backend", getAPIBaseURL())
	ux.KeyValue("Documents", fmt.Sprintf("%d", len(docs)))
	ux.KeyValue("Deployed", fmt.Sprintf("%d", len(deployed)))
	if keyResp.GeminiAPIKey != "" {
		ux.KeyValue("Gemini key", "stored")
	} else {
		ux.KeyValue("Gemini key", "not set")
	}

	if len(docs) == 0 {
		ux.Hint("Upload your first document with 'flexirag docs upload <file>'.")
	}
}
