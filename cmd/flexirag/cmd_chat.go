// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/api"
	"github.com/FlexiRAG/flexirag/pkg/ux"
)

func newQueryService() api.QueryService {
	return api.NewQueryService(api.QueryConfig{
		BaseURL: getAPIBaseURL(),
	})
}

func runAskCommand(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")

	doc, err := resolveDocument(askDocumentID)
	if err != nil {
		fail(err)
	}

	service := newQueryService()
	var resp *api.QueryResponse
	err = ux.WithSpinner("Thinking", func() error {
		var queryErr error
		resp, queryErr = service.Query(context.Background(), doc.ID, question)
		return queryErr
	})
	if err != nil {
		fail(err)
	}

	printAnswer(resp)
}

func runChatCommand(cmd *cobra.Command, args []string) {
	doc, err := resolveDocument(chatDocumentID)
	if err != nil {
		fail(err)
	}

	runner := NewDocChatRunner(DocChatRunnerConfig{
		Service:    newQueryService(),
		DocumentID: doc.ID,
		FileName:   doc.FileName,
	})
	defer runner.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fail(err)
	}
}

// resolveDocument turns the --document flag into a document. Without a
// flag: a sole document is used directly, several become an interactive
// pick, and none is an error.
func resolveDocument(documentID string) (*api.Document, error) {
	identity := currentIdentity()
	service := newDocumentService()

	var docs []api.Document
	err := ux.WithSpinner("Fetching documents", func() error {
		var listErr error
		docs, listErr = service.List(context.Background(), identity.UserID)
		return listErr
	})
	if err != nil {
		return nil, err
	}

	if documentID != "" {
		for i := range docs {
			if docs[i].ID == documentID {
				return &docs[i], nil
			}
		}
		return nil, fmt.Errorf("document %s not found; run 'flexirag docs list'", documentID)
	}

	switch len(docs) {
	case 0:
		return nil, errors.New("no documents yet; upload one with 'flexirag docs upload <file>'")
	case 1:
		return &docs[0], nil
	}

	if !ux.IsInteractive() {
		return nil, errors.New("several documents available; pass --document <id>")
	}

	options := make([]huh.Option[int], len(docs))
	for i, doc := range docs {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", doc.FileName, doc.ID), i)
	}
	var picked int
	err = huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title("Which document?").
			Options(options...).
			Value(&picked),
	)).Run()
	if err != nil {
		return nil, err
	}
	return &docs[picked], nil
}
