// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/config"
	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/api"
	"github.com/FlexiRAG/flexirag/pkg/ux"
)

func newDocumentService() api.DocumentService {
	return api.NewDocumentService(api.DocumentConfig{
		BaseURL: getAPIBaseURL(),
	})
}

func runDocsUpload(cmd *cobra.Command, args []string) {
	identity := currentIdentity()
	exts := allowedUploadExts()

	files, skipped, err := collectUploadPaths(args, exts)
	if err != nil {
		fail(err)
	}
	for _, s := range skipped {
		ux.FileStatus(s, ux.IconPending, "unsupported extension")
	}
	if len(files) == 0 {
		fail(fmt.Errorf("nothing to upload (allowed: %s)",
			strings.Join(config.Global.Uploads.AllowedExtensions, ", ")))
	}

	workers := uploadWorkers
	if workers <= 0 {
		workers = config.Global.Uploads.MaxConcurrent
	}
	if workers <= 0 {
		workers = 1
	}

	service := newDocumentService()
	ctx := context.Background()

	// Failures are reported per file; the group itself never aborts, so
	// one bad file does not sink the batch.
	var mu sync.Mutex
	var uploaded, failed int
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range files {
		g.Go(func() error {
			doc, err := service.Upload(ctx, identity.UserID, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				ux.FileStatus(path, ux.IconError, err.Error())
				return nil
			}
			uploaded++
			ux.FileStatus(path, ux.IconSuccess, doc.ID)
			return nil
		})
	}
	_ = g.Wait()

	ux.Summary(uploaded, len(skipped), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// collectUploadPaths expands the argument list into uploadable files.
// Directories are walked recursively; files failing the extension
// filter are returned as skipped. A path that does not exist is an
// error rather than a skip.
func collectUploadPaths(args []string, exts map[string]bool) (files, skipped []string, err error) {
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}

		if !info.IsDir() {
			if isUploadable(arg, exts) {
				files = append(files, arg)
			} else {
				skipped = append(skipped, arg)
			}
			continue
		}

		walkErr := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// Hidden directories hold editor and VCS state, not documents
				if strings.HasPrefix(d.Name(), ".") && path != arg {
					return filepath.SkipDir
				}
				return nil
			}
			if isUploadable(path, exts) {
				files = append(files, path)
			} else {
				skipped = append(skipped, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, nil, walkErr
		}
	}
	return files, skipped, nil
}

func runDocsList(cmd *cobra.Command, args []string) {
	identity := currentIdentity()
	service := newDocumentService()

	var docs []api.Document
	err := ux.WithSpinner("Fetching documents", func() error {
		var listErr error
		docs, listErr = service.List(context.Background(), identity.UserID)
		return listErr
	})
	if err != nil {
		fail(err)
	}

	if len(docs) == 0 {
		ux.Muted("No documents yet.")
		ux.Hint("Upload one with 'flexirag docs upload <file>'.")
		return
	}

	ux.Title(fmt.Sprintf("Documents (%d)", len(docs)))
	for _, doc := range docs {
		fmt.Printf("  %s  %-30s %s\n", ux.IconDoc.Render(), doc.FileName, doc.ID)
	}
}

func runDocsDelete(cmd *cobra.Command, args []string) {
	documentID := args[0]

	if !forceDelete {
		if !confirm(fmt.Sprintf("Delete document %s? This cannot be undone", documentID)) {
			ux.Muted("Aborted.")
			return
		}
	}

	service := newDocumentService()
	err := ux.WithSpinner("Deleting", func() error {
		return service.Delete(context.Background(), documentID)
	})
	if err != nil {
		fail(err)
	}
	ux.Success(fmt.Sprintf("Deleted %s", documentID))
}

// confirm asks a y/N question on stdin. Anything but y/yes is a no.
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
