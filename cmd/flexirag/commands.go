// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/config"
	"github.com/FlexiRAG/flexirag/pkg/ux"
)

// --- Global Command Variables ---
var (
	personalityLevel string

	signinEmail string
	signinCode  string
	signinName  string
	signinPhone string

	signupName  string
	signupEmail string
	signupPhone string

	uploadWorkers int

	askDocumentID  string
	chatDocumentID string

	forceDelete bool
)

var rootCmd = &cobra.Command{
	Use:   "flexirag",
	Short: "FlexiRAG CLI: sign in, upload documents, and query them",
	Long: `FlexiRAG turns your documents into queryable knowledge.

Sign in with a one-time email passcode, upload PDFs or text files,
then ask questions against a single document or chat interactively.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.Load(); err != nil {
			fail(err)
		}
		if personalityLevel != "" {
			ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
		} else if config.Global.UX.Personality != "" {
			ux.SetPersonalityLevel(ux.ParsePersonalityLevel(config.Global.UX.Personality))
		} else {
			ux.InitPersonality()
		}
		if err := checkRoute(cmd); err != nil {
			fail(err)
		}
	},
}

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with a one-time email passcode",
	Long: `Request a passcode by email and verify it to sign in.

First-time users are asked for a display name; phone is optional.
Interactive by default; pass --email and --code for scripted use.`,
	Run: runSignin, // Defined in cmd_auth.go
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account directly (legacy backends)",
	Run:   runSignup, // Defined in cmd_auth.go
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the local session",
	Run:   runLogout, // Defined in cmd_auth.go
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	Run:   runWhoami, // Defined in cmd_auth.go
}

var statusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show account, document, and deployment summary",
	Annotations: map[string]string{annotationRequiresAuth: "true"},
	Run:         runStatus, // Defined in cmd_status.go
}

var docsCmd = &cobra.Command{
	Use:         "docs",
	Short:       "Manage uploaded documents",
	Annotations: map[string]string{annotationRequiresAuth: "true"},
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload <path>...",
	Short: "Upload files or directories of documents",
	Args:  cobra.MinimumNArgs(1),
	Run:   runDocsUpload, // Defined in cmd_docs.go
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your uploaded documents",
	Run:   runDocsList, // Defined in cmd_docs.go
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete an uploaded document",
	Args:  cobra.ExactArgs(1),
	Run:   runDocsDelete, // Defined in cmd_docs.go
}

var askCmd = &cobra.Command{
	Use:         "ask <question>",
	Short:       "Ask a single question against a document",
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationRequiresAuth: "true"},
	Run:         runAskCommand, // Defined in cmd_chat.go
}

var chatCmd = &cobra.Command{
	Use:         "chat",
	Short:       "Interactive question loop against a document",
	Annotations: map[string]string{annotationRequiresAuth: "true"},
	Run:         runChatCommand, // Defined in cmd_chat.go
}

var deploymentsCmd = &cobra.Command{
	Use:         "deployments",
	Short:       "Manage deployed document endpoints",
	Annotations: map[string]string{annotationRequiresAuth: "true"},
}

var deploymentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your documents with their deployment state",
	Run:   runDeploymentsList, // Defined in cmd_deployments.go
}

var deploymentsDeployCmd = &cobra.Command{
	Use:   "deploy <document-id>",
	Short: "Publish a document as a standalone query endpoint",
	Args:  cobra.ExactArgs(1),
	Run:   runDeploy, // Defined in cmd_deployments.go
}

var apikeyCmd = &cobra.Command{
	Use:         "apikey",
	Short:       "Manage your Gemini API key",
	Annotations: map[string]string{annotationRequiresAuth: "true"},
}

var apikeyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show whether a Gemini key is stored",
	Run:   runAPIKeyGet, // Defined in cmd_apikey.go
}

var apikeySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a Gemini API key (prompts without echo)",
	Run:   runAPIKeySet, // Defined in cmd_apikey.go
}

func init() {
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full, standard, minimal, machine")

	signinCmd.Flags().StringVar(&signinEmail, "email", "", "Email address to sign in with")
	signinCmd.Flags().StringVar(&signinCode, "code", "", "Passcode from the email (non-interactive)")
	signinCmd.Flags().StringVar(&signinName, "name", "", "Display name (first-time users)")
	signinCmd.Flags().StringVar(&signinPhone, "phone", "", "Phone number (optional)")

	signupCmd.Flags().StringVar(&signupName, "name", "", "Display name")
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Email address")
	signupCmd.Flags().StringVar(&signupPhone, "phone", "", "Phone number (optional)")

	docsUploadCmd.Flags().IntVar(&uploadWorkers, "workers", 0,
		"Parallel uploads (default from config)")
	docsDeleteCmd.Flags().BoolVarP(&forceDelete, "force", "f", false,
		"Skip the confirmation prompt")

	askCmd.Flags().StringVarP(&askDocumentID, "document", "d", "",
		"Document ID to query (defaults to your only document)")
	chatCmd.Flags().StringVarP(&chatDocumentID, "document", "d", "",
		"Document ID to chat with (prompted if omitted)")

	docsCmd.AddCommand(docsUploadCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDeleteCmd)

	deploymentsCmd.AddCommand(deploymentsListCmd)
	deploymentsCmd.AddCommand(deploymentsDeployCmd)

	apikeyCmd.AddCommand(apikeyGetCmd)
	apikeyCmd.AddCommand(apikeySetCmd)

	rootCmd.AddCommand(signinCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(deploymentsCmd)
	rootCmd.AddCommand(apikeyCmd)
}
