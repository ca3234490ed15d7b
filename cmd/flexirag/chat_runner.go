// Copyright (C) 2025 FlexiRAG (support@flexirag.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package main contains the FlexiRAG CLI chat runner.
//
// This file defines the input abstractions and the loop that turns a
// terminal into a question session against one document:
//
//	cmd_chat.go → DocChatRunner → QueryService (internal/api)
//	                              InputReader (stdin abstraction)
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/FlexiRAG/flexirag/cmd/flexirag/internal/api"
	"github.com/FlexiRAG/flexirag/pkg/ux"
)

// =============================================================================
// Input Abstractions
// =============================================================================

// InputReader abstracts line-oriented user input so the chat loop can
// be driven by stdin in production and by a fixed script in tests.
// ReadLine returns the trimmed line, or io.EOF when input is exhausted.
type InputReader interface {
	ReadLine() (string, error)
}

// PromptingInputReader is implemented by readers that draw their own
// prompt. The runner checks for it to avoid double-prompting.
type PromptingInputReader interface {
	InputReader
	SetPrompt(prompt string)
}

// StdinReader reads lines from os.Stdin. Not safe for concurrent use.
type StdinReader struct {
	reader *bufio.Reader
}

// NewStdinReader wraps os.Stdin for line-based reading.
func NewStdinReader() *StdinReader {
	return &StdinReader{reader: bufio.NewReader(os.Stdin)}
}

// ReadLine blocks until a newline or EOF and returns the trimmed line.
func (r *StdinReader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// InteractiveInputReader (history + line editing)
// =============================================================================

// InteractiveInputReader provides up-arrow history and line editing via
// bubbletea. History is in-memory only. Not safe for concurrent use.
type InteractiveInputReader struct {
	history      []string
	historyIndex int
	maxHistory   int
	prompt       string
}

// NewInteractiveInputReader creates an interactive reader with history.
// Falls back to a plain StdinReader when stdin is not a TTY (piped
// input, CI).
func NewInteractiveInputReader(maxHistory int) InputReader {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewStdinReader()
	}
	return &InteractiveInputReader{
		history:      make([]string, 0, maxHistory),
		historyIndex: -1,
		maxHistory:   maxHistory,
		prompt:       "> ",
	}
}

// SetPrompt sets the prompt drawn by the textinput component.
func (r *InteractiveInputReader) SetPrompt(prompt string) {
	r.prompt = prompt
}

// ReadLine runs one bubbletea prompt. Enter submits, Ctrl+C clears,
// Ctrl+D returns io.EOF. Non-empty submissions enter the history.
func (r *InteractiveInputReader) ReadLine() (string, error) {
	ti := textinput.New()
	ti.Prompt = r.prompt
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 80

	m := questionInputModel{
		textInput:    ti,
		history:      r.history,
		historyIndex: -1,
	}

	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	result, ok := finalModel.(questionInputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", finalModel)
	}

	if result.eof && result.textInput.Value() == "" {
		return "", io.EOF
	}

	input := strings.TrimSpace(result.textInput.Value())
	if input != "" {
		r.addToHistory(input)
	}
	return input, nil
}

func (r *InteractiveInputReader) addToHistory(input string) {
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}
	r.history = append(r.history, input)
	if len(r.history) > r.maxHistory {
		r.history = r.history[1:]
	}
}

// questionInputModel is the bubbletea model behind ReadLine.
type questionInputModel struct {
	textInput    textinput.Model
	history      []string
	historyIndex int
	currentInput string
	eof          bool
	done         bool
}

func (m questionInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m questionInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlC:
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlD:
			m.eof = true
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyUp:
			if len(m.history) == 0 {
				return m, nil
			}
			if m.historyIndex == -1 {
				m.currentInput = m.textInput.Value()
				m.historyIndex = len(m.history) - 1
			} else if m.historyIndex > 0 {
				m.historyIndex--
			}
			m.textInput.SetValue(m.history[m.historyIndex])
			m.textInput.CursorEnd()
			return m, nil

		case tea.KeyDown:
			if m.historyIndex == -1 {
				return m, nil
			}
			if m.historyIndex < len(m.history)-1 {
				m.historyIndex++
				m.textInput.SetValue(m.history[m.historyIndex])
			} else {
				m.historyIndex = -1
				m.textInput.SetValue(m.currentInput)
			}
			m.textInput.CursorEnd()
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m questionInputModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}

// =============================================================================
// MockInputReader (for testing)
// =============================================================================

// MockInputReader returns predetermined inputs in order, then io.EOF.
type MockInputReader struct {
	inputs []string
	index  int
}

// NewMockInputReader creates a reader over a fixed input script.
func NewMockInputReader(inputs []string) *MockInputReader {
	return &MockInputReader{inputs: inputs}
}

// ReadLine returns the next scripted input, or io.EOF when exhausted.
func (m *MockInputReader) ReadLine() (string, error) {
	if m.index >= len(m.inputs) {
		return "", io.EOF
	}
	line := m.inputs[m.index]
	m.index++
	return line, nil
}

// =============================================================================
// DocChatRunner
// =============================================================================

// DocChatRunnerConfig configures a DocChatRunner.
type DocChatRunnerConfig struct {
	// Service answers the questions. Required.
	Service api.QueryService

	// DocumentID is the document every question targets. Required.
	DocumentID string

	// FileName is shown in the session banner. Optional.
	FileName string

	// Reader supplies the questions. Default: interactive with history.
	Reader InputReader
}

// DocChatRunner loops questions against one document until the user
// types "exit" or "quit", sends EOF, or the context is cancelled. Each
// turn is an independent request; the backend holds no conversation
// state for it.
type DocChatRunner struct {
	service    api.QueryService
	reader     InputReader
	documentID string
	fileName   string
	turns      int
}

// NewDocChatRunner creates a runner. A nil Reader gets an interactive
// reader with a 50-entry history.
func NewDocChatRunner(config DocChatRunnerConfig) *DocChatRunner {
	reader := config.Reader
	if reader == nil {
		reader = NewInteractiveInputReader(50)
	}
	return &DocChatRunner{
		service:    config.Service,
		reader:     reader,
		documentID: config.DocumentID,
		fileName:   config.FileName,
	}
}

// Run executes the question loop. Normal exit returns nil; context
// cancellation returns ctx.Err().
func (r *DocChatRunner) Run(ctx context.Context) error {
	banner := r.documentID
	if r.fileName != "" {
		banner = r.fileName
	}
	ux.Title(fmt.Sprintf("Chatting with %s", banner))
	ux.Hint("Type 'exit' to finish. Up arrow recalls earlier questions.")

	prompt := "❯ "
	prompting, ownPrompt := r.reader.(PromptingInputReader)
	if ownPrompt {
		prompting.SetPrompt(prompt)
	}

	for {
		select {
		case <-ctx.Done():
			r.printSummary()
			return ctx.Err()
		default:
		}

		if !ownPrompt {
			fmt.Print(prompt)
		}
		question, err := r.reader.ReadLine()
		if err == io.EOF {
			r.printSummary()
			return nil
		}
		if err != nil {
			return err
		}
		if question == "" {
			continue
		}
		if isExitCommand(question) {
			r.printSummary()
			return nil
		}

		var resp *api.QueryResponse
		err = ux.WithSpinner("Thinking", func() error {
			var queryErr error
			resp, queryErr = r.service.Query(ctx, r.documentID, question)
			return queryErr
		})
		if err != nil {
			// One failed question does not end the session
			ux.Error(err.Error())
			continue
		}

		r.turns++
		printAnswer(resp)
	}
}

// Close releases runner resources. Safe to call multiple times.
func (r *DocChatRunner) Close() error {
	return nil
}

func (r *DocChatRunner) printSummary() {
	if r.turns > 0 {
		ux.Muted(fmt.Sprintf("%d questions answered.", r.turns))
	}
}

// printAnswer renders a grounded answer with its supporting passages.
func printAnswer(resp *api.QueryResponse) {
	fmt.Printf("\n%s\n", resp.Answer)
	sources := resp.Sources
	if len(sources) == 0 {
		sources = resp.SourceDocuments
	}
	if len(sources) > 0 {
		ux.Muted("Sources:")
		for i, source := range sources {
			ux.Muted(fmt.Sprintf("  %d. %s", i+1, source))
		}
	}
	fmt.Println()
}

// isExitCommand reports whether the input ends the session. Matches
// "exit" and "quit", case-sensitive, on already-trimmed input.
func isExitCommand(input string) bool {
	return input == "exit" || input == "quit"
}
