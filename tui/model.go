// Copyright 2025 The Immi-Law Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package tui implements the interactive chat terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NamNhiBinhHipHop/immi-law/core"
	"github.com/NamNhiBinhHipHop/immi-law/deepsearch"
)

// Asker is the TUI-facing subset of the deep-search pipeline.
type Asker interface {
	Run(ctx context.Context, query, conversationContext string, monitor deepsearch.Monitor) (*deepsearch.Result, error)
}

type answerMsg struct {
	query  string
	answer string
	err    error
}

type progressMsg struct {
	fraction float64
	label    string
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	pipeline     Asker
	conversation *core.Conversation
	input        textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model
	progress     chan progressMsg
	transcript   []string
	status       string
	busy         bool
	ready        bool
}

// New creates a new chat model around a pipeline.
func New(pipeline Asker) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask an immigration question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		pipeline:     pipeline,
		conversation: core.NewConversation(core.DefaultConversationTurns),
		input:        ti,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		progress:     make(chan progressMsg, 16),
		status:       "Ready. Type a question to start.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// askCmd runs the pipeline off the UI goroutine. Progress events flow
// through the model's channel and surface as progressMsg.
func (m Model) askCmd(query string) tea.Cmd {
	history := m.conversation.Render()
	progress := m.progress

	return func() tea.Msg {
		monitor := deepsearch.MonitorFunc(func(fraction float64, label string) {
			select {
			case progress <- progressMsg{fraction: fraction, label: label}:
			default:
			}
		})

		result, err := m.pipeline.Run(context.Background(), query, history, monitor)
		if err != nil {
			return answerMsg{query: query, err: err}
		}
		return answerMsg{query: query, answer: result.Answer}
	}
}

// waitProgress delivers the next buffered progress event, if any.
func (m Model) waitProgress() tea.Cmd {
	progress := m.progress
	return func() tea.Msg {
		return <-progress
	}
}

// Update handles key, window, and pipeline events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, qh := inputBoxStyle.GetFrameSize()
		_, th := transcriptBoxStyle.GetFrameSize()
		reserved := 2 + qh + th // header + status
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-2)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				break
			}
			m.input.SetValue("")
			m.busy = true
			m.status = "Thinking..."
			m.transcript = append(m.transcript, questionStyle.Render("You: ")+query)
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, tea.Batch(m.askCmd(query), m.waitProgress(), m.spinner.Tick)
		}

	case progressMsg:
		if m.busy {
			m.status = fmt.Sprintf("%s (%.0f%%)", msg.label, msg.fraction*100)
			return m, m.waitProgress()
		}
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.conversation.Add(msg.query, msg.answer)
		m.transcript = append(m.transcript, answerStyle.Render("Assistant: ")+msg.answer, "")
		m.status = "Ready."
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := lipgloss.NewStyle().Bold(true).Render("Immi-Law Assistant")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())

	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	statusLine := statusStyle.Render(status)

	return header + "\n" + transcript + "\n" + input + "\n" + statusLine
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "No messages yet."
	}
	return strings.Join(m.transcript, "\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	answerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
