// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"context"
	"strings"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/rag"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newChatCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Long:  "Open a terminal session that streams answers about the indexed documents. Esc stops an answer, Ctrl+C quits.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, v)
		},
	}

	cmd.Flags().StringP("provider", "p", "", "provider that answers (default from config)")
	cmd.Flags().StringP("file", "f", "", "restrict retrieval to this document")

	return cmd
}

func runChat(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	app, err := Wire(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	name, _ := cmd.Flags().GetString("provider")
	file, _ := cmd.Flags().GetString("file")

	p, err := app.Registry.Get(cmd.Context(), name)
	if err != nil {
		return err
	}

	prog := tea.NewProgram(newChatModel(p, p.Provider().Name(), file),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, err = prog.Run()
	return err
}

// querier is the pipeline surface the chat model drives.
type querier interface {
	Query(ctx context.Context, req rag.QueryRequest) <-chan string
}

type (
	fragmentMsg  string
	streamEndMsg struct{}
)

func nextFragment(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		frag, ok := <-ch
		if !ok {
			return streamEndMsg{}
		}
		return fragmentMsg(frag)
	}
}

// chatModel is the Bubble Tea model of the chat session.
type chatModel struct {
	q        querier
	provider string
	file     string

	input    textinput.Model
	viewport viewport.Model
	ready    bool

	transcript []string
	answer     string
	stream     <-chan string
	cancel     context.CancelFunc
	status     string
}

func newChatModel(q querier, providerName, file string) chatModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	status := "Ready."
	if file != "" {
		status = "Ready. Answers use " + file + " only."
	}
	return chatModel{
		q:        q,
		provider: providerName,
		file:     file,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   status,
	}
}

func (m chatModel) Init() tea.Cmd { return textinput.Blink }

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.stop()
			return m, tea.Quit
		case tea.KeyEsc:
			if m.stream != nil {
				m.stop()
				m.status = "Stopped."
			}
			return m, nil
		case tea.KeyEnter:
			return m.ask()
		}

	case fragmentMsg:
		if m.stream == nil {
			return m, nil
		}
		m.answer += string(msg)
		m.refresh()
		return m, nextFragment(m.stream)

	case streamEndMsg:
		m.transcript = append(m.transcript, answerStyle.Render(m.provider+":")+" "+m.answer)
		m.answer = ""
		m.stream = nil
		m.stop()
		if m.status != "Stopped." {
			m.status = "Ready."
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) ask() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		return m, nil
	}
	if m.stream != nil {
		m.status = "Still answering. Press Esc to stop."
		return m, nil
	}
	m.input.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.stream = m.q.Query(ctx, rag.QueryRequest{Text: q, Filename: m.file})
	m.transcript = append(m.transcript, userStyle.Render("You:")+" "+q)
	m.status = "Answering..."
	m.refresh()
	return m, nextFragment(m.stream)
}

func (m *chatModel) stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.render())
	m.viewport.GotoBottom()
}

func (m chatModel) render() string {
	if len(m.transcript) == 0 && m.answer == "" {
		return hintStyle.Render("No questions yet.")
	}
	parts := append([]string(nil), m.transcript...)
	if m.stream != nil {
		parts = append(parts, answerStyle.Render(m.provider+":")+" "+m.answer)
	}
	return lipgloss.NewStyle().Width(m.viewport.Width).Render(strings.Join(parts, "\n\n"))
}

func (m chatModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("LightRAG chat") + hintStyle.Render("  provider: "+m.provider)
	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(m.status)
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	answerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
