// Package tui implements the interactive agencyd session: a BubbleTea
// prompt that submits each line to the processing engine and renders the
// outcome, with direct access to the memory and metadata capabilities.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/fyrsmithlabs/agencyd/internal/memory"
	"github.com/fyrsmithlabs/agencyd/internal/metadata"
	"github.com/fyrsmithlabs/agencyd/internal/processor"
)

const processTimeout = 30 * time.Second

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// processedMsg carries one processing outcome back into the update loop.
type processedMsg struct {
	input  string
	result processor.Result
	err    error
}

// recalledMsg carries memory recall results back into the update loop.
type recalledMsg struct {
	query   string
	recalls []memory.Recall
	err     error
}

// Model is the BubbleTea model for an interactive session.
type Model struct {
	engine    processor.Engine
	mem       *memory.Store
	meta      *metadata.Aggregator
	sessionID string

	input    textinput.Model
	history  []string
	busy     bool
	quitting bool
}

// New creates an interactive session model.
func New(engine processor.Engine, mem *memory.Store, meta *metadata.Aggregator) Model {
	input := textinput.New()
	input.Placeholder = "content to process (:meta, :recall <query>, :q)"
	input.Focus()
	input.CharLimit = 4096

	return Model{
		engine:    engine,
		mem:       mem,
		meta:      meta,
		sessionID: uuid.New().String(),
		input:     input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case processedMsg:
		m.busy = false
		m.history = append(m.history, renderOutcome(msg))
		return m, nil

	case recalledMsg:
		m.busy = false
		m.history = append(m.history, renderRecalls(msg))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit dispatches the current input line.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if line == "" || m.busy {
		return m, nil
	}

	switch {
	case line == ":q" || line == ":quit":
		m.quitting = true
		return m, tea.Quit

	case line == ":meta":
		m.history = append(m.history, renderMetadata(m.meta.Snapshot(true)))
		return m, nil

	case strings.HasPrefix(line, ":recall "):
		query := strings.TrimSpace(strings.TrimPrefix(line, ":recall "))
		m.busy = true
		return m, recallCmd(m.mem, query)

	default:
		m.busy = true
		m.history = append(m.history, promptStyle.Render("> "+line))
		return m, processCmd(m.engine, line)
	}
}

// processCmd runs the engine off the update loop.
func processCmd(engine processor.Engine, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()

		result, err := engine.Process(ctx, processor.Request{Content: content})
		return processedMsg{input: content, result: result, err: err}
	}
}

// recallCmd queries the memory store off the update loop.
func recallCmd(mem *memory.Store, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()

		recalls, err := mem.Recall(ctx, query, 0)
		return recalledMsg{query: query, recalls: recalls, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf(" agencyd interactive · session %s ", shortID(m.sessionID))))
	b.WriteString("\n\n")

	for _, line := range m.history {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(dimStyle.Render("processing..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

// renderOutcome formats one processing result for the history.
func renderOutcome(msg processedMsg) string {
	if msg.err != nil {
		return errorStyle.Render("error: " + msg.err.Error())
	}
	if !msg.result.OK {
		return errorStyle.Render("rejected: input was empty or invalid")
	}

	out := outputStyle.Render(msg.result.Output) +
		dimStyle.Render(fmt.Sprintf("  (%d tokens, %d related)", msg.result.Tokens, len(msg.result.Related)))
	return out
}

// renderRecalls formats memory recall results for the history.
func renderRecalls(msg recalledMsg) string {
	if msg.err != nil {
		return errorStyle.Render("recall error: " + msg.err.Error())
	}
	if len(msg.recalls) == 0 {
		return dimStyle.Render("no memories match " + msg.query)
	}

	var b strings.Builder
	b.WriteString(dimStyle.Render("recalled for " + msg.query + ":"))
	for _, r := range msg.recalls {
		b.WriteString("\n  ")
		b.WriteString(outputStyle.Render(r.Content))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  [%.2f]", r.Score)))
	}
	return b.String()
}

// renderMetadata formats a metadata snapshot with stable key order.
func renderMetadata(snap map[string]any) string {
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(dimStyle.Render("metadata:"))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("\n  %s: %v", promptStyle.Render(k), snap[k]))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Run starts the interactive session and blocks until the user quits.
func Run(engine processor.Engine, mem *memory.Store, meta *metadata.Aggregator) error {
	program := tea.NewProgram(New(engine, mem, meta))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("interactive session: %w", err)
	}
	return nil
}
