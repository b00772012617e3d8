package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/tasks"
)

// DefaultVisible is how many backlog entries the prompt shows at once.
const DefaultVisible = 15

var (
	_ tasks.Confirmer = (*PromptConfirmer)(nil)
	_ tasks.Confirmer = (*LineConfirmer)(nil)
	_ tea.Model       = (*PromptModel)(nil)
)

// Affirmative reports whether answer confirms: "y" or "yes", case-insensitive and trimmed.
func Affirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Question is the confirmation question for n pending tracks.
func Question(n int) string {
	return fmt.Sprintf("Scrobble %d tracks to Last.fm? [y/N] ", n)
}

// PromptModel is the bubbletea model behind [PromptConfirmer].
type PromptModel struct {
	backlog []models.Play
	visible int
	offset  int
	input   textinput.Model
	help    help.Model
	keys    keyMap

	answered bool
	aborted  bool
}

// NewPromptModel creates a focused prompt for backlog.
func NewPromptModel(backlog []models.Play) *PromptModel {
	input := textinput.New()
	input.Placeholder = "y/N"
	input.Prompt = Question(len(backlog))
	input.CharLimit = 8
	input.Focus()

	return &PromptModel{
		backlog: backlog,
		visible: DefaultVisible,
		input:   input,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Answer is the text entered before enter was pressed.
func (m *PromptModel) Answer() string { return m.input.Value() }

// Answered reports whether the operator submitted an answer.
func (m *PromptModel) Answered() bool { return m.answered }

// Aborted reports whether the operator left the prompt without answering.
func (m *PromptModel) Aborted() bool { return m.aborted }

// Confirmed reports whether the submitted answer is affirmative.
func (m *PromptModel) Confirmed() bool { return m.answered && Affirmative(m.Answer()) }

func (m *PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if v := msg.Height - 8; v > 0 && v < DefaultVisible {
			m.visible = v
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.submit):
			m.answered = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.up):
			m.scroll(-1)
			return m, nil
		case key.Matches(msg, m.keys.down):
			m.scroll(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *PromptModel) scroll(delta int) {
	last := max(len(m.backlog)-m.visible, 0)
	m.offset = min(max(m.offset+delta, 0), last)
}

func (m *PromptModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title(fmt.Sprintf("%d new tracks found on YouTube Music", len(m.backlog))))
	b.WriteString("\n")

	end := min(m.offset+m.visible, len(m.backlog))
	for i := m.offset; i < end; i++ {
		fmt.Fprintf(&b, "  %3d. %s\n", i+1, m.backlog[i])
	}
	if hidden := len(m.backlog) - (end - m.offset); hidden > 0 {
		b.WriteString(styles.Help(fmt.Sprintf("  ... %d more", hidden)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.answered || m.aborted {
		answer := "no"
		if m.Confirmed() {
			answer = "yes"
		}
		b.WriteString(Question(len(m.backlog)) + answer + "\n")
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

// PromptConfirmer asks through an inline bubbletea program on a terminal.
type PromptConfirmer struct {
	in  io.Reader
	out io.Writer
}

// NewPromptConfirmer creates a [PromptConfirmer] reading keys from in and drawing to out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: in, out: out}
}

// Confirm runs the prompt until the operator answers, leaves, or ctx is done.
func (p *PromptConfirmer) Confirm(ctx context.Context, backlog []models.Play) (bool, error) {
	model := NewPromptModel(backlog)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(p.in), tea.WithOutput(p.out))

	final, err := program.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}

	m, ok := final.(*PromptModel)
	if !ok || m.Aborted() {
		return false, nil
	}
	return m.Confirmed(), nil
}

// LineConfirmer asks on a plain line-oriented stream.
type LineConfirmer struct {
	in  *bufio.Reader
	out io.Writer

	// ShowBacklog lists the pending plays before the question.
	ShowBacklog bool
}

// NewLineConfirmer creates a [LineConfirmer] reading answers from in and writing to out.
func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	return &LineConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm writes the question and reads one line. End of input declines.
func (c *LineConfirmer) Confirm(ctx context.Context, backlog []models.Play) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if c.ShowBacklog {
		for i, p := range backlog {
			fmt.Fprintf(c.out, "  %3d. %s\n", i+1, p)
		}
	}
	fmt.Fprintln(c.out, strings.Repeat("-", 30))
	fmt.Fprint(c.out, Question(len(backlog)))

	type answer struct {
		line string
		err  error
	}
	// The reader cannot be interrupted, so on cancellation this goroutine stays blocked on
	// stdin until the process exits. Cancellation only comes from a signal that ends the run.
	read := make(chan answer, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		read <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return false, ctx.Err()
	case a := <-read:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("failed to read answer: %w", a.err)
		}
		if errors.Is(a.err, io.EOF) {
			fmt.Fprintln(c.out)
		}
		return Affirmative(a.line), nil
	}
}
