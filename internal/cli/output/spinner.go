package output

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Spinner shows an animated progress indicator on the status writer
// while a long operation runs. Call Start, then Success or Fail exactly
// once to stop it and print the final line.
type Spinner struct {
	prog    *tea.Program
	done    chan struct{}
	r       *Renderer
	started bool
}

type spinnerDoneMsg struct{}

type spinnerModel struct {
	spin    spinner.Model
	message string
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case spinnerDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spin.View(), m.message)
}

// NewSpinner creates a spinner with the given message. The caller is
// expected to check EffectiveMode first; spinners only make sense in
// text mode on a terminal.
func (r *Renderer) NewSpinner(message string) *Spinner {
	model := spinnerModel{
		spin: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(r.styles.Highlight),
		),
		message: message,
	}
	prog := tea.NewProgram(model,
		tea.WithOutput(r.errOut),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	return &Spinner{prog: prog, done: make(chan struct{}), r: r}
}

// Start begins the animation in the background.
func (s *Spinner) Start() {
	if s.started {
		return
	}
	s.started = true
	go func() {
		defer close(s.done)
		_, _ = s.prog.Run()
	}()
}

// Success stops the spinner and prints a success line.
func (s *Spinner) Success(message string) {
	s.stop()
	s.r.Success(message)
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail(message string) {
	s.stop()
	s.r.Error(message)
}

func (s *Spinner) stop() {
	if !s.started {
		return
	}
	s.prog.Send(spinnerDoneMsg{})
	<-s.done
}
