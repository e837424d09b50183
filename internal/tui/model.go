package tui

import (
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// busyModel shows a spinner until the work behind done finishes.
type busyModel struct {
	spinner  spinner.Model
	title    string
	done     <-chan struct{}
	finished bool
}

type doneMsg struct{}

func newBusyModel(title string, done <-chan struct{}) busyModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return busyModel{
		spinner: s,
		title:   title,
		done:    done,
	}
}

func (m busyModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForDone(m.done))
}

func waitForDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return doneMsg{}
	}
}

// withSpinner runs fn, animating a spinner on out while it works. The
// program reads no input so the menu keeps sole ownership of stdin.
func withSpinner[T any](out io.Writer, title string, fn func() T) T {
	var result T
	done := make(chan struct{})
	go func() {
		defer close(done)
		result = fn()
	}()

	p := tea.NewProgram(newBusyModel(title, done), tea.WithOutput(out), tea.WithInput(nil))
	if _, err := p.Run(); err != nil {
		// The spinner is cosmetic; the work still has to finish.
		<-done
	}
	return result
}
