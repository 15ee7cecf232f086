// Package console renders download progress for the plain command line.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/handiism/ingenuity-dl/internal/download"
)

var (
	stepStyle    = lipgloss.NewStyle().Bold(true).Faint(true)
	solStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Renderer prints ProgressEvents as the numbered step lines of a run.
//
// On a terminal, download and encode progress is drawn as a bar that
// redraws in place. Otherwise only the final count of each phase is printed.
//
// Example usage:
//
//	r := console.NewRenderer(os.Stdout, verbose)
//	manager := download.NewManager(settings, r.Handle)
type Renderer struct {
	out     io.Writer
	verbose bool
	tty     bool
	bar     progress.Model

	mu       sync.Mutex
	lineOpen bool
	barOpen  bool
}

// NewRenderer creates a Renderer writing to out. Verbose events are shown only
// when verbose is set.
func NewRenderer(out io.Writer, verbose bool) *Renderer {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	return &Renderer{
		out:     out,
		verbose: verbose,
		tty:     IsTerminal(out),
		bar:     bar,
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Handle renders one event. It is safe to pass as a download.ProgressFunc.
func (r *Renderer) Handle(e download.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Kind {
	case download.EventStep:
		r.closeLine()
		// Step lines stay open so the result lands on the same line.
		fmt.Fprintf(r.out, "%s %s ... ", stepStyle.Render(fmt.Sprintf("[%d/%d]", e.Step, e.Steps)), e.Message)
		r.lineOpen = true

	case download.EventSol:
		text := successStyle.Render(e.Message)
		if e.Message == e.Sol.String() {
			text = solStyle.Render(e.Message)
		}
		if r.lineOpen {
			fmt.Fprintln(r.out, text)
			r.lineOpen = false
			return
		}
		fmt.Fprintf(r.out, "Using sol %s\n", solStyle.Render(e.Sol.String()))

	case download.EventDownloaded, download.EventEncoded:
		r.counter(e)

	default:
		if e.Level == download.LevelVerbose && !r.verbose {
			return
		}
		r.closeLine()
		fmt.Fprintln(r.out, styleFor(e.Level).Render(e.Message))
	}
}

// counter draws download and encode progress.
func (r *Renderer) counter(e download.ProgressEvent) {
	done := e.Current == e.Total
	count := fmt.Sprintf("%d/%d", e.Current, e.Total)

	if r.tty {
		if r.lineOpen {
			fmt.Fprintln(r.out)
			r.lineOpen = false
		}
		fmt.Fprintf(r.out, "\r%s %s", r.bar.ViewAs(e.Fraction()), dimStyle.Render(count))
		r.barOpen = !done
		if done {
			fmt.Fprintln(r.out)
		}
		return
	}

	if r.verbose && !done {
		r.closeLine()
		fmt.Fprintln(r.out, dimStyle.Render(e.Message))
		return
	}
	if done {
		if r.lineOpen {
			fmt.Fprintln(r.out, successStyle.Render(count))
			r.lineOpen = false
			return
		}
		fmt.Fprintln(r.out, successStyle.Render(e.Message))
	}
}

// Close terminates any partially written line.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLine()
}

func (r *Renderer) closeLine() {
	if r.lineOpen || r.barOpen {
		fmt.Fprintln(r.out)
	}
	r.lineOpen = false
	r.barOpen = false
}

func styleFor(level download.ProgressLevel) lipgloss.Style {
	switch level {
	case download.LevelSuccess:
		return successStyle
	case download.LevelWarning:
		return warningStyle
	case download.LevelError:
		return errorStyle
	case download.LevelVerbose:
		return dimStyle
	default:
		return lipgloss.NewStyle()
	}
}

// Errorf prints an error line the way the command reports failures.
func Errorf(w io.Writer, format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	fmt.Fprintln(w, errorStyle.Render("Error: ")+msg)
}
