package ui

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// repoPlaceholder is shown in an empty repository field.
const repoPlaceholder = "https://github.com/org/repo"

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection.
// Completion and cancellation are observed through Form.State, so the form
// never quits the surrounding program.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula()).WithShowHelp(true)
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	form.SubmitCmd = nil
	form.CancelCmd = nil
	return form
}

// newRepoForm asks for the repository to visualize. The answer is written
// to value, which must outlive the form.
func newRepoForm(value *string, width int) *huh.Form {
	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Repository").
				Description("URL or identifier sent to the analysis backend").
				Placeholder(repoPlaceholder).
				Value(value).
				Validate(validateRepo),
		),
	)
	if width > 0 {
		form = form.WithWidth(width)
	}
	return form
}

func validateRepo(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("repository is required")
	}
	return nil
}
