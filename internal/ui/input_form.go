package ui

import (
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/mcao2/truthguard/internal/analysis"
)

// InputValues holds what the user typed into the submission form
type InputValues struct {
	Text      string
	ImagePath string
}

// InputForm wraps the huh submission form
type InputForm struct {
	form   *huh.Form
	values *InputValues
}

// NewInputForm builds the form, prefilled with values
func NewInputForm(values InputValues, width int) *InputForm {
	v := &values

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Content").
				Description("Paste the message, post or article you want checked").
				Placeholder("e.g. URGENT: your account is locked, click here...").
				CharLimit(20000).
				Lines(8).
				Value(&v.Text),

			huh.NewInput().
				Title("Image").
				Description("Optional path to a screenshot or photo").
				Placeholder("~/Downloads/screenshot.png").
				Validate(validateImagePath).
				Value(&v.ImagePath),
		),
	).WithShowHelp(true)

	if width > 0 {
		form = form.WithWidth(formWidth(width))
	}

	return &InputForm{form: form, values: v}
}

func formWidth(width int) int {
	w := width - 10
	if w > 100 {
		w = 100
	}
	if w < 30 {
		w = 30
	}
	return w
}

func validateImagePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	_, err := analysis.LoadImage(expandHome(path))
	return err
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func (f *InputForm) Init() tea.Cmd {
	return f.form.Init()
}

// Update forwards msg to the form
func (f *InputForm) Update(msg tea.Msg) tea.Cmd {
	model, cmd := f.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		f.form = form
	}
	return cmd
}

func (f *InputForm) View() string {
	return f.form.View()
}

// Completed reports whether the user submitted the last field
func (f *InputForm) Completed() bool {
	return f.form.State == huh.StateCompleted
}

// Values returns a copy of what was entered
func (f *InputForm) Values() InputValues {
	return *f.values
}

// Request turns the form values into an analysis request. The image is
// loaded from disk here; validation of the text is left to the caller.
func (f *InputForm) Request() (analysis.Request, error) {
	return buildRequest(*f.values)
}

func buildRequest(values InputValues) (analysis.Request, error) {
	req := analysis.Request{Text: values.Text}
	if path := strings.TrimSpace(values.ImagePath); path != "" {
		img, err := analysis.LoadImage(expandHome(path))
		if err != nil {
			return analysis.Request{}, err
		}
		req.Image = img
	}
	return req, nil
}
