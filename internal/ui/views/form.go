package views

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/client"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/state"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

// Form field focus order
const (
	fieldTitle = iota
	fieldDesc
	fieldStatus
	fieldDue
	fieldSave
	fieldCount
)

// taskForm edits the fields of a new or existing task
type taskForm struct {
	styles *styles.Styles
	keys   keys.KeyMap

	taskID string // empty for a new task
	title  textinput.Model
	desc   textarea.Model
	status models.Status
	due    textinput.Model
	focus  int
	errors state.FormErrors
}

func newTaskForm(s *styles.Styles, k keys.KeyMap) *taskForm {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.CharLimit = 1000
	desc.SetWidth(50)
	desc.SetHeight(4)
	desc.ShowLineNumbers = false

	due := textinput.New()
	due.Placeholder = "2025-12-31 or 2025-12-31T17:00"
	due.CharLimit = 40

	f := &taskForm{
		styles: s,
		keys:   k,
		title:  title,
		desc:   desc,
		status: models.StatusPending,
		due:    due,
		errors: state.FormErrors{},
	}
	f.updateFocus()
	return f
}

// editTaskForm is a form prefilled from t
func editTaskForm(s *styles.Styles, k keys.KeyMap, t models.Task) *taskForm {
	f := newTaskForm(s, k)
	vals := state.FormFromTask(t)
	f.taskID = t.ID
	f.title.SetValue(vals.Title)
	f.desc.SetValue(vals.Description)
	f.status = t.Status
	f.due.SetValue(vals.DueDate)
	return f
}

func (f *taskForm) isNew() bool { return f.taskID == "" }

func (f *taskForm) values() state.Form {
	return state.Form{
		Title:       f.title.Value(),
		Description: f.desc.Value(),
		Status:      string(f.status),
		DueDate:     f.due.Value(),
	}
}

func (f *taskForm) setWidth(w int) {
	f.desc.SetWidth(w)
}

// validate runs the client-side checks and keeps their messages for display
func (f *taskForm) validate() bool {
	res := state.ValidateInput(f.values())
	f.errors = res.Errors
	return res.Valid
}

// applyServerError shows the server's field errors, if any, next to the fields
func (f *taskForm) applyServerError(err error) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return
	}
	f.errors = state.FormErrors{}
	for _, d := range apiErr.Details {
		f.errors[d.Field] = d.Message
	}
}

// update handles a key; submit is true when the user asked to save
func (f *taskForm) update(msg tea.KeyMsg) (cmd tea.Cmd, submit bool) {
	switch {
	case key.Matches(msg, f.keys.Save):
		return nil, true

	case key.Matches(msg, f.keys.Tab):
		f.focus = (f.focus + 1) % fieldCount
		f.updateFocus()
		return nil, false

	case msg.String() == "shift+tab":
		f.focus = (f.focus + fieldCount - 1) % fieldCount
		f.updateFocus()
		return nil, false

	case key.Matches(msg, f.keys.Enter):
		switch f.focus {
		case fieldSave:
			return nil, true
		case fieldTitle, fieldStatus, fieldDue:
			f.focus++
			f.updateFocus()
			return nil, false
		}
		// newlines pass through to the description

	case f.focus == fieldStatus && (key.Matches(msg, f.keys.Right) || key.Matches(msg, f.keys.Status)):
		f.status = f.status.Next()
		return nil, false

	case f.focus == fieldStatus && key.Matches(msg, f.keys.Left):
		f.status = f.status.Next().Next()
		return nil, false
	}

	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDesc:
		f.desc, cmd = f.desc.Update(msg)
	case fieldDue:
		f.due, cmd = f.due.Update(msg)
	}
	return cmd, false
}

func (f *taskForm) updateFocus() {
	f.title.Blur()
	f.desc.Blur()
	f.due.Blur()

	switch f.focus {
	case fieldTitle:
		f.title.Focus()
	case fieldDesc:
		f.desc.Focus()
	case fieldDue:
		f.due.Focus()
	}
}

func (f *taskForm) view(inputWidth int) string {
	s := f.styles

	style := func(field int) lipgloss.Style {
		if f.focus == field {
			return s.InputFocused
		}
		return s.Input
	}
	fieldErr := func(name string) string {
		if msg, ok := f.errors[name]; ok {
			return s.FieldError.Render(msg)
		}
		return ""
	}

	heading := "New Task"
	if !f.isNew() {
		heading = "Edit Task"
	}

	var statusOpts []string
	for _, st := range models.Statuses {
		label := st.Label()
		if st == f.status {
			label = s.Status(st).Bold(true).Render("● " + label)
		} else {
			label = s.TitleMuted.Render("○ " + label)
		}
		statusOpts = append(statusOpts, label)
	}

	btnStyle := s.Button
	if f.focus == fieldSave {
		btnStyle = s.ButtonFocused
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(heading),
		"",
		"Title:",
		style(fieldTitle).Width(inputWidth).Render(f.title.View()),
		fieldErr("title"),
		"Description:",
		style(fieldDesc).Render(f.desc.View()),
		fieldErr("description"),
		"Status:",
		style(fieldStatus).Width(inputWidth).Render(lipgloss.JoinHorizontal(lipgloss.Top, joinSpaced(statusOpts)...)),
		fieldErr("status"),
		"Due date:",
		style(fieldDue).Width(inputWidth).Render(f.due.View()),
		fieldErr("dueDate"),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • ←→: status • Ctrl+S: save • Esc: cancel"),
	)
}

func joinSpaced(items []string) []string {
	out := make([]string, 0, len(items)*2)
	for i, it := range items {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, it)
	}
	return out
}
