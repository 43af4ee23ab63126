package state

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tgienger/taskboard/internal/models"
)

// Form is the editable task data as the user typed it
type Form struct {
	Title       string
	Description string
	Status      string
	DueDate     string
}

// FormFromTask fills a form with a task's current values
func FormFromTask(t models.Task) Form {
	return Form{
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate.Format(time.RFC3339Nano),
	}
}

// Input converts the form into a request body, sanitizing the free-text fields.
// An empty status is omitted so the server applies its default.
func (f Form) Input() models.TaskInput {
	title := SanitizeInput(f.Title)
	desc := SanitizeInput(f.Description)
	due := strings.TrimSpace(f.DueDate)

	in := models.TaskInput{Title: &title, Description: &desc, DueDate: &due}
	if f.Status != "" {
		status := f.Status
		in.Status = &status
	}
	return in
}

// FormErrors maps a field name to its message
type FormErrors map[string]string

// FormResult is the outcome of ValidateInput
type FormResult struct {
	Valid  bool
	Errors FormErrors
}

// ValidateInput checks a form before submission. The server repeats every
// check and its answer wins.
func ValidateInput(f Form) FormResult {
	errs := FormErrors{}

	title := strings.TrimSpace(f.Title)
	switch {
	case title == "":
		errs["title"] = "Title is required"
	case utf8.RuneCountInString(title) > 200:
		errs["title"] = "Title must not exceed 200 characters"
	}

	if utf8.RuneCountInString(strings.TrimSpace(f.Description)) > 1000 {
		errs["description"] = "Description must not exceed 1000 characters"
	}

	if f.Status != "" && !models.Status(f.Status).Valid() {
		errs["status"] = "Invalid status"
	}

	due := strings.TrimSpace(f.DueDate)
	if due == "" {
		errs["dueDate"] = "Due date is required"
	} else if _, err := models.ParseTime(due); err != nil {
		errs["dueDate"] = "Invalid due date"
	}

	return FormResult{Valid: len(errs) == 0, Errors: errs}
}

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	jsProtocol  = regexp.MustCompile(`(?i)javascript:`)
)

// SanitizeInput strips script blocks and javascript: prefixes and trims the result
func SanitizeInput(s string) string {
	s = scriptBlock.ReplaceAllString(s, "")
	s = jsProtocol.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
