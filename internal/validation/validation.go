// Package validation enforces the request rules for task writes. It is the
// authoritative copy; the client state store carries an advisory mirror.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tgienger/taskboard/internal/models"
)

const (
	LocationBody   = "body"
	LocationParams = "params"
)

// Result is the outcome of validating one request
type Result struct {
	Valid  bool
	Errors []models.FieldError
}

// Merge combines two results, keeping field order
func (r Result) Merge(other Result) Result {
	return Result{
		Valid:  r.Valid && other.Valid,
		Errors: append(append([]models.FieldError{}, r.Errors...), other.Errors...),
	}
}

func ok() Result { return Result{Valid: true} }

// taskPayload is the trimmed request body the rules run against
type taskPayload struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=1000"`
	Status      *string `json:"status" validate:"omitnil,oneof=pending in-progress completed"`
	DueDate     string  `json:"dueDate" validate:"required,iso8601"`
}

type statusPayload struct {
	Status string `json:"status" validate:"required,oneof=pending in-progress completed"`
}

// messages maps field and failed tag to the user-facing message
var messages = map[string]map[string]string{
	"title": {
		"required": "Title is required",
		"max":      "Title must be between 1 and 200 characters",
	},
	"description": {
		"max": "Description must not exceed 1000 characters",
	},
	"status": {
		"oneof": "Status must be one of: pending, in-progress, completed",
	},
	"dueDate": {
		"required": "Due date is required",
		"iso8601":  "Due date must be a valid ISO 8601 date",
	},
	"id": {
		"required": "Task ID is required",
		"uuid":     "Task ID must be a valid UUID",
	},
}

// Validator checks task requests
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the task rules registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := models.ParseTime(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}

	return &Validator{v: v}
}

// Task validates a create or replace body and returns the normalized fields
func (val *Validator) Task(in models.TaskInput) (models.Fields, Result) {
	p := taskPayload{
		Title:       strings.TrimSpace(deref(in.Title)),
		Description: strings.TrimSpace(deref(in.Description)),
		Status:      in.Status,
		DueDate:     strings.TrimSpace(deref(in.DueDate)),
	}

	res := val.check(p, LocationBody, nil)
	if !res.Valid {
		return models.Fields{}, res
	}

	// Already validated by the iso8601 rule
	due, _ := models.ParseTime(p.DueDate)

	f := models.Fields{
		Title:       p.Title,
		Description: p.Description,
		DueDate:     due,
	}
	if p.Status != nil {
		f.Status = models.Status(*p.Status)
	}
	return f, res
}

// Status validates a status patch body
func (val *Validator) Status(in models.StatusInput) (models.Status, Result) {
	p := statusPayload{Status: deref(in.Status)}
	res := val.check(p, LocationBody, map[string]string{"status": "Invalid status"})
	if !res.Valid {
		return "", res
	}
	return models.Status(p.Status), res
}

// ID validates a task id path parameter
func (val *Validator) ID(id string) Result {
	err := val.v.Var(id, "required,uuid")
	if err == nil {
		return ok()
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid("id", err.Error(), LocationParams)
	}
	return invalid("id", message("id", verrs[0].Tag()), LocationParams)
}

// BadBody is the result for a body that is not valid JSON
func BadBody() Result {
	return invalid("body", "Request body must be valid JSON", LocationBody)
}

// check runs struct rules; override replaces the message for a field
func (val *Validator) check(s any, location string, override map[string]string) Result {
	err := val.v.Struct(s)
	if err == nil {
		return ok()
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid("body", err.Error(), location)
	}

	res := Result{Valid: false}
	for _, fe := range verrs {
		msg, found := override[fe.Field()]
		if !found {
			msg = message(fe.Field(), fe.Tag())
		}
		res.Errors = append(res.Errors, models.FieldError{
			Field:    fe.Field(),
			Message:  msg,
			Location: location,
		})
	}
	return res
}

func message(field, tag string) string {
	if m, found := messages[field][tag]; found {
		return m
	}
	return "Invalid value for " + field
}

func invalid(field, msg, location string) Result {
	return Result{
		Valid:  false,
		Errors: []models.FieldError{{Field: field, Message: msg, Location: location}},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
