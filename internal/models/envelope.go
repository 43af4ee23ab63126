package models

// FieldError describes one failed validation rule
type FieldError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// Envelope is the JSON wrapper used by every API response.
// To decode a payload, set Data to a pointer to the target before unmarshalling.
type Envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Count   *int         `json:"count,omitempty"`
	Error   string       `json:"error,omitempty"`
	Details []FieldError `json:"details,omitempty"`
	Message string       `json:"message,omitempty"`
	Stack   string       `json:"stack,omitempty"`
}

// TaskInput is the external request body for create and replace.
// Pointers distinguish an absent field from an empty one.
type TaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	DueDate     *string `json:"dueDate"`
}

// StatusInput is the request body for a status patch
type StatusInput struct {
	Status *string `json:"status"`
}

// Stats summarizes a set of tasks
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}
