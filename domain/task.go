package domain

// Task is the boundary shape of a single task.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// TaskRecord is the persisted task. Owner is stamped at creation and scopes
// every subsequent read, update and delete.
type TaskRecord struct {
	ID          string
	Owner       string
	Title       string
	Description string
	Completed   bool
	CreatedAt   int64
	UpdatedAt   int64
}

// View renders the record for the API boundary.
func (r TaskRecord) View() Task {
	return Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   RenderTimestamp(r.CreatedAt),
		UpdatedAt:   RenderTimestamp(r.UpdatedAt),
	}
}

// TaskChanges carries the fields explicitly supplied to an update. A nil
// field was not supplied and must be left untouched.
type TaskChanges struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// Empty reports whether the update supplies no fields at all.
func (c TaskChanges) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Completed == nil
}
