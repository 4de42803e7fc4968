package models

// Course groups users for lessons; its members are part of the audience of
// every chat that references the course.
type Course struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Classes []string `json:"classes"`

	// Populated view, filled by hydration only.
	ClassRecords []Class `json:"class_records,omitempty"`
}

func (c Course) EntityID() string { return c.ID }

// Class is a school class referenced by courses.
type Class struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Grade int    `json:"grade"`
}

func (c Class) EntityID() string { return c.ID }
