package models

// Club is a student club; like courses, its members contribute to chat
// audiences.
type Club struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

func (c Club) EntityID() string { return c.ID }
