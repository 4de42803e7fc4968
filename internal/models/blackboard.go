package models

import "time"

// Blackboard is a pinned notice attached to a chat.
type Blackboard struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

func (b Blackboard) EntityID() string { return b.ID }
