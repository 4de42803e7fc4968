package models

import "time"

// Message is a chat message. Reactions map an emoji to the user ids that
// reacted with it.
type Message struct {
	ID        string              `json:"id"`
	ChatID    string              `json:"chat"`
	AuthorID  string              `json:"author"`
	Content   string              `json:"content"`
	Reactions map[string][]string `json:"reactions,omitempty"`
	Poll      *Poll               `json:"poll,omitempty"`
	CreatedAt time.Time           `json:"created_at"`

	// Populated view, filled by hydration only.
	Author *User `json:"author_record,omitempty"`
}

func (m Message) EntityID() string { return m.ID }

// Poll is an optional vote attached to a message.
type Poll struct {
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
}

// PollOption holds the voter ids for one answer.
type PollOption struct {
	Text  string   `json:"text"`
	Votes []string `json:"votes"`
}
