package models

import "time"

// ChatType discriminates how a chat's audience is assembled.
type ChatType string

const (
	ChatTypePrivate ChatType = "PRIVATE"
	ChatTypeGroup   ChatType = "GROUP"
	ChatTypeCourse  ChatType = "COURSE"
	ChatTypeClub    ChatType = "CLUB"
)

// Chat is a conversation. Its audience is always derived on demand as
// targets ∪ members of courses ∪ members of clubs; it is never stored
// flattened, since course and club membership changes independently.
type Chat struct {
	ID        string    `json:"id"`
	Type      ChatType  `json:"type"`
	Targets   []string  `json:"targets"`
	Courses   []string  `json:"courses"`
	Clubs     []string  `json:"clubs"`
	Messages  []string  `json:"messages"`
	CreatedAt time.Time `json:"created_at"`

	// Populated views, filled by hydration only.
	MessageRecords []Message `json:"message_records,omitempty"`
}

func (c Chat) EntityID() string { return c.ID }
