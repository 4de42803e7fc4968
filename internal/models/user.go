package models

// User is a member of the school community.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (u User) EntityID() string { return u.ID }
