package models

// Entity is implemented by every persisted domain object. The id is
// assigned by the store at creation and immutable afterwards.
type Entity interface {
	EntityID() string
}
