package model

// Account is a billing/identity record resolved from an API key.
// The authentication store maps keys to the user_id that scopes all
// business data queries.
type Account struct {
	ID     int64
	UserID string
	Email  string
	Status string
}
