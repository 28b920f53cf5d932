package models

// User is the presence record for one connected client. ID is the opaque
// connection identifier, so the same username may appear under several IDs.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
