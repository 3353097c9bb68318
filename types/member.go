package types

import "time"

// Member represents a registered account in the system.
// It contains identity, profile, and audit metadata.
type Member struct {
	// ID is the globally unique identifier of the member, generated at
	// registration time. It never changes and is the sole subject carried
	// in issued identity tokens.
	ID string `json:"member_id" db:"member_id"`

	// Account is the unique login handle chosen by the member,
	// typically an email address.
	Account string `json:"member_account" db:"member_account"`

	// PasswordHash stores the one-way hash of the member's password.
	// The plaintext is discarded immediately after hashing and this
	// field is never exposed in API responses.
	PasswordHash string `json:"-" db:"member_password"`

	// Name is the member's display name.
	Name string `json:"member_name" db:"member_name"`

	// Address is the member's postal address, if provided.
	Address *string `json:"member_address" db:"member_address"`

	// Birthday is the member's date of birth normalized to YYYY-MM-DD,
	// or nil when the submitted value could not be parsed.
	Birthday *string `json:"member_birthday" db:"member_birthday"`

	// ForumName is the member's forum alias. Not accepted at
	// registration; absent until set elsewhere.
	ForumName *string `json:"member_forum_name" db:"member_forum_name"`

	// Profile is the member's free-form profile text. Not accepted at
	// registration; absent until set elsewhere.
	Profile *string `json:"member_profile" db:"member_profile"`

	// CreatedAt is the timestamp when the member account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the member account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
