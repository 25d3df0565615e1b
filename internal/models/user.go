package models

// User represents a registered user account.
//
// The profile fields beyond email/password come from the onboarding form and
// are free text; nothing in the settlement path reads them.
type User struct {
	// ID is the auto-incremented numeric identifier for the user.
	ID int64

	// LastName and FirstName are the user's name as entered at registration.
	LastName  string
	FirstName string

	// Email is the user's email address (unique). Used for login.
	Email string

	// Birthdate is the user's date of birth in YYYY-MM-DD form.
	Birthdate string

	PostalCode  string
	Address     string
	PhoneNumber string
	Occupation  string
	CompanyName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// Preference stores one onboarding question together with the answers the
// user selected. Answers are persisted as a single semicolon-joined string.
type Preference struct {
	ID              int64
	UserID          int64
	Question        string
	SelectedAnswers []string
	CreatedAt       int64
}
