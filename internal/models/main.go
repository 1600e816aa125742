// Package models defines the core data structures for users, sessions and
// the time-tracking resources they own.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user (UUID).
	ID string `json:"id"`
	// Name is the display name chosen at signup.
	Name string `json:"name"`
	// Email is the login identifier, stored lowercased.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`
	// CreatedAt is when the account was created.
	CreatedAt time.Time `json:"created_at"`
}

// Session maps an opaque token to the user it authenticates.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Entry is a time block spent on one activity.
type Entry struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	ActivityName string    `json:"activity_name"`
	// Category is a free-text label, usually the name of one of the user's categories.
	Category string `json:"category"`
	// Energy is an optional self-reported energy level (1..5).
	Energy *int `json:"energy"`
	// Intent is an optional note on what the block was meant for.
	Intent    *string   `json:"intent"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryInput carries the caller-supplied fields of an entry.
type EntryInput struct {
	StartTime    time.Time
	EndTime      time.Time
	ActivityName string
	Category     string
	Energy       *int
	Intent       *string
}

// Category is a named label owned by a user. Names are unique per user.
type Category struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Reflection is a free-text note written for a given day.
type Reflection struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
	// Date is the calendar day in YYYY-MM-DD form.
	Date      string    `json:"date"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ReflectionInput carries the caller-supplied fields of a reflection.
type ReflectionInput struct {
	Date    string
	Content string
}

// Export bundles everything a user owns.
type Export struct {
	Entries     []Entry      `json:"entries"`
	Categories  []Category   `json:"categories"`
	Reflections []Reflection `json:"reflections"`
	ExportedAt  time.Time    `json:"exported_at"`
}

// Resource identifies a kind of user-owned record.
type Resource string

// Owned resource kinds.
const (
	ResourceEntries     Resource = "entries"
	ResourceCategories  Resource = "categories"
	ResourceReflections Resource = "reflections"
)

// OwnedResources lists every resource kind a user owns, dependents first.
// Account deletion purges exactly this list, so a new owned kind must be
// added here.
var OwnedResources = []Resource{
	ResourceReflections,
	ResourceCategories,
	ResourceEntries,
}
