package domain

import "strings"

type User struct {
	ID          int64    `json:"id" bson:"id"`
	Name        string   `json:"name" bson:"name"`
	Balance     int64    `json:"balance" bson:"balance"`
	Active      bool     `json:"active" bson:"active"`
	Tags        []string `json:"tags" bson:"tags"`
	Identifiers []string `json:"identifiers" bson:"identifiers"`
}

// Matches reports whether the filter is a case-insensitive substring of the
// user's name or of any of their identifiers.
func (u User) Matches(filter string) bool {
	filter = strings.ToLower(filter)
	if strings.Contains(strings.ToLower(u.Name), filter) {
		return true
	}
	for _, identifier := range u.Identifiers {
		if strings.Contains(strings.ToLower(identifier), filter) {
			return true
		}
	}
	return false
}

// FilterUsers returns the users matching the filter, in input order.
// An empty filter matches everyone.
func FilterUsers(users []User, filter string) []User {
	if filter == "" {
		return users
	}
	var matched []User
	for _, u := range users {
		if u.Matches(filter) {
			matched = append(matched, u)
		}
	}
	return matched
}
