package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterUsers(t *testing.T) {
	users := []User{
		{ID: 1, Name: "Alice", Identifiers: []string{"U1", "CARD-77"}},
		{ID: 2, Name: "Bob", Identifiers: []string{"U2"}},
		{ID: 3, Name: "Carol", Identifiers: []string{"U3"}},
	}

	assert.Len(t, FilterUsers(users, ""), 3)

	byName := FilterUsers(users, "ali")
	assert.Len(t, byName, 1)
	assert.Equal(t, int64(1), byName[0].ID)

	byIdentifier := FilterUsers(users, "card")
	assert.Len(t, byIdentifier, 1)
	assert.Equal(t, int64(1), byIdentifier[0].ID)

	assert.Empty(t, FilterUsers(users, "zzz"))
}

func TestUserMatches_IsCaseInsensitive(t *testing.T) {
	u := User{Name: "Alice", Identifiers: []string{"CARD-77"}}

	assert.True(t, u.Matches("ALICE"))
	assert.True(t, u.Matches("card-77"))
	assert.False(t, u.Matches("bob"))
}
