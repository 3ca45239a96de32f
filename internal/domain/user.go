package domain

import (
	"strconv"
	"strings"
	"time"
)

type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// DisplayName joins first and last name, falling back to the numeric id.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return strconv.FormatInt(u.ID, 10)
	}
	return name
}

// Handle returns "@username" or an empty string.
func (u *User) Handle() string {
	if u.Username == "" {
		return ""
	}
	return "@" + u.Username
}
