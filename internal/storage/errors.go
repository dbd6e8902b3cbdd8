package storage

import (
	"errors"
	"strings"
)

// errNotFound is the sentinel for missing records across backends.
var errNotFound = errors.New("record not found")

// IsNotFound reports whether an error means a record does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
