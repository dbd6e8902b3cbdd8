package surrealdb

import "strings"

// isNotFoundError reports whether a driver error means the record does not
// exist rather than a transport or query failure.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no record")
}
