package core

// # Error Codes Reference
//
// User-facing notifications carry a code for support reference. Codes are
// grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this ID already exists
//	        Patterns: "duplicate key", "unique constraint", "violates unique"
//	DB002 - Foreign key: Referenced record does not exist
//	        Patterns: "foreign key"
//	DB003 - Connection: Unable to reach the database
//	        Patterns: "connection refused", "connection reset"
//	DB004 - Timeout: Operation timed out
//	        Patterns: "timeout", "deadline exceeded"
//	DB005 - Locked: Database was busy
//	        Patterns: "database is locked", "deadlock"
//
// # Record Errors (REC001-REC099)
//
//	REC001 - Not found: The record no longer exists
//	         Patterns: "record not found"
//	REC002 - Archive unsupported: This table cannot archive records
//	         Patterns: "archive not supported"
//	REC003 - Busy: The previous save is still running
//	         Patterns: "submit already in progress"
//	REC004 - Invalid input: Some fields are invalid
//	         Patterns: "validation failed", "required field", "invalid integer",
//	                   "invalid number", "invalid date"
//
// # Access Errors (ACC001-ACC099)
//
//	ACC001 - Forbidden: You do not have permission for this action
//	         Patterns: "forbidden", "not permitted"
//	ACC002 - Unauthorized: Missing or invalid API key
//	         Patterns: "unauthorized"
//	ACC003 - Rate limited: Too many requests
//	         Patterns: "rate limit"
//	ACC004 - Unknown table: Table is not configured
//	         Patterns: "unknown table"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgDuplicate = UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Change the conflicting value and save again",
		Code:    "DB001",
	}
	msgConnection = UserMessage{
		Message: "Unable to reach the database",
		Action:  "Please try again in a few moments",
		Code:    "DB003",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB004",
	}
	msgLocked = UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB005",
	}
	msgInvalid = UserMessage{
		Message: "Some fields are invalid",
		Action:  "Correct the highlighted fields",
		Code:    "REC004",
	}
	msgForbidden = UserMessage{
		Message: "You do not have permission for this action",
		Action:  "Ask an administrator for access",
		Code:    "ACC001",
	}
)

// errorPatterns maps technical error fragments (lower case) to user messages.
var errorPatterns = []errorPattern{
	// Database
	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "unique constraint", msg: msgDuplicate},
	{pattern: "violates unique", msg: msgDuplicate},
	{pattern: "foreign key", msg: UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Create the referenced record first",
		Code:    "DB002",
	}},
	{pattern: "connection refused", msg: msgConnection},
	{pattern: "connection reset", msg: msgConnection},
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "deadline exceeded", msg: msgTimeout},
	{pattern: "database is locked", msg: msgLocked},
	{pattern: "deadlock", msg: msgLocked},

	// Records
	{pattern: "record not found", msg: UserMessage{
		Message: "The record no longer exists",
		Action:  "Reload the table",
		Code:    "REC001",
	}},
	{pattern: "archive not supported", msg: UserMessage{
		Message: "This table cannot archive records",
		Action:  "Delete the record instead",
		Code:    "REC002",
	}},
	{pattern: "submit already in progress", msg: UserMessage{
		Message: "The previous save is still running",
		Action:  "Wait for it to finish",
		Code:    "REC003",
	}},
	{pattern: "validation failed", msg: msgInvalid},
	{pattern: "required field", msg: msgInvalid},
	{pattern: "invalid integer", msg: msgInvalid},
	{pattern: "invalid number", msg: msgInvalid},
	{pattern: "invalid date", msg: msgInvalid},

	// Access
	{pattern: "forbidden", msg: msgForbidden},
	{pattern: "not permitted", msg: msgForbidden},
	{pattern: "unauthorized", msg: UserMessage{
		Message: "Missing or invalid API key",
		Action:  "Provide a valid API key",
		Code:    "ACC002",
	}},
	{pattern: "rate limit", msg: UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "ACC003",
	}},
	{pattern: "unknown table", msg: UserMessage{
		Message: "Unknown table",
		Action:  "This table is not configured",
		Code:    "ACC004",
	}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapMessage converts a technical message to a user-friendly one.
// An empty message maps to the zero UserMessage.
func MapMessage(message string) UserMessage {
	if message == "" {
		return UserMessage{}
	}

	lower := strings.ToLower(message)
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// MapError is MapMessage for an error value.
//
// Example:
//
//	msg := MapError(errors.New("UNIQUE constraint failed: records.id"))
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	return MapMessage(err.Error())
}

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
