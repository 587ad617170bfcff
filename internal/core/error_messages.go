package core

// error_messages.go maps run-level errors to messages users can act on.
//
// Codes by category:
//
//	SRC001-SRC004  source: missing file, directory, unreadable, read failure
//	CFG001-CFG003  configuration: bad option, unknown format, unknown target
//	DEC001         decoding of a field value
//	DB001-DB007    database constraints and connectivity
//	FIN001         commit of staged rows failed
//	IMP001         another import holds the sink
//	ERR000         fallback
//
// Error classes (errors.Is against the sentinels in errors.go) are checked
// before substring patterns, so a marked error always maps to its class.

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// UserMessage is a user-facing description of an error.
type UserMessage struct {
	Message string // What went wrong
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgMissingFile = UserMessage{
		Message: "The source file does not exist",
		Action:  "Check the path passed to the import",
		Code:    "SRC001",
	}
	msgDirectory = UserMessage{
		Message: "The source path is a directory",
		Action:  "Pass the path of a file inside the directory",
		Code:    "SRC002",
	}
	msgCannotOpen = UserMessage{
		Message: "The source file cannot be opened",
		Action:  "Check the file permissions",
		Code:    "SRC003",
	}
	msgReadFailed = UserMessage{
		Message: "The source could not be read to the end",
		Action:  "Rows before the failure were processed; fix the file and import the remainder",
		Code:    "SRC004",
	}
	msgBadOption = UserMessage{
		Message: "An import option is invalid",
		Action:  "Check delimiter, enclosure, escape and header options",
		Code:    "CFG001",
	}
	msgUnknownFormat = UserMessage{
		Message: "The requested format is not supported",
		Action:  "Use one of the supported formats, e.g. csv",
		Code:    "CFG002",
	}
	msgUnknownTarget = UserMessage{
		Message: "The requested import target does not exist",
		Action:  "Use a registered target, e.g. product",
		Code:    "CFG003",
	}
	msgDecode = UserMessage{
		Message: "A field value could not be converted",
		Action:  "Check numbers and dates in the reported row",
		Code:    "DEC001",
	}
	msgFinalize = UserMessage{
		Message: "Imported rows could not be committed",
		Action:  "No rows from this run are guaranteed to be stored; run the import again",
		Code:    "FIN001",
	}
	msgBusy = UserMessage{
		Message: "Another import is running",
		Action:  "Retry in a few moments",
		Code:    "IMP001",
	}
)

// errorPatterns match lower-cased error text. The first match wins, so
// specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"format was not found", msgUnknownFormat},
	{"target \"", msgUnknownTarget},
	{"does not exist", msgMissingFile},
	{"is a directory", msgDirectory},
	{"can't open file", msgCannotOpen},
	{"duplicate key", UserMessage{
		Message: "A product with this code already exists",
		Action:  "Remove or rename the duplicate codes",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for duplicate entries in your file",
		Code:    "DB002",
	}},
	{"violates not-null", UserMessage{
		Message: "A required column is empty",
		Action:  "Fill in the missing values",
		Code:    "DB003",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Import a smaller file or raise IMPORT_TIMEOUT",
		Code:    "DB006",
	}},
	{"deadline exceeded", UserMessage{
		Message: "Operation timed out",
		Action:  "Import a smaller file or raise IMPORT_TIMEOUT",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, ErrTooManyImports):
		return msgBusy
	case errors.Is(err, ErrFinalize):
		return msgFinalize
	case errors.Is(err, ErrDecode):
		return msgDecode
	case errors.Is(err, ErrConfig):
		for _, ep := range errorPatterns[:2] {
			if strings.Contains(errStr, ep.pattern) {
				return ep.msg
			}
		}
		return msgBadOption
	case errors.Is(err, ErrSource):
		for _, ep := range errorPatterns[2:5] {
			if strings.Contains(errStr, ep.pattern) {
				return ep.msg
			}
		}
		return msgReadFailed
	}

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
