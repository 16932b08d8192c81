package web

// messages.go maps technical errors to user-facing messages with a code that
// can be quoted to support.
//
// # File errors (FILE001-FILE099)
//
//	FILE001 - File too large           "request body too large"
//	FILE002 - Line too long            "token too long"
//	FILE003 - No file                  "no file provided"
//	FILE004 - Empty file               "empty file"
//	FILE005 - Unreadable upload        "multipart"
//
// # Request errors (REQ001-REQ099)
//
//	REQ001 - Invalid level             "invalid level"
//	REQ002 - Invalid error limit       "invalid max_errors"
//	REQ003 - Invalid report id         "invalid report id"
//	REQ004 - Invalid list limit        "invalid limit"
//	REQ005 - Invalid keep_rows flag    "invalid keep_rows"
//
// # Report errors (RPT001-RPT099)
//
//	RPT001 - Report not found          "report not found"
//	RPT002 - Storage disabled          "persistence disabled"
//
// # Upload errors (UPL001-UPL099)
//
//	UPL001 - System busy               "too many uploads"
//	UPL002 - Request cancelled         "context canceled"
//	UPL003 - Request timeout           "context deadline exceeded"
//
// # Database errors (DB001-DB099)
//
//	DB001 - Connection refused         "connection refused"
//	DB002 - Connection reset           "connection reset"
//	DB003 - Timeout                    "timeout"
//
// # Other
//
//	RATE001 - Too many requests        "rate limit"
//	ERR000  - Anything else
//
// Patterns are matched case-insensitively against err.Error() in table order,
// so specific patterns come before general ones.

import "strings"

// UserMessage is an error rendered for the client.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Validate the file with the command line tool instead",
			Code:    "FILE001",
		},
	},
	{
		pattern: "token too long",
		msg: UserMessage{
			Message: "The file contains a line that is too long",
			Action:  "Check that the file uses line breaks and tab separators",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was uploaded",
			Action:  "Send the file in the \"file\" form field or as the request body",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload an mzTab file with metadata and at least one section",
			Code:    "FILE004",
		},
	},
	{
		pattern: "multipart",
		msg: UserMessage{
			Message: "The upload could not be read",
			Action:  "Send a multipart/form-data request or the raw file as the body",
			Code:    "FILE005",
		},
	},

	// Request errors
	{
		pattern: "invalid level",
		msg: UserMessage{
			Message: "Unknown error level",
			Action:  "Use one of: error, warn, info",
			Code:    "REQ001",
		},
	},
	{
		pattern: "invalid max_errors",
		msg: UserMessage{
			Message: "The error limit must be a non-negative number",
			Action:  "Omit max_errors to use the server default",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid report id",
		msg: UserMessage{
			Message: "The report id is not valid",
			Action:  "Use the id returned by the validate request",
			Code:    "REQ003",
		},
	},
	{
		pattern: "invalid limit",
		msg: UserMessage{
			Message: "The list limit must be a positive number",
			Action:  "Omit limit to use the default",
			Code:    "REQ004",
		},
	},
	{
		pattern: "invalid keep_rows",
		msg: UserMessage{
			Message: "keep_rows must be true or false",
			Action:  "Omit keep_rows to use the server default",
			Code:    "REQ005",
		},
	},

	// Report errors
	{
		pattern: "report not found",
		msg: UserMessage{
			Message: "Report not found",
			Action:  "The report may not have been stored; validate the file again",
			Code:    "RPT001",
		},
	},
	{
		pattern: "persistence disabled",
		msg: UserMessage{
			Message: "Reports are not stored by this server",
			Action:  "Keep the report returned by the validate request",
			Code:    "RPT002",
		},
	},

	// Upload errors
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "Too many validations in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Validation timed out",
			Action:  "Validate large files with the command line tool",
			Code:    "UPL003",
		},
	},

	// Database errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB003",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches. The technical error is
// in the server log under the same request id.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the message of the first pattern found in err.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	s := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(s, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
