// Package core provides the catalog session used by the admin console.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Typed errors (store, importer, blob, auth) are matched first with errors.Is
// and errors.As. Anything else falls back to case-insensitive pattern matching
// on the error text.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate: A record with this value already exists
//	        Action: Change the SKU or edit the existing product
//	        Patterns: "duplicate key", "unique constraint"
//
//	DB002 - Not found: The product no longer exists
//	        Action: Refresh the list and try again
//	        Match: store.ErrNotFound
//
//	DB003 - Connection refused: Unable to connect to the database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB004 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB005 - Timeout: Operation timed out
//	        Action: Try again later
//	        Patterns: "timeout"
//
//	DB006 - Partial failure: Some products could not be changed
//	        Action: Refresh the list and retry the failed products
//	        Match: *store.BatchError
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Invalid product: The product is missing required values
//	         Action: Fill in at least one name and a SKU
//	         Match: catalog.ErrInvalidRecord
//
//	IMP002 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	         Match: ErrTooManyImports
//
//	IMP003 - Duplicate SKU: Another product already uses this SKU
//	         Action: Choose a different SKU
//	         Match: ErrDuplicateSKU
//
//	IMP004 - Too many rows: The file has more rows than a single import allows
//	         Action: Split the file into smaller files
//	         Match: ErrTooManyRows
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Action: Split the file into smaller chunks
//	          Match: ErrFileTooLarge
//
//	FILE002 - Invalid file: The file could not be read
//	          Action: Save the file as CSV (UTF-8) or XLSX and upload again
//	          Match: *importer.ParseError
//
//	FILE003 - Empty file: The uploaded file has no data rows
//	          Action: Please upload a file with a header and data rows
//	          Match: importer.ErrEmptyFile
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV or XLSX file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Unsupported format: This export format is not supported
//	          Action: Choose CSV or XLSX
//	          Match: export.ErrUnsupportedFormat
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Nothing to export: There are no products to export
//	         Action: Adjust the filters or select products first
//	         Match: export.ErrNothingToExport
//
// # Blob Errors (BLOB001-BLOB099)
//
//	BLOB001 - Upload failed: The thumbnail could not be uploaded
//	          Action: The product was not saved. Please try again
//	          Match: *blob.UploadError
//
//	BLOB002 - Unsupported image: Thumbnails must be PNG, JPEG, GIF or WebP
//	          Action: Convert the image and try again
//	          Match: ErrUnsupportedImage
//
// # Auth Errors (AUTH001-AUTH099)
//
//	AUTH001 - Not signed in: The session is missing or expired
//	          Action: Sign in again
//	          Match: auth.ErrInvalidToken
//
//	AUTH002 - Forbidden: Your role does not allow this action
//	          Action: Ask an owner for access
//	          Match: ErrForbidden
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Match: context.Canceled
//
//	REQ002 - Request timeout
//	         Match: context.DeadlineExceeded
//
//	REQ003 - Malformed request
//	         Match: ErrBadRequest
//
// # Default Error (ERR000)
//
// Fallback when nothing matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated match or patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package core

import (
	"context"
	"errors"
	"strings"

	"github.com/JonMunkholm/catalog/internal/auth"
	"github.com/JonMunkholm/catalog/internal/blob"
	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/export"
	"github.com/JonMunkholm/catalog/internal/importer"
	"github.com/JonMunkholm/catalog/internal/store"
)

var (
	// ErrDuplicateSKU is returned when a save would create a second record
	// with the same SKU.
	ErrDuplicateSKU = errors.New("sku already exists")

	// ErrFileTooLarge is returned by the transport when an upload exceeds
	// the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrTooManyRows is returned when an import file exceeds the row limit.
	ErrTooManyRows = errors.New("too many rows")

	// ErrUnsupportedImage is returned for thumbnails that are not images.
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrForbidden is returned when the caller's role is too low.
	ErrForbidden = errors.New("forbidden")

	// ErrBadRequest is returned for request bodies or parameters that
	// cannot be decoded.
	ErrBadRequest = errors.New("malformed request")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// typedError matches an error by identity or type.
type typedError struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func as[T error]() func(error) bool {
	return func(err error) bool {
		var t T
		return errors.As(err, &t)
	}
}

// typedErrors is checked before errorPatterns. Order matters: a
// BatchError wrapping ErrNotFound is a partial failure, not a miss.
var typedErrors = []typedError{
	{as[*store.BatchError](), UserMessage{
		Message: "Some products could not be changed",
		Action:  "Refresh the list and retry the failed products",
		Code:    "DB006",
	}},
	{is(store.ErrNotFound), UserMessage{
		Message: "The product no longer exists",
		Action:  "Refresh the list and try again",
		Code:    "DB002",
	}},
	{is(catalog.ErrInvalidRecord), UserMessage{
		Message: "The product is missing required values",
		Action:  "Fill in at least one name and a SKU",
		Code:    "IMP001",
	}},
	{is(ErrTooManyImports), UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
	}},
	{is(ErrDuplicateSKU), UserMessage{
		Message: "Another product already uses this SKU",
		Action:  "Choose a different SKU",
		Code:    "IMP003",
	}},
	{is(ErrTooManyRows), UserMessage{
		Message: "The file has more rows than a single import allows",
		Action:  "Split the file into smaller files",
		Code:    "IMP004",
	}},
	{is(ErrFileTooLarge), UserMessage{
		Message: "File exceeds the upload size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{is(importer.ErrEmptyFile), UserMessage{
		Message: "The uploaded file has no data rows",
		Action:  "Please upload a file with a header and data rows",
		Code:    "FILE003",
	}},
	{as[*importer.ParseError](), UserMessage{
		Message: "The file could not be read",
		Action:  "Save the file as CSV (UTF-8) or XLSX and upload again",
		Code:    "FILE002",
	}},
	{is(export.ErrUnsupportedFormat), UserMessage{
		Message: "This export format is not supported",
		Action:  "Choose CSV or XLSX",
		Code:    "FILE005",
	}},
	{is(export.ErrNothingToExport), UserMessage{
		Message: "There are no products to export",
		Action:  "Adjust the filters or select products first",
		Code:    "EXP001",
	}},
	{is(ErrUnsupportedImage), UserMessage{
		Message: "Thumbnails must be PNG, JPEG, GIF or WebP",
		Action:  "Convert the image and try again",
		Code:    "BLOB002",
	}},
	{as[*blob.UploadError](), UserMessage{
		Message: "The thumbnail could not be uploaded",
		Action:  "The product was not saved. Please try again",
		Code:    "BLOB001",
	}},
	{is(auth.ErrInvalidToken), UserMessage{
		Message: "Your session is missing or expired",
		Action:  "Sign in again",
		Code:    "AUTH001",
	}},
	{is(ErrForbidden), UserMessage{
		Message: "Your role does not allow this action",
		Action:  "Ask an owner for access",
		Code:    "AUTH002",
	}},
	{is(context.Canceled), UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{is(context.DeadlineExceeded), UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "REQ002",
	}},
	{is(ErrBadRequest), UserMessage{
		Message: "The request could not be understood",
		Action:  "Check the submitted values and try again",
		Code:    "REQ003",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages for errors that carry no type, mostly driver errors. The first
// matching pattern wins, so specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Change the SKU or edit the existing product",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Change the SKU or edit the existing product",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB005",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or XLSX file to upload",
			Code:    "FILE004",
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

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed errors are checked first, then the text patterns. If nothing
// matches, a generic fallback message with code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("save: %w", store.ErrNotFound)
//	msg := MapError(err)
//	// msg.Code == "DB002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, te := range typedErrors {
		if te.match(err) {
			return te.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
