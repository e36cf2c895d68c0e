package blueprints

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrBlueprintNotFound indicates a blueprint was not found
	ErrBlueprintNotFound = errors.New("blueprint not found")

	// ErrVersionNotFound indicates a version was not found in the ledger
	ErrVersionNotFound = errors.New("version not found")

	// ErrSoleVersion indicates the last remaining version cannot be deleted
	ErrSoleVersion = errors.New("cannot delete the only version")

	// ErrBlobNotFound indicates a content blob was not found in storage
	ErrBlobNotFound = errors.New("blob not found")

	// ErrInvalidBlueprint indicates submitted content is not a valid blueprint
	ErrInvalidBlueprint = errors.New("invalid blueprint content")

	// ErrInvalidExposure indicates an unknown exposure level
	ErrInvalidExposure = errors.New("invalid exposure")

	// ErrInvalidExpiration indicates an unknown expiration delta
	ErrInvalidExpiration = errors.New("invalid expiration")

	// ErrIDSpaceExhausted indicates file id generation ran out of attempts
	ErrIDSpaceExhausted = errors.New("file id space exhausted")

	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates the username or its slug is already in use
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken indicates the email is already in use
	ErrEmailTaken = errors.New("email already taken")

	// ErrResetThrottled indicates a password reset email was sent too recently
	ErrResetThrottled = errors.New("password reset recently requested")

	// ErrInvalidCredentials indicates a failed username/password check
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Workflow step codes. Each multi-step workflow tags its stages with one of
// these opaque diagnostic codes; they are stable identifiers for logs and
// operations, not user-facing messages.
const (
	CodeLoad          = "#100"
	CodeInsertMain    = "#200"
	CodeInsertVersion = "#300"
	CodeWriteBlob     = "#400"
	CodeUpdateMain    = "#500"
)

// StepError tags a failed workflow stage with its stable diagnostic code.
// Callers that only care about which stage failed can errors.As into it and
// read Code; the underlying cause stays reachable through Unwrap.
type StepError struct {
	Op   string
	Code string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed at step %s: %v", e.Op, e.Code, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepCode extracts the workflow stage code from err, or "" if err carries
// none.
func StepCode(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	FileID  string
	Version int
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for file %s version %d: %v", e.Op, e.FileID, e.Version, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
