package formflow

import (
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	ErrCodeInvalidAction       = "INVALID_ACTION"
	ErrCodeUnresolvedIndexKey  = "UNRESOLVED_INDEX_KEY"
	ErrCodeRemoteRequestFailed = "REMOTE_REQUEST_FAILED"
	ErrCodeDecodeResponse      = "DECODE_RESPONSE_FAILED"
)

var (
	ErrInvalidAction = errors.New("invalid action", errors.CategoryValidation).
				WithTextCode(ErrCodeInvalidAction)
	ErrUnresolvedIndexKey = errors.New("index key has no publishing field", errors.CategoryBadInput).
				WithTextCode(ErrCodeUnresolvedIndexKey)
	ErrRemoteRequest = errors.New("remote request failed", errors.CategoryExternal).
				WithTextCode(ErrCodeRemoteRequestFailed)
	ErrDecodeResponse = errors.New("could not decode response", errors.CategoryExternal).
				WithTextCode(ErrCodeDecodeResponse)
)

// NewError clones base, optionally replacing its message and attaching a
// source error and metadata.
func NewError(base *errors.Error, message string, source error, metadata map[string]any) *errors.Error {
	if base == nil {
		base = ErrInvalidAction
	}
	err := base.Clone()
	if text := strings.TrimSpace(message); text != "" {
		err.Message = text
	}
	if source != nil {
		err.Source = source
	}
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// ErrorCode returns the text code of a catalogued error.
func ErrorCode(err error) string {
	var ge *errors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ge *errors.Error
	if stderrors.As(err, &ge) && strings.TrimSpace(ge.Message) != "" {
		return ge.Message
	}
	return err.Error()
}
