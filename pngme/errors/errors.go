package errors

import "fmt"

// Error types for pngme operations
var (
	// ErrInvalidTypeBytes is returned when a chunk type contains a byte that is not an ASCII letter
	ErrInvalidTypeBytes = &PngError{Code: "INVALID_TYPE_BYTES", Message: "chunk type must be ASCII letters"}

	// ErrInvalidLength is returned when a chunk type string is not exactly 4 bytes
	ErrInvalidLength = &PngError{Code: "INVALID_LENGTH", Message: "chunk type must be 4 bytes long"}

	// ErrBufferTooShort is returned when a buffer ends before a chunk frame is complete
	ErrBufferTooShort = &PngError{Code: "BUFFER_TOO_SHORT", Message: "buffer too short for chunk"}

	// ErrInvalidChunkType is returned when a chunk type has its reserved bit set
	ErrInvalidChunkType = &PngError{Code: "INVALID_CHUNK_TYPE", Message: "invalid chunk type"}

	// ErrCrcMismatch is returned when a stored chunk CRC does not match the computed one
	ErrCrcMismatch = &PngError{Code: "CRC_MISMATCH", Message: "chunk CRC mismatch"}

	// ErrBadSignature is returned when data does not start with the PNG signature
	ErrBadSignature = &PngError{Code: "BAD_SIGNATURE", Message: "bad PNG signature"}

	// ErrChunkNotFound is returned when no chunk matches the requested type
	ErrChunkNotFound = &PngError{Code: "CHUNK_NOT_FOUND", Message: "chunk not found"}

	// ErrInvalidEncoding is returned when a chunk payload is not valid UTF-8
	ErrInvalidEncoding = &PngError{Code: "INVALID_ENCODING", Message: "chunk data is not valid UTF-8"}

	// ErrPayloadTooLarge is returned when a payload does not fit the 32-bit length field
	ErrPayloadTooLarge = &PngError{Code: "PAYLOAD_TOO_LARGE", Message: "chunk payload too large"}

	// ErrStorage is returned when reading or writing a file fails
	ErrStorage = &PngError{Code: "STORAGE_FAILED", Message: "storage operation failed"}

	// ErrMessageCodec is returned when a message payload cannot be compressed or inflated
	ErrMessageCodec = &PngError{Code: "MESSAGE_CODEC_FAILED", Message: "message codec failed"}
)

// PngError represents a structured error in pngme operations
type PngError struct {
	Code    string                 // Error code for programmatic handling
	Message string                 // Human-readable error message
	Cause   error                  // Underlying error, if any
	Details map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *PngError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PngError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PngError with the same code, so decorated
// copies still match their sentinel.
func (e *PngError) Is(target error) bool {
	t, ok := target.(*PngError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause adds a cause to the error
func (e *PngError) WithCause(cause error) *PngError {
	return &PngError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
		Details: e.Details,
	}
}

// WithDetail adds a detail key-value pair to the error
func (e *PngError) WithDetail(key string, value interface{}) *PngError {
	details := make(map[string]interface{})
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &PngError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// WithMessage overrides the error message
func (e *PngError) WithMessage(message string) *PngError {
	return &PngError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
		Details: e.Details,
	}
}

// IsPngError checks if an error is a PngError
func IsPngError(err error) bool {
	_, ok := err.(*PngError)
	return ok
}

// GetErrorCode extracts the error code of the outermost PngError in err's chain
func GetErrorCode(err error) string {
	for err != nil {
		if pngErr, ok := err.(*PngError); ok {
			return pngErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
