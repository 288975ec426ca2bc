package codec

import "errors"

var (
	// ErrMalformedPayload means the printable-string layer rejected the input.
	ErrMalformedPayload = errors.New("malformed payload encoding")
	// ErrCorruptPayload means the compressed byte stream is corrupt or truncated.
	ErrCorruptPayload = errors.New("corrupt compressed payload")
	// ErrMalformedRecord means the decompressed bytes are not a valid record.
	ErrMalformedRecord = errors.New("malformed profile record")
)
