package payload

import (
	"errors"
	"fmt"
)

// ErrPayloadTooLarge matches every TooLargeError via errors.Is.
var ErrPayloadTooLarge = errors.New("Maximum payload size exceeded")

// TooLargeError reports that the uncompressed envelope outgrew the bound.
// The batch must be split by the caller; nothing was produced.
type TooLargeError struct {
	Limit int
	// Size is the envelope size the rejected append would have produced.
	Size int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s: %d bytes over a limit of %d", ErrPayloadTooLarge.Error(), e.Size, e.Limit)
}

// Is makes errors.Is(err, ErrPayloadTooLarge) hold for any TooLargeError.
func (e *TooLargeError) Is(target error) bool {
	return target == ErrPayloadTooLarge
}
