package cartridge

import (
	"errors"

	"nescore/internal/translate"
)

var f = translate.From

// ErrInvalidImage matches every malformed or truncated iNES image.
var ErrInvalidImage = errors.New(f("invalid iNES image"))

// ImageError describes why an image was rejected.
type ImageError struct {
	Reason string
	Err    error
}

func (err *ImageError) Error() string {
	if err.Err != nil {
		return f("invalid iNES image: %v: %v", err.Reason, err.Err)
	}
	return f("invalid iNES image: %v", err.Reason)
}

func (err *ImageError) Unwrap() error {
	return err.Err
}

func (err *ImageError) Is(target error) bool {
	return target == ErrInvalidImage
}
