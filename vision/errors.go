// Package vision holds the image-side errors shared by the face detector and
// its callers.
package vision

import "errors"

var (
	// ErrInvalidImage is returned when the upload cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid image format")
	// ErrNoFace is returned when no human face is found in the image.
	ErrNoFace = errors.New("no face detected")
)
