package lumen

import "errors"

var (
	// ErrLightNotPositioned is raised when a point or spot shadow is derived
	// before the light has a world position.
	ErrLightNotPositioned = errors.New("lumen: light has not been positioned")
	ErrStaleContext       = errors.New("lumen: light belongs to a reset render context")
	ErrLightDestroyed     = errors.New("lumen: light component destroyed")
	ErrInvalidLightData   = errors.New("lumen: invalid light data")
)
