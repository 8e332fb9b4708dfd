package lighting

import "errors"

var (
	ErrLightCapacity     = errors.New("lighting: light capacity exceeded")
	ErrShadowCapacity    = errors.New("lighting: cannot add any more shadows to scenario")
	ErrIndexNotReserved  = errors.New("lighting: light index not reserved")
	ErrShadowMapNotFound = errors.New("lighting: shadow map not registered")
	ErrUnknownLightType  = errors.New("lighting: unknown light type")
	ErrSlotOutOfRange    = errors.New("lighting: shadow slot out of range")
)
