package lighting

// Config sizes the light registry and its shadow textures. Zero fields take
// the DefaultConfig value.
type Config struct {
	MaxLights int

	// ShadowsPerLightType is the size of each light type's shadow-slot
	// partition and the upper bound on each texture's layer count.
	ShadowsPerLightType int

	ShadowMapSize      uint32
	PointShadowMapSize uint32

	// PointShadowCubeCount caps the cube-map layers of the point texture.
	PointShadowCubeCount int
}

func DefaultConfig() Config {
	return Config{
		MaxLights:            512,
		ShadowsPerLightType:  5,
		ShadowMapSize:        4096,
		PointShadowMapSize:   1024,
		PointShadowCubeCount: 4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxLights <= 0 {
		c.MaxLights = d.MaxLights
	}
	if c.ShadowsPerLightType <= 0 {
		c.ShadowsPerLightType = d.ShadowsPerLightType
	}
	if c.ShadowMapSize == 0 {
		c.ShadowMapSize = d.ShadowMapSize
	}
	if c.PointShadowMapSize == 0 {
		c.PointShadowMapSize = d.PointShadowMapSize
	}
	if c.PointShadowCubeCount <= 0 {
		c.PointShadowCubeCount = d.PointShadowCubeCount
	}
	return c
}
