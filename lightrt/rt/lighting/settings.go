package lighting

import (
	"fmt"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/logging"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	pointMatricesSize = 6 * 64
	freeSlot          = -1
)

// Queues are the GPU arrays the lighting shaders read.
type Queues struct {
	Lights        *gpu.UpdateQueue // core.Light per light index
	Shadows       *gpu.UpdateQueue // core.ShadowInfo per light index
	PointMatrices *gpu.UpdateQueue // 6 view-projections per point shadow layer
	PointSpheres  *gpu.UpdateQueue // core.BoundingSphere per point shadow layer
}

func (q Queues) all() [4]*gpu.UpdateQueue {
	return [4]*gpu.UpdateQueue{q.Lights, q.Shadows, q.PointMatrices, q.PointSpheres}
}

// LightingSettings is the per-render-context registry of lights and shadow
// slots. It hands out dense light indices, partitions the shadow-slot table
// by light type and owns the GPU arrays and shadow textures.
//
// Not safe for concurrent use.
type LightingSettings struct {
	cfg    Config
	logger logging.Logger

	// Bumped by ClearLights. Holders of indices or slots from an older
	// epoch must not use them.
	epoch uint64

	lightCount int
	reserved   []bool
	// LIFO free-list of released light indices.
	deletedIndices []int

	// shadowSlots[t*ShadowsPerLightType+i] holds the light index occupying
	// layer i of type t's texture, or -1.
	shadowSlots []int
	shadowMaps  []*ShadowMap

	queues   Queues
	textures [core.NumLightTypes]gpu.Texture
	depths   [core.NumLightTypes]int
}

// NewLightingSettings allocates the light and shadow arrays on dev and
// creates one shadow texture per light type, sized against the device limits.
func NewLightingSettings(dev gpu.Device, cfg Config, logger logging.Logger) *LightingSettings {
	cfg = cfg.withDefaults()
	s := &LightingSettings{
		cfg:         cfg,
		logger:      logging.OrNop(logger),
		reserved:    make([]bool, cfg.MaxLights),
		shadowSlots: make([]int, cfg.ShadowsPerLightType*core.NumLightTypes),
	}
	for i := range s.shadowSlots {
		s.shadowSlots[i] = freeSlot
	}

	n := cfg.ShadowsPerLightType
	s.queues = Queues{
		Lights:        gpu.NewUpdateQueue(dev, "Lights", cfg.MaxLights*core.LightSize),
		Shadows:       gpu.NewUpdateQueue(dev, "Shadows", cfg.MaxLights*core.ShadowInfoSize),
		PointMatrices: gpu.NewUpdateQueue(dev, "Point Shadow Matrices", n*pointMatricesSize),
		PointSpheres:  gpu.NewUpdateQueue(dev, "Point Shadow Spheres", n*core.BoundingSphereSize),
	}
	s.seed()
	s.createTextures(dev)
	return s
}

// seed writes the sentinel records every GPU array starts with.
func (s *LightingSettings) seed() {
	empty := core.EmptyShadowInfo()
	rec := empty.Marshal()
	all := make([]byte, 0, s.cfg.MaxLights*len(rec))
	for i := 0; i < s.cfg.MaxLights; i++ {
		all = append(all, rec...)
	}
	s.queues.Shadows.WriteRange(0, all)

	term := core.DisabledLight()
	term.SetIndex(0)
	s.queues.Lights.WriteRange(0, term.Marshal())
}

func (s *LightingSettings) createTextures(dev gpu.Device) {
	limits := dev.Limits()
	maxLayers := int(limits.MaxTextureArrayLayers)
	maxSize := limits.MaxTextureDimension2D
	if maxSize == 0 {
		maxSize = s.cfg.ShadowMapSize
	}

	planar := min(maxLayers, s.cfg.ShadowsPerLightType)
	cubes := min(maxLayers/6, s.cfg.PointShadowCubeCount, s.cfg.ShadowsPerLightType)

	s.depths[core.LightTypeDirectional] = planar
	s.depths[core.LightTypeSpot] = planar
	s.depths[core.LightTypePoint] = cubes

	s.textures[core.LightTypeDirectional] = dev.CreateShadowTexture(gpu.TextureDesc{
		Label:  "Directional Shadow Maps",
		Size:   min(maxSize, s.cfg.ShadowMapSize),
		Layers: uint32(planar),
	})
	s.textures[core.LightTypeSpot] = dev.CreateShadowTexture(gpu.TextureDesc{
		Label:  "Spot Shadow Maps",
		Size:   min(maxSize, s.cfg.ShadowMapSize),
		Layers: uint32(planar),
	})
	s.textures[core.LightTypePoint] = dev.CreateShadowTexture(gpu.TextureDesc{
		Label:  "Point Shadow Maps",
		Size:   min(maxSize, s.cfg.PointShadowMapSize),
		Layers: uint32(cubes),
		Cube:   true,
	})

	s.logger.Debugf("shadow textures: %d directional, %d spot, %d point cubes", planar, planar, cubes)
}

func (s *LightingSettings) Config() Config { return s.cfg }

func (s *LightingSettings) Epoch() uint64 { return s.epoch }

// LightCount is the number of indices ever handed out, including released
// ones waiting on the free-list.
func (s *LightingSettings) LightCount() int { return s.lightCount }

func (s *LightingSettings) Queues() Queues { return s.queues }

func (s *LightingSettings) ShadowTextures() [core.NumLightTypes]gpu.Texture { return s.textures }

// ShadowTextureDepth is the number of layers (cubes for point lights) in the
// light type's shadow texture.
func (s *LightingSettings) ShadowTextureDepth(t core.LightType) int {
	mustKnowType(t)
	return s.depths[t]
}

// ShadowSlots returns a copy of the slot table.
func (s *LightingSettings) ShadowSlots() []int {
	out := make([]int, len(s.shadowSlots))
	copy(out, s.shadowSlots)
	return out
}

// ShadowMaps returns the registered shadow maps in registration order.
func (s *LightingSettings) ShadowMaps() []*ShadowMap {
	out := make([]*ShadowMap, len(s.shadowMaps))
	copy(out, s.shadowMaps)
	return out
}

// ReserveLightIndex returns a free light index, reusing the most recently
// released one first. Panics with ErrLightCapacity once MaxLights indices
// are live.
func (s *LightingSettings) ReserveLightIndex() int {
	if n := len(s.deletedIndices); n > 0 {
		index := s.deletedIndices[n-1]
		s.deletedIndices = s.deletedIndices[:n-1]
		s.reserved[index] = true
		return index
	}

	if s.lightCount >= s.cfg.MaxLights {
		panic(fmt.Errorf("%w: %d lights", ErrLightCapacity, s.cfg.MaxLights))
	}
	index := s.lightCount
	s.lightCount++
	s.reserved[index] = true

	// Keep a disabled terminator just past the live range.
	if s.lightCount < s.cfg.MaxLights {
		term := core.DisabledLight()
		term.SetIndex(s.lightCount)
		s.QueueLight(&term)
	}
	return index
}

// ReleaseLightIndex returns index to the free-list and hides its record.
func (s *LightingSettings) ReleaseLightIndex(index int) {
	if index < 0 || index >= s.lightCount || !s.reserved[index] {
		panic(fmt.Errorf("%w: %d", ErrIndexNotReserved, index))
	}
	s.reserved[index] = false
	s.deletedIndices = append(s.deletedIndices, index)

	term := core.DisabledLight()
	term.SetIndex(index)
	s.QueueLight(&term)
	empty := core.EmptyShadowInfo()
	s.QueueShadow(index, &empty)
}

// CheckLights panics if more lights are live than the GPU array holds.
func (s *LightingSettings) CheckLights() {
	if s.lightCount > s.cfg.MaxLights {
		panic(fmt.Errorf("%w: %d > %d", ErrLightCapacity, s.lightCount, s.cfg.MaxLights))
	}
}

func (s *LightingSettings) partition(t core.LightType) (base, size int) {
	mustKnowType(t)
	return int(t) * s.cfg.ShadowsPerLightType, s.depths[t]
}

// CanAddShadow reports the lowest free absolute slot in the light type's
// partition.
func (s *LightingSettings) CanAddShadow(t core.LightType) (bool, int) {
	base, size := s.partition(t)
	for i := base; i < base+size; i++ {
		if s.shadowSlots[i] == freeSlot {
			return true, i
		}
	}
	return false, freeSlot
}

// AddShadow registers shadowMap in slot for the light at lightIndex. The slot
// must be free and inside the shadow map's type partition.
func (s *LightingSettings) AddShadow(shadowMap *ShadowMap, slot, lightIndex int) {
	if slot < 0 || slot >= len(s.shadowSlots) {
		panic(fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot))
	}
	base, size := s.partition(shadowMap.LightType())
	if slot < base || slot >= base+size {
		panic(fmt.Errorf("%w: slot %d outside %s partition [%d, %d)", ErrShadowCapacity, slot, shadowMap.LightType(), base, base+size))
	}
	if s.shadowSlots[slot] != freeSlot {
		panic(fmt.Errorf("%w: slot %d held by light %d", ErrShadowCapacity, slot, s.shadowSlots[slot]))
	}

	s.shadowSlots[slot] = lightIndex
	s.shadowMaps = append(s.shadowMaps, shadowMap)
	shadowMap.slot = slot
	shadowMap.layer = slot - base
	s.logger.Debugf("shadow %s: light %d -> %s layer %d", shadowMap.ID(), lightIndex, shadowMap.LightType(), shadowMap.layer)
}

// RemoveShadow unregisters shadowMap, matched by ID, and frees slot.
func (s *LightingSettings) RemoveShadow(shadowMap *ShadowMap, slot int) {
	if slot < 0 || slot >= len(s.shadowSlots) {
		panic(fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot))
	}
	found := -1
	for i, m := range s.shadowMaps {
		if m.ID() == shadowMap.ID() {
			found = i
			break
		}
	}
	if found < 0 {
		panic(fmt.Errorf("%w: %s", ErrShadowMapNotFound, shadowMap.ID()))
	}

	s.shadowMaps = append(s.shadowMaps[:found], s.shadowMaps[found+1:]...)
	s.shadowSlots[slot] = freeSlot
	shadowMap.slot = -1
	shadowMap.layer = core.NoShadowMap
	s.logger.Debugf("shadow %s: released slot %d", shadowMap.ID(), slot)
}

// QueueLight stages light at its own index. Disabled lights are written with
// zero intensity so shaders can skip them without reading the flags.
func (s *LightingSettings) QueueLight(light *core.Light) {
	rec := *light
	if !rec.Enabled() {
		rec.SetIntensity(0)
	}
	s.queues.Lights.QueueRecord(&rec, rec.Index())
}

func (s *LightingSettings) QueueShadow(lightIndex int, info *core.ShadowInfo) {
	s.queues.Shadows.QueueRecord(info, lightIndex)
}

// QueuePointShadow stages the six face matrices and bounding sphere of the
// point shadow in absolute slot.
func (s *LightingSettings) QueuePointShadow(slot int, viewProjs [6]mgl32.Mat4, sphere core.BoundingSphere) {
	base, size := s.partition(core.LightTypePoint)
	layer := slot - base
	if layer < 0 || layer >= size {
		panic(fmt.Errorf("%w: point slot %d", ErrSlotOutOfRange, slot))
	}
	s.queues.PointMatrices.QueueUpdate(layer*pointMatricesSize, core.Mat4Bytes(viewProjs[:]...))
	s.queues.PointSpheres.QueueRecord(&sphere, layer)
}

// FlushBuffers uploads this frame's writes into the back buffers and returns
// how many buffers received data.
func (s *LightingSettings) FlushBuffers() int {
	uploads := 0
	for _, q := range s.queues.all() {
		if q.FlushBuffer() {
			uploads++
		}
	}
	return uploads
}

func (s *LightingSettings) SwapBuffers() {
	for _, q := range s.queues.all() {
		q.SwapBuffers()
	}
}

// ClearLights forgets every light and shadow and resets the GPU arrays to
// their initial contents. Every index and slot handed out before is void;
// Epoch changes so their holders can tell.
func (s *LightingSettings) ClearLights() {
	s.epoch++
	s.lightCount = 0
	s.deletedIndices = s.deletedIndices[:0]
	for i := range s.reserved {
		s.reserved[i] = false
	}
	for i := range s.shadowSlots {
		s.shadowSlots[i] = freeSlot
	}
	for _, m := range s.shadowMaps {
		m.slot = -1
		m.layer = core.NoShadowMap
	}
	s.shadowMaps = nil

	for _, q := range s.queues.all() {
		q.Clear()
	}
	s.seed()
}

// Release frees every GPU resource. The settings must not be used afterwards.
func (s *LightingSettings) Release() {
	for _, q := range s.queues.all() {
		if q != nil {
			q.Release()
		}
	}
	for i, t := range s.textures {
		if t != nil {
			t.Release()
			s.textures[i] = nil
		}
	}
}
