package material

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gputypes"
	"github.com/google/uuid"

	"github.com/zeusync/materials/internal/core/ecs"
)

// ShaderFactory creates and releases shader resource entities.
type ShaderFactory interface {
	CreateShader(address string, stage gputypes.ShaderStage) (ecs.EntityID, error)
	ReleaseShader(id ecs.EntityID)
}

// ShaderCacheKey identifies a shader address within a world scope. Stage is
// not part of the key.
type ShaderCacheKey struct {
	Scope       uuid.UUID
	AddressHash uint64
}

func NewShaderCacheKey(scope uuid.UUID, address string) ShaderCacheKey {
	return ShaderCacheKey{Scope: scope, AddressHash: xxhash.Sum64String(address)}
}

// Hash mixes the scope and the address hash into one bucket hash.
func (k ShaderCacheKey) Hash() uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], k.AddressHash)

	d := xxhash.New()
	_, _ = d.Write(k.Scope[:])
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

type cacheEntry struct {
	scope   uuid.UUID
	address string
	stage   gputypes.ShaderStage
	shader  ecs.EntityID
}

// ShaderCache maps (scope, address) to shader entities. Entries hold the
// owning reference to their shader and live until Clear.
type ShaderCache struct {
	factory ShaderFactory
	buckets map[uint64][]cacheEntry
	size    int
	hits    uint64
	misses  uint64
}

func NewShaderCache(factory ShaderFactory) *ShaderCache {
	return &ShaderCache{
		factory: factory,
		buckets: make(map[uint64][]cacheEntry, 32),
	}
}

// Lookup returns the cached shader for (scope, address) without creating one.
func (c *ShaderCache) Lookup(scope uuid.UUID, address string) (ecs.EntityID, bool) {
	h := NewShaderCacheKey(scope, address).Hash()
	for _, e := range c.buckets[h] {
		if e.scope == scope && e.address == address {
			return e.shader, true
		}
	}
	return ecs.NoEntity, false
}

// Resolve returns the cached shader for (scope, address), creating it with
// stage on a miss. hit reports whether the entry already existed. A cached
// handle is returned as is, even if the shader has since been destroyed.
func (c *ShaderCache) Resolve(scope uuid.UUID, address string, stage gputypes.ShaderStage) (shader ecs.EntityID, hit bool, err error) {
	if id, ok := c.Lookup(scope, address); ok {
		c.hits++
		return id, true, nil
	}
	id, err := c.factory.CreateShader(address, stage)
	if err != nil {
		return ecs.NoEntity, false, err
	}
	h := NewShaderCacheKey(scope, address).Hash()
	c.buckets[h] = append(c.buckets[h], cacheEntry{scope: scope, address: address, stage: stage, shader: id})
	c.size++
	c.misses++
	return id, false, nil
}

func (c *ShaderCache) Len() int { return c.size }

func (c *ShaderCache) Hits() uint64   { return c.hits }
func (c *ShaderCache) Misses() uint64 { return c.misses }

// Clear drops every entry, passing each shader to release if non-nil.
func (c *ShaderCache) Clear(release func(ecs.EntityID)) {
	if release != nil {
		for _, bucket := range c.buckets {
			for _, e := range bucket {
				release(e.shader)
			}
		}
	}
	clear(c.buckets)
	c.size = 0
}
