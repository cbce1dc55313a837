package material

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// BlendSettings is the colour and alpha blend state of a material.
type BlendSettings struct {
	BlendEnable           bool
	SourceColorBlend      gputypes.BlendFactor
	DestinationColorBlend gputypes.BlendFactor
	ColorBlendOperation   gputypes.BlendOperation
	SourceAlphaBlend      gputypes.BlendFactor
	DestinationAlphaBlend gputypes.BlendFactor
	AlphaBlendOperation   gputypes.BlendOperation
}

// OpaqueBlend is the blend state used when a descriptor has no blendSettings.
func OpaqueBlend() BlendSettings {
	return BlendSettings{
		BlendEnable:           false,
		SourceColorBlend:      gputypes.BlendFactorOne,
		DestinationColorBlend: gputypes.BlendFactorZero,
		ColorBlendOperation:   gputypes.BlendOperationAdd,
		SourceAlphaBlend:      gputypes.BlendFactorOne,
		DestinationAlphaBlend: gputypes.BlendFactorZero,
		AlphaBlendOperation:   gputypes.BlendOperationAdd,
	}
}

// GPU converts the settings to a pipeline blend state. Disabled blending is
// nil, which renderers treat as "replace".
func (b BlendSettings) GPU() *gputypes.BlendState {
	if !b.BlendEnable {
		return nil
	}
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: b.SourceColorBlend,
			DstFactor: b.DestinationColorBlend,
			Operation: b.ColorBlendOperation,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: b.SourceAlphaBlend,
			DstFactor: b.DestinationAlphaBlend,
			Operation: b.AlphaBlendOperation,
		},
	}
}

// DepthFlags is the set of depth/stencil features a material enables.
type DepthFlags uint8

const (
	DepthTest DepthFlags = 1 << iota
	DepthWrite
	DepthBoundsTest
	StencilTest
)

func (f DepthFlags) Has(flag DepthFlags) bool { return f&flag == flag }

func (f DepthFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, p := range []struct {
		flag DepthFlags
		name string
	}{
		{DepthTest, "depthTest"},
		{DepthWrite, "depthWrite"},
		{DepthBoundsTest, "depthBoundsTest"},
		{StencilTest, "stencilTest"},
	} {
		if f.Has(p.flag) {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "|")
}

// StencilSettings is the stencil state of one face.
type StencilSettings struct {
	FailOperation      gputypes.StencilOperation
	PassOperation      gputypes.StencilOperation
	DepthFailOperation gputypes.StencilOperation
	CompareOperation   gputypes.CompareFunction
	CompareMask        uint32
	WriteMask          uint32
	ReferenceMask      uint32
}

// DefaultStencil leaves the stencil buffer untouched.
func DefaultStencil() StencilSettings {
	return StencilSettings{
		FailOperation:      gputypes.StencilOperationKeep,
		PassOperation:      gputypes.StencilOperationKeep,
		DepthFailOperation: gputypes.StencilOperationKeep,
		CompareOperation:   gputypes.CompareFunctionAlways,
		CompareMask:        0xFFFFFFFF,
		WriteMask:          0xFFFFFFFF,
		ReferenceMask:      0,
	}
}

func (s StencilSettings) gpu() gputypes.StencilFaceState {
	return gputypes.StencilFaceState{
		Compare:     s.CompareOperation,
		FailOp:      s.FailOperation,
		DepthFailOp: s.DepthFailOperation,
		PassOp:      s.PassOperation,
	}
}

// DepthSettings is the depth and stencil state of a material.
type DepthSettings struct {
	Flags            DepthFlags
	CompareOperation gputypes.CompareFunction
	MinDepth         float32
	MaxDepth         float32
	Front            StencilSettings
	Back             StencilSettings
}

// DefaultDepth disables every depth and stencil feature over the full depth
// range.
func DefaultDepth() DepthSettings {
	return DepthSettings{
		Flags:            0,
		CompareOperation: gputypes.CompareFunctionAlways,
		MinDepth:         0,
		MaxDepth:         1,
		Front:            DefaultStencil(),
		Back:             DefaultStencil(),
	}
}

// GPU converts the settings to a pipeline depth/stencil state for a target of
// the given format.
//
// WebGPU has a single read and write mask shared by both faces and sets the
// stencil reference and depth bounds dynamically, so the front face masks are
// used and bounds are left to StencilReference and the caller.
func (d DepthSettings) GPU(format gputypes.TextureFormat) gputypes.DepthStencilState {
	state := gputypes.DepthStencilState{
		Format:            format,
		DepthWriteEnabled: d.Flags.Has(DepthWrite),
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      gputypes.DefaultStencilFaceState(),
		StencilBack:       gputypes.DefaultStencilFaceState(),
		StencilReadMask:   0xFFFFFFFF,
		StencilWriteMask:  0xFFFFFFFF,
	}
	if d.Flags.Has(DepthTest) {
		state.DepthCompare = d.CompareOperation
	}
	if d.Flags.Has(StencilTest) {
		state.StencilFront = d.Front.gpu()
		state.StencilBack = d.Back.gpu()
		state.StencilReadMask = d.Front.CompareMask
		state.StencilWriteMask = d.Front.WriteMask
	}
	return state
}

// StencilReference is the dynamic stencil reference value for the pipeline.
func (d DepthSettings) StencilReference() uint32 {
	return d.Front.ReferenceMask
}
