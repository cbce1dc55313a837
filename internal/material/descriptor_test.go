package material

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor_Defaults(t *testing.T) {
	d, err := ParseDescriptor([]byte(`{"vertex":"v.glsl","fragment":"f.glsl"}`))
	require.NoError(t, err)

	assert.Equal(t, "v.glsl", d.Vertex)
	assert.Equal(t, "f.glsl", d.Fragment)
	assert.Equal(t, int8(0), d.RenderGroup)
	assert.Equal(t, OpaqueBlend(), d.Blend)
	assert.Equal(t, DefaultDepth(), d.Depth)
}

func TestParseDescriptor_MissingShaders(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
		text string
	}{
		{"neither", `{}`, ErrMissingShaders, "no vertex and no fragment"},
		{"no vertex", `{"fragment":"f.glsl"}`, ErrMissingVertex, "vertex"},
		{"no fragment", `{"vertex":"v.glsl"}`, ErrMissingFragment, "fragment"},
		{"empty vertex", `{"vertex":"","fragment":"f.glsl"}`, ErrMissingVertex, "vertex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescriptor([]byte(tt.json))
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.text)
		})
	}
}

func TestParseDescriptor_Malformed(t *testing.T) {
	for _, in := range []string{
		``, `null`, `[1,2]`, `{"vertex":`,
		`{"vertex":"v","fragment":"f"} junk`,
		`{"vertex":"v","fragment":"f"}{}`,
	} {
		_, err := ParseDescriptor([]byte(in))
		assert.ErrorIs(t, err, ErrMalformedDescriptor, in)
	}
}

func TestDecodeObject_SurroundingWhitespace(t *testing.T) {
	obj, err := DecodeObject([]byte("\n  {\"vertex\":\"v\"}  \n"))
	require.NoError(t, err)
	v, ok, err := obj.String("vertex")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestParseDescriptor_Overlay(t *testing.T) {
	d, err := ParseDescriptor([]byte(`{
		"vertex": "v.glsl", "fragment": "f.glsl",
		"renderOrder": -2,
		"blendEnable": true,
		"sourceColorBlend": "One",
		"destinationColorBlend": "Zero",
		"alphaBlendOperation": "max",
		"depthTest": true, "depthWrite": true, "stencilTest": false,
		"compareOperation": "Greater",
		"minDepthBounds": 0.25, "maxDepthBounds": 0.75,
		"front": {"passOperation": "Replace", "referenceMask": 7, "compareMask": -1},
		"back": {"compareOperation": "Never", "writeMask": 255}
	}`))
	require.NoError(t, err)

	assert.Equal(t, int8(-2), d.RenderGroup)
	assert.True(t, d.Blend.BlendEnable)
	assert.Equal(t, gputypes.BlendFactorOne, d.Blend.SourceColorBlend)
	assert.Equal(t, gputypes.BlendFactorZero, d.Blend.DestinationColorBlend)
	assert.Equal(t, gputypes.BlendOperationMax, d.Blend.AlphaBlendOperation)
	assert.Equal(t, gputypes.BlendOperationAdd, d.Blend.ColorBlendOperation)

	assert.Equal(t, DepthTest|DepthWrite, d.Depth.Flags)
	assert.Equal(t, gputypes.CompareFunctionGreater, d.Depth.CompareOperation)
	assert.Equal(t, float32(0.25), d.Depth.MinDepth)
	assert.Equal(t, float32(0.75), d.Depth.MaxDepth)

	front := DefaultStencil()
	front.PassOperation = gputypes.StencilOperationReplace
	front.ReferenceMask = 7
	front.CompareMask = 0xFFFFFFFF
	assert.Equal(t, front, d.Depth.Front)

	back := DefaultStencil()
	back.CompareOperation = gputypes.CompareFunctionNever
	back.WriteMask = 255
	assert.Equal(t, back, d.Depth.Back)
}

func TestParseDescriptor_NarrowingTruncates(t *testing.T) {
	d, err := ParseDescriptor([]byte(`{"vertex":"v","fragment":"f","renderOrder":3.9,"front":{"writeMask":15.7}}`))
	require.NoError(t, err)
	assert.Equal(t, int8(3), d.RenderGroup)
	assert.Equal(t, uint32(15), d.Depth.Front.WriteMask)

	d, err = ParseDescriptor([]byte(`{"vertex":"v","fragment":"f","renderOrder":-2.7}`))
	require.NoError(t, err)
	assert.Equal(t, int8(-2), d.RenderGroup)
}

func TestParseDescriptor_UnknownEnum(t *testing.T) {
	_, err := ParseDescriptor([]byte(`{"vertex":"v","fragment":"f","compareOperation":"Bogus"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEnumValue)
	assert.Contains(t, err.Error(), "compareOperation")
	assert.Contains(t, err.Error(), "Bogus")

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "compareOperation", pe.Field)
	assert.Equal(t, "Bogus", pe.Value)
	assert.Contains(t, pe.Valid, "LessEqual")
}

func TestParseDescriptor_UnknownEnumInStencilFace(t *testing.T) {
	_, err := ParseDescriptor([]byte(`{"vertex":"v","fragment":"f","back":{"failOperation":"Explode"}}`))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "back.failOperation", pe.Field)
	assert.Equal(t, "Explode", pe.Value)
}

func TestParseDescriptor_WrongType(t *testing.T) {
	tests := map[string]string{
		"vertex":      `{"vertex":1,"fragment":"f"}`,
		"blendEnable": `{"vertex":"v","fragment":"f","blendEnable":"yes"}`,
		"renderOrder": `{"vertex":"v","fragment":"f","renderOrder":"front"}`,
		"front":       `{"vertex":"v","fragment":"f","front":3}`,
	}
	for field, in := range tests {
		t.Run(field, func(t *testing.T) {
			_, err := ParseDescriptor([]byte(in))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.ErrorIs(t, err, ErrWrongType)
			assert.Equal(t, field, pe.Field)
		})
	}
}

func TestParseDescriptor_NullFieldsAreAbsent(t *testing.T) {
	d, err := ParseDescriptor([]byte(`{"vertex":"v","fragment":"f","compareOperation":null,"front":null}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultDepth(), d.Depth)
}

func TestSettings_GPU(t *testing.T) {
	assert.Nil(t, OpaqueBlend().GPU())

	b := OpaqueBlend()
	b.BlendEnable = true
	b.SourceColorBlend = gputypes.BlendFactorSrcAlpha
	b.DestinationColorBlend = gputypes.BlendFactorOneMinusSrcAlpha
	state := b.GPU()
	require.NotNil(t, state)
	assert.Equal(t, gputypes.BlendFactorSrcAlpha, state.Color.SrcFactor)
	assert.Equal(t, gputypes.BlendFactorOneMinusSrcAlpha, state.Color.DstFactor)
	assert.Equal(t, gputypes.BlendFactorOne, state.Alpha.SrcFactor)

	ds := DefaultDepth().GPU(gputypes.TextureFormatDepth24PlusStencil8)
	assert.False(t, ds.DepthWriteEnabled)
	assert.Equal(t, gputypes.CompareFunctionAlways, ds.DepthCompare)
	assert.Equal(t, gputypes.DefaultStencilFaceState(), ds.StencilFront)

	d := DefaultDepth()
	d.Flags = DepthTest | DepthWrite | StencilTest
	d.CompareOperation = gputypes.CompareFunctionLess
	d.Front.PassOperation = gputypes.StencilOperationReplace
	d.Front.CompareMask = 0x0F
	d.Front.ReferenceMask = 1
	ds = d.GPU(gputypes.TextureFormatDepth24PlusStencil8)
	assert.True(t, ds.DepthWriteEnabled)
	assert.Equal(t, gputypes.CompareFunctionLess, ds.DepthCompare)
	assert.Equal(t, gputypes.StencilOperationReplace, ds.StencilFront.PassOp)
	assert.Equal(t, uint32(0x0F), ds.StencilReadMask)
	assert.Equal(t, uint32(1), d.StencilReference())
}

func TestDepthFlags_String(t *testing.T) {
	assert.Equal(t, "none", DepthFlags(0).String())
	assert.Equal(t, "depthTest|stencilTest", (DepthTest | StencilTest).String())
}
