package material

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gogpu/gputypes"
)

// Object is a decoded JSON object. Numbers are kept as json.Number until a
// typed accessor narrows them.
type Object map[string]any

// DecodeObject decodes data into an Object. The input must be exactly one
// JSON object, optionally surrounded by whitespace.
func DecodeObject(data []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedDescriptor)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedDescriptor)
	}
	return obj, nil
}

func wrongType(field string, v any) *ParseError {
	return &ParseError{Field: field, Value: fmt.Sprint(v), Err: ErrWrongType}
}

// String returns the string at field. present is false when the field is
// absent or null.
func (o Object) String(field string) (value string, present bool, err error) {
	v, ok := o[field]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, wrongType(field, v)
	}
	return s, true, nil
}

func (o Object) Number(field string) (value float64, present bool, err error) {
	v, ok := o[field]
	if !ok || v == nil {
		return 0, false, nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, true, wrongType(field, v)
	}
	f, err := n.Float64()
	if err != nil {
		return 0, true, &ParseError{Field: field, Value: n.String(), Err: err}
	}
	return f, true, nil
}

func (o Object) Bool(field string) (value bool, present bool, err error) {
	v, ok := o[field]
	if !ok || v == nil {
		return false, false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, true, wrongType(field, v)
	}
	return b, true, nil
}

func (o Object) Object(field string) (value Object, present bool, err error) {
	v, ok := o[field]
	if !ok || v == nil {
		return nil, false, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, true, wrongType(field, v)
	}
	return m, true, nil
}

// Descriptor is a parsed material descriptor.
type Descriptor struct {
	Vertex      string
	Fragment    string
	RenderGroup int8
	Blend       BlendSettings
	Depth       DepthSettings
}

// Material builds the component for the descriptor. Shader reference slots
// are left unset; they are filled when the mutation batch commits.
func (d *Descriptor) Material() Material {
	return Material{
		RenderGroup:    d.RenderGroup,
		VertexShader:   NoShader,
		FragmentShader: NoShader,
		Blend:          d.Blend,
		Depth:          d.Depth,
	}
}

// ParseDescriptor decodes and validates a material descriptor.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	obj, err := DecodeObject(data)
	if err != nil {
		return nil, err
	}
	return ParseDescriptorObject(obj)
}

func ParseDescriptorObject(obj Object) (*Descriptor, error) {
	vertex, hasVertex, err := obj.String("vertex")
	if err != nil {
		return nil, err
	}
	fragment, hasFragment, err := obj.String("fragment")
	if err != nil {
		return nil, err
	}
	hasVertex = hasVertex && vertex != ""
	hasFragment = hasFragment && fragment != ""
	switch {
	case !hasVertex && !hasFragment:
		return nil, ErrMissingShaders
	case !hasVertex:
		return nil, ErrMissingVertex
	case !hasFragment:
		return nil, ErrMissingFragment
	}

	d := &Descriptor{Vertex: vertex, Fragment: fragment}

	order, ok, err := obj.Number("renderOrder")
	if err != nil {
		return nil, err
	}
	if ok {
		d.RenderGroup = int8(int64(order))
	}

	if d.Blend, err = ParseBlendSettings(obj); err != nil {
		return nil, err
	}
	if d.Depth, err = ParseDepthSettings(obj); err != nil {
		return nil, err
	}
	return d, nil
}

// enumField resolves field through lookup and stores the value in dst when
// the field is present.
func enumField[T any](obj Object, field string, dst *T, lookup func(string) (T, bool), names func() []string) error {
	name, ok, err := obj.String(field)
	if err != nil || !ok {
		return err
	}
	v, found := lookup(name)
	if !found {
		return &ParseError{Field: field, Value: name, Err: ErrUnknownEnumValue, Valid: names()}
	}
	*dst = v
	return nil
}

func maskField(obj Object, field string, dst *uint32) error {
	n, ok, err := obj.Number(field)
	if err != nil || !ok {
		return err
	}
	*dst = uint32(int64(n))
	return nil
}

func boundField(obj Object, field string, dst *float32) error {
	n, ok, err := obj.Number(field)
	if err != nil || !ok {
		return err
	}
	*dst = float32(n)
	return nil
}

// ParseBlendSettings overlays the blend fields of obj on OpaqueBlend.
func ParseBlendSettings(obj Object) (BlendSettings, error) {
	b := OpaqueBlend()

	enable, ok, err := obj.Bool("blendEnable")
	if err != nil {
		return b, err
	}
	if ok {
		b.BlendEnable = enable
	}

	factors := []struct {
		field string
		dst   *gputypes.BlendFactor
	}{
		{"sourceColorBlend", &b.SourceColorBlend},
		{"destinationColorBlend", &b.DestinationColorBlend},
		{"sourceAlphaBlend", &b.SourceAlphaBlend},
		{"destinationAlphaBlend", &b.DestinationAlphaBlend},
	}
	for _, f := range factors {
		if err := enumField(obj, f.field, f.dst, LookupBlendFactor, BlendFactorNames); err != nil {
			return b, err
		}
	}
	if err := enumField(obj, "colorBlendOperation", &b.ColorBlendOperation, LookupBlendOperation, BlendOperationNames); err != nil {
		return b, err
	}
	if err := enumField(obj, "alphaBlendOperation", &b.AlphaBlendOperation, LookupBlendOperation, BlendOperationNames); err != nil {
		return b, err
	}
	return b, nil
}

// ParseDepthSettings overlays the depth and stencil fields of obj on
// DefaultDepth.
func ParseDepthSettings(obj Object) (DepthSettings, error) {
	d := DefaultDepth()

	for _, f := range []struct {
		field string
		flag  DepthFlags
	}{
		{"depthTest", DepthTest},
		{"depthWrite", DepthWrite},
		{"depthBoundsTest", DepthBoundsTest},
		{"stencilTest", StencilTest},
	} {
		set, _, err := obj.Bool(f.field)
		if err != nil {
			return d, err
		}
		if set {
			d.Flags |= f.flag
		}
	}

	if err := enumField(obj, "compareOperation", &d.CompareOperation, LookupCompareOperation, CompareOperationNames); err != nil {
		return d, err
	}
	if err := boundField(obj, "minDepthBounds", &d.MinDepth); err != nil {
		return d, err
	}
	if err := boundField(obj, "maxDepthBounds", &d.MaxDepth); err != nil {
		return d, err
	}

	for _, face := range []struct {
		field string
		dst   *StencilSettings
	}{
		{"front", &d.Front},
		{"back", &d.Back},
	} {
		nested, ok, err := obj.Object(face.field)
		if err != nil {
			return d, err
		}
		if !ok {
			continue
		}
		s, err := ParseStencilSettings(nested, *face.dst)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Field = face.field + "." + pe.Field
			}
			return d, err
		}
		*face.dst = s
	}
	return d, nil
}

// ParseStencilSettings overlays the fields of obj on base.
func ParseStencilSettings(obj Object, base StencilSettings) (StencilSettings, error) {
	s := base
	for _, f := range []struct {
		field string
		dst   *gputypes.StencilOperation
	}{
		{"failOperation", &s.FailOperation},
		{"passOperation", &s.PassOperation},
		{"depthFailOperation", &s.DepthFailOperation},
	} {
		if err := enumField(obj, f.field, f.dst, LookupStencilOperation, StencilOperationNames); err != nil {
			return base, err
		}
	}
	if err := enumField(obj, "compareOperation", &s.CompareOperation, LookupCompareOperation, CompareOperationNames); err != nil {
		return base, err
	}
	for _, f := range []struct {
		field string
		dst   *uint32
	}{
		{"compareMask", &s.CompareMask},
		{"writeMask", &s.WriteMask},
		{"referenceMask", &s.ReferenceMask},
	} {
		if err := maskField(obj, f.field, f.dst); err != nil {
			return base, err
		}
	}
	return s, nil
}
