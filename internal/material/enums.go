package material

import (
	"strings"
	"sync"

	"github.com/gogpu/gputypes"
)

type enumValue interface {
	~uint32
	String() string
}

// enumTable is a pair of parallel arrays: display names and the values they
// resolve to. Lookup walks the names linearly; the sets are small.
type enumTable[T enumValue] struct {
	names  []string
	values []T
}

// newEnumTable enumerates the contiguous range first..last.
func newEnumTable[T enumValue](first, last T) enumTable[T] {
	t := enumTable[T]{
		names:  make([]string, 0, int(last-first)+1),
		values: make([]T, 0, int(last-first)+1),
	}
	for v := first; v <= last; v++ {
		t.names = append(t.names, v.String())
		t.values = append(t.values, v)
	}
	return t
}

func (t enumTable[T]) lookup(name string) (T, bool) {
	for i, n := range t.names {
		if strings.EqualFold(n, name) {
			return t.values[i], true
		}
	}
	var zero T
	return zero, false
}

func (t enumTable[T]) namesCopy() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

var (
	blendFactors = sync.OnceValue(func() enumTable[gputypes.BlendFactor] {
		return newEnumTable(gputypes.BlendFactorZero, gputypes.BlendFactorOneMinusConstant)
	})
	blendOperations = sync.OnceValue(func() enumTable[gputypes.BlendOperation] {
		return newEnumTable(gputypes.BlendOperationAdd, gputypes.BlendOperationMax)
	})
	compareOperations = sync.OnceValue(func() enumTable[gputypes.CompareFunction] {
		return newEnumTable(gputypes.CompareFunctionNever, gputypes.CompareFunctionAlways)
	})
	stencilOperations = sync.OnceValue(func() enumTable[gputypes.StencilOperation] {
		return newEnumTable(gputypes.StencilOperationKeep, gputypes.StencilOperationDecrementWrap)
	})
)

// LookupBlendFactor resolves a blend factor by display name, ignoring case.
func LookupBlendFactor(name string) (gputypes.BlendFactor, bool) {
	return blendFactors().lookup(name)
}

func LookupBlendOperation(name string) (gputypes.BlendOperation, bool) {
	return blendOperations().lookup(name)
}

func LookupCompareOperation(name string) (gputypes.CompareFunction, bool) {
	return compareOperations().lookup(name)
}

func LookupStencilOperation(name string) (gputypes.StencilOperation, bool) {
	return stencilOperations().lookup(name)
}

func BlendFactorNames() []string      { return blendFactors().namesCopy() }
func BlendOperationNames() []string   { return blendOperations().namesCopy() }
func CompareOperationNames() []string { return compareOperations().namesCopy() }
func StencilOperationNames() []string { return stencilOperations().namesCopy() }
