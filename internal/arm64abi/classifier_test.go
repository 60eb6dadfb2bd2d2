package arm64abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyLayout_scalars(t *testing.T) {
	require.Equal(t, ClassInteger, ClassifyLayout(Int32))
	require.Equal(t, ClassInteger, ClassifyLayout(Int64))
	require.Equal(t, ClassFloat, ClassifyLayout(Float32))
	require.Equal(t, ClassFloat, ClassifyLayout(Float64))
	require.Equal(t, ClassPointer, ClassifyLayout(Pointer))
}

func TestClassifyLayout_structRegisterVsReference(t *testing.T) {
	small := NewStruct(Int32, Int32) // 8 bytes
	require.Equal(t, ClassStructRegister, ClassifyLayout(small))

	sixteen := NewStruct(Int64, Int64) // 16 bytes, boundary case
	require.Equal(t, ClassStructRegister, ClassifyLayout(sixteen))

	seventeen := NewStruct(Int64, Int64, Int8) // > 16 bytes
	require.Equal(t, ClassStructReference, ClassifyLayout(seventeen))

	big := NewStruct(Int64, Int64, Int64) // 24 bytes
	require.Equal(t, ClassStructReference, ClassifyLayout(big))
}

func TestClassifyLayout_hfa(t *testing.T) {
	for n := 1; n <= 4; n++ {
		members := make([]Layout, n)
		for i := range members {
			members[i] = Float64
		}
		g := NewStruct(members...)
		require.Equalf(t, ClassStructHFA, ClassifyLayout(g), "%d-member HFA", n)
	}
}

func TestClassifyLayout_hfaRejectsFive(t *testing.T) {
	members := make([]Layout, 5)
	for i := range members {
		members[i] = Float64
	}
	g := NewStruct(members...)
	require.Equal(t, ClassStructReference, ClassifyLayout(g))
}

func TestClassifyLayout_hfaRejectsMixedSizes(t *testing.T) {
	g := NewStruct(Float32, Float64)
	require.NotEqual(t, ClassStructHFA, ClassifyLayout(g))
}

func TestClassifyLayout_hfaRejectsNonFloatLeaf(t *testing.T) {
	g := NewStruct(Float64, Int32)
	require.NotEqual(t, ClassStructHFA, ClassifyLayout(g))
}

func TestClassifyLayout_hfaFlattensNestedStructs(t *testing.T) {
	inner := NewStruct(Float32, Float32)
	outer := NewStruct(inner, Float32)
	require.Equal(t, ClassStructHFA, ClassifyLayout(outer))
}

func TestClassifyLayout_unionNeverHFA(t *testing.T) {
	u := NewUnion(Float64, Float64)
	require.NotEqual(t, ClassStructHFA, ClassifyLayout(u))
}

func TestClassifyLayout_unrecognizedScalarPanics(t *testing.T) {
	bogus := ScalarLayout{Kind: ScalarKind(99), Size: 4, Align: 4}
	require.Panics(t, func() { ClassifyLayout(bogus) })
}
