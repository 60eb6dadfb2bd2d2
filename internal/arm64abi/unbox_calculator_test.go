package arm64abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func storedRegs(recipe Recipe) []Register {
	var regs []Register
	for _, op := range recipe {
		if op.Kind == OpVMStore && op.Storage.Kind != Stack {
			regs = append(regs, op.Storage.Reg)
		}
	}
	return regs
}

func TestUnboxCalculator_threeIntArgs(t *testing.T) {
	u := NewUnboxCalculator(Linux, true)
	var got []Register
	for i := 0; i < 3; i++ {
		recipe, err := u.GetBindings(IntCarrier, Int32, false)
		require.NoError(t, err)
		got = append(got, storedRegs(recipe)...)
	}
	require.Equal(t, []Register{X0, X1, X2}, got)
	require.Equal(t, 3, u.storage.nRegs[Integer])
	require.Equal(t, int64(0), u.storage.stackOffset)
}

func TestUnboxCalculator_nineDoublesSpillToStack(t *testing.T) {
	u := NewUnboxCalculator(Linux, true)
	var last Recipe
	for i := 0; i < 9; i++ {
		recipe, err := u.GetBindings(FloatCarrier, Float64, false)
		require.NoError(t, err)
		last = recipe
	}
	stores := 0
	for _, op := range last {
		if op.Kind == OpVMStore {
			stores++
			require.Equal(t, Stack, op.Storage.Kind)
			require.Equal(t, int64(0), op.Storage.Offset)
		}
	}
	require.Equal(t, 1, stores)
}

func TestUnboxCalculator_hfa3AtPositionZero(t *testing.T) {
	u := NewUnboxCalculator(Linux, true)
	hfa := NewStruct(Float64, Float64, Float64)
	recipe, err := u.GetBindings(BufferCarrier, hfa, false)
	require.NoError(t, err)

	got := storedRegs(recipe)
	require.Equal(t, []Register{V0, V1, V2}, got)
	require.Equal(t, 3, u.storage.nRegs[Vector])
}

func TestUnboxCalculator_structReference24Bytes(t *testing.T) {
	u := NewUnboxCalculator(Linux, true)
	ref := NewStruct(Int64, Int64, Int64)
	recipe, err := u.GetBindings(BufferCarrier, ref, false)
	require.NoError(t, err)

	require.Equal(t, OpCopy, recipe[0].Kind)
	require.Equal(t, OpUnboxAddress, recipe[1].Kind)
	require.Equal(t, OpVMStore, recipe[2].Kind)
	require.Equal(t, X0, recipe[2].Storage.Reg)
}

func TestUnboxCalculator_structRegister16BytesAfterSixInts(t *testing.T) {
	u := NewUnboxCalculator(Linux, true)
	for i := 0; i < 6; i++ {
		_, err := u.GetBindings(IntCarrier, Int64, false)
		require.NoError(t, err)
	}
	s := NewStruct(Int64, Int64)
	recipe, err := u.GetBindings(BufferCarrier, s, false)
	require.NoError(t, err)

	require.Equal(t, []Register{X6, X7}, storedRegs(recipe))
}

func TestUnboxCalculator_structRegister16BytesAfterSevenInts(t *testing.T) {
	u := NewUnboxCalculator(Linux, true)
	for i := 0; i < 7; i++ {
		_, err := u.GetBindings(IntCarrier, Int64, false)
		require.NoError(t, err)
	}
	s := NewStruct(Int64, Int64)
	recipe, err := u.GetBindings(BufferCarrier, s, false)
	require.NoError(t, err)

	// No splitting: x7 must not be used even though it is free.
	require.Empty(t, storedRegs(recipe), "struct must spill wholesale, not split across x7 and the stack")

	stores := 0
	for _, op := range recipe {
		if op.Kind == OpVMStore {
			require.Equal(t, Stack, op.Storage.Kind)
			stores++
		}
	}
	require.Equal(t, 2, stores)
	require.Equal(t, int64(16), u.storage.stackOffset)
}

func TestUnboxCalculator_macosVariadicPrintfStyle(t *testing.T) {
	u := NewUnboxCalculator(MacOS, true)

	_, err := u.GetBindings(AddressCarrier, Pointer, false) // fmt
	require.NoError(t, err)
	require.Equal(t, 1, u.storage.nRegs[Integer])

	u.AdjustForVarArgs()

	recipeInt, err := u.GetBindings(IntCarrier, Int32, true)
	require.NoError(t, err)
	require.Equal(t, Stack, recipeInt[len(recipeInt)-1].Storage.Kind)
	require.Equal(t, int64(0), recipeInt[len(recipeInt)-1].Storage.Offset)

	recipeDouble, err := u.GetBindings(FloatCarrier, Float64, true)
	require.NoError(t, err)
	last := recipeDouble[len(recipeDouble)-1]
	require.Equal(t, Stack, last.Storage.Kind)
	require.Equal(t, int64(8), last.Storage.Offset, "double aligns up to the next 8-byte-aligned slot")
}

func TestUnboxCalculator_windowsVariadicDoubleUsesIntReg(t *testing.T) {
	u := NewUnboxCalculator(Windows, true)
	recipe, err := u.GetBindings(FloatCarrier, Float64, true)
	require.NoError(t, err)

	last := recipe[len(recipe)-1]
	require.Equal(t, Integer, last.Storage.Kind)
	require.Equal(t, X0, last.Storage.Reg)
}

func TestUnboxCalculator_windowsVariadic12ByteStructAfterFiveInts(t *testing.T) {
	u := NewUnboxCalculator(Windows, true)
	for i := 0; i < 5; i++ {
		_, err := u.GetBindings(IntCarrier, Int64, false)
		require.NoError(t, err)
	}
	s := NewStruct(Int64, Int32) // padded to 16 bytes, still needs 2 slices
	recipe, err := u.GetBindings(BufferCarrier, s, true)
	require.NoError(t, err)

	require.Equal(t, []Register{X5, X6}, storedRegs(recipe))
	require.Equal(t, int64(0), u.storage.stackOffset, "both slices fit in registers, nothing spills")
}

func TestUnboxCalculator_windowsVariadic24ByteStructAfterFiveInts(t *testing.T) {
	u := NewUnboxCalculator(Windows, true)
	for i := 0; i < 5; i++ {
		_, err := u.GetBindings(IntCarrier, Int64, false)
		require.NoError(t, err)
	}
	s := NewStruct(Int64, Int64, Int64) // 24 bytes, needs 3 slices, only 3 regs remain (x5,x6,x7)
	recipe, err := u.GetBindings(BufferCarrier, s, true)
	require.NoError(t, err)

	require.Equal(t, []Register{X5, X6, X7}, storedRegs(recipe))
}

func TestUnboxCalculator_windowsVariadicStructSpillsRemainderToStack(t *testing.T) {
	u := NewUnboxCalculator(Windows, true)
	for i := 0; i < 6; i++ {
		_, err := u.GetBindings(IntCarrier, Int64, false)
		require.NoError(t, err)
	}
	s := NewStruct(Int64, Int64, Int64) // 24 bytes, 3 slices, only 2 regs remain (x6,x7)
	recipe, err := u.GetBindings(BufferCarrier, s, true)
	require.NoError(t, err)

	require.Equal(t, []Register{X6, X7}, storedRegs(recipe))

	stackStores := 0
	for _, op := range recipe {
		if op.Kind == OpVMStore && op.Storage.Kind == Stack {
			stackStores++
			require.Equal(t, int64(0), op.Storage.Offset)
		}
	}
	require.Equal(t, 1, stackStores, "the remaining 8 bytes spill to the stack")
}

func TestUnboxCalculator_returnInMemoryIndirectBindings(t *testing.T) {
	u := NewUnboxCalculator(Linux, true)
	recipe := u.GetIndirectBindings()
	require.Equal(t, OpUnboxAddress, recipe[0].Kind)
	require.Equal(t, OpVMStore, recipe[1].Kind)
	require.Equal(t, X8, recipe[1].Storage.Reg)
}

func TestUnboxCalculator_carrierMismatchErrors(t *testing.T) {
	u := NewUnboxCalculator(Linux, true)
	_, err := u.GetBindings(IntCarrier, Pointer, false)
	require.Error(t, err)

	_, err = u.GetBindings(BufferCarrier, Int32, false)
	require.Error(t, err)
}
