// Package arrangertest provides a fake TrampolineLinker for exercising
// CallArranger.ArrangeDowncall/ArrangeUpcall without a real code
// generator — the trampoline linker itself is out of scope for this
// engine.
package arrangertest

import "github.com/arm64abi/callarranger/internal/arm64abi"

// FakeLinker records the sequences it was asked to link and returns
// canned handles, so tests can assert the facade wired the indirect
// result and variadic boundary correctly without decoding real recipes.
type FakeLinker struct {
	DowncallSequences []*arm64abi.CallingSequence
	UpcallSequences   []*arm64abi.CallingSequence
}

func (f *FakeLinker) LinkDowncall(seq *arm64abi.CallingSequence, inMemoryReturn bool) (arm64abi.InvocationHandle, error) {
	f.DowncallSequences = append(f.DowncallSequences, seq)
	return &fakeHandle{}, nil
}

func (f *FakeLinker) LinkUpcall(target arm64abi.UpcallTarget, seq *arm64abi.CallingSequence, inMemoryReturn bool, scope arm64abi.MemoryScope) (arm64abi.StubAddress, error) {
	f.UpcallSequences = append(f.UpcallSequences, seq)
	return &fakeStubAddress{}, nil
}

type fakeHandle struct {
	LastArgs []any
}

func (h *fakeHandle) Invoke(args ...any) (any, error) {
	h.LastArgs = args
	return nil, nil
}

type fakeStubAddress struct{}

func (fakeStubAddress) Address() uintptr { return 0 }

// FakeAllocator hands out a fixed pointer value for the indirect-return
// buffer; release is a no-op.
type FakeAllocator struct {
	Ptr uintptr
}

func (a FakeAllocator) Allocate(size, alignment int64) (uintptr, func(), error) {
	return a.Ptr, func() {}, nil
}

// FakeScope is a no-op io.Closer for MemoryScope.
type FakeScope struct{}

func (FakeScope) Close() error { return nil }
