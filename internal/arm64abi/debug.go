package arm64abi

import "fmt"

// Debug trace gates, in the spirit of wazero's wazevoapi/debug_consts.go:
// compile-time constants checked at call sites, guarding plain
// fmt.Printf. Must stay disabled by default; flip to true locally when
// debugging register/stack allocation or classification decisions.
const (
	StorageAllocationTraceEnabled = false
	ClassificationTraceEnabled    = false
)

func traceStorage(format string, args ...any) {
	if StorageAllocationTraceEnabled {
		fmt.Printf("storage: "+format+"\n", args...)
	}
}

func traceClassification(format string, args ...any) {
	if ClassificationTraceEnabled {
		fmt.Printf("classify: "+format+"\n", args...)
	}
}
