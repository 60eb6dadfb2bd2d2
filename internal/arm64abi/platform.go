package arm64abi

// Platform is the small policy record injected into a StorageCalculator.
// The four booleans are the only axis of variation between the Linux,
// macOS, and Windows AAPCS64 variants; register banks
// (AArch64Descriptor) are shared across all three.
type Platform struct {
	Name string

	// VarArgsOnStack: variadic arguments are routed entirely to the
	// stack once the variadic section begins (macOS).
	VarArgsOnStack bool

	// RequiresSubSlotStackPacking: stack arguments are packed to their
	// own alignment rather than padded out to 8-byte slots (macOS).
	RequiresSubSlotStackPacking bool

	// UseIntRegsForVariadicFloatingPointArgs: a float argument in the
	// variadic section is routed to the integer bank, not the vector
	// bank (Windows).
	UseIntRegsForVariadicFloatingPointArgs bool

	// SpillsVariadicStructsPartially: a variadic struct argument may
	// occupy some of the remaining integer registers and spill the rest
	// to the stack, rather than spilling wholesale on any overflow
	// (Windows).
	SpillsVariadicStructsPartially bool

	// classifyForBindings lets a platform override classification at
	// the call site. The default classifier ignores forVariadic; only
	// Windows overrides the hook (see below).
	classifyForBindings func(Layout, bool) TypeClass
}

func (p Platform) classify(l Layout, forVariadic bool) TypeClass {
	if p.classifyForBindings != nil {
		return p.classifyForBindings(l, forVariadic)
	}
	return classifyLayoutForBindings(l, forVariadic)
}

// The three AAPCS64 variants this engine arranges calls for.
var (
	Linux = Platform{
		Name: "linux",
	}

	MacOS = Platform{
		Name:                        "macos",
		VarArgsOnStack:              true,
		RequiresSubSlotStackPacking: true,
	}

	Windows = Platform{
		Name: "windows",
		UseIntRegsForVariadicFloatingPointArgs: true,
		SpillsVariadicStructsPartially:         true,
		// A variadic struct larger than 16 bytes is classified
		// STRUCT_REGISTER instead of STRUCT_REFERENCE, so it is passed by
		// value in the remaining integer registers with the rest spilled
		// to the stack.
		classifyForBindings: func(l Layout, forVariadic bool) TypeClass {
			class := classifyLayoutForBindings(l, forVariadic)
			if forVariadic && class == ClassStructReference {
				return ClassStructRegister
			}
			return class
		},
	}
)
