package arm64abi

// CarrierKind is the managed-side value category a Carrier conveys.
type CarrierKind byte

const (
	CarrierInt CarrierKind = iota
	CarrierFloat
	CarrierAddress
	CarrierBuffer
)

func (k CarrierKind) String() string {
	switch k {
	case CarrierInt:
		return "int"
	case CarrierFloat:
		return "float"
	case CarrierAddress:
		return "address"
	case CarrierBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Carrier is the managed-side type aligned with one argument or the
// return value: an integer carrier, a float carrier, an address carrier
// for pointers, or an opaque buffer carrier for aggregates.
type Carrier struct {
	Kind CarrierKind
}

var (
	IntCarrier     = Carrier{Kind: CarrierInt}
	FloatCarrier   = Carrier{Kind: CarrierFloat}
	AddressCarrier = Carrier{Kind: CarrierAddress}
	BufferCarrier  = Carrier{Kind: CarrierBuffer}
)

// MethodType is the managed-side carrier list aligned 1:1 with a
// FunctionDescriptor's arguments, plus an optional return carrier.
type MethodType struct {
	Params []Carrier
	Return *Carrier // nil means void
}
