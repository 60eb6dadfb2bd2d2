package arm64abi

// ArgumentBinding pairs one argument's managed carrier and native
// layout with the recipe the engine computed for it.
type ArgumentBinding struct {
	Carrier Carrier
	Layout  Layout
	Recipe  Recipe
}

// CallingSequence is the sealed, immutable product of one GetBindings
// call: the per-argument recipes, the return recipe (if any), and
// whether an indirect-result prologue is present. Once built, a
// CallingSequence is referentially self-contained and safe to share
// across goroutines.
type CallingSequence struct {
	arguments         []ArgumentBinding
	returnCarrier     *Carrier
	returnLayout      Layout
	returnRecipe      Recipe
	hasIndirectResult bool
}

func (s *CallingSequence) Arguments() []ArgumentBinding { return s.arguments }

func (s *CallingSequence) HasReturnBindings() bool { return s.returnRecipe != nil }

func (s *CallingSequence) ReturnCarrier() *Carrier { return s.returnCarrier }

func (s *CallingSequence) ReturnLayout() Layout { return s.returnLayout }

func (s *CallingSequence) ReturnRecipe() Recipe { return s.returnRecipe }

func (s *CallingSequence) HasIndirectResult() bool { return s.hasIndirectResult }

// CallingSequenceBuilder accumulates argument and return bindings for
// one signature and seals them into an immutable CallingSequence.
type CallingSequenceBuilder struct {
	seq    CallingSequence
	sealed bool
}

func NewCallingSequenceBuilder() *CallingSequenceBuilder {
	return &CallingSequenceBuilder{}
}

func (b *CallingSequenceBuilder) AddArgumentBindings(carrier Carrier, layout Layout, recipe Recipe) {
	b.checkNotSealed()
	b.seq.arguments = append(b.seq.arguments, ArgumentBinding{Carrier: carrier, Layout: layout, Recipe: recipe})
}

func (b *CallingSequenceBuilder) SetReturnBindings(carrier Carrier, layout Layout, recipe Recipe) {
	b.checkNotSealed()
	c := carrier
	b.seq.returnCarrier = &c
	b.seq.returnLayout = layout
	b.seq.returnRecipe = recipe
}

// SetIndirectResult records that argument 0's bindings are the synthetic
// indirect-result pointer.
func (b *CallingSequenceBuilder) SetIndirectResult() {
	b.checkNotSealed()
	b.seq.hasIndirectResult = true
}

func (b *CallingSequenceBuilder) checkNotSealed() {
	if b.sealed {
		panic("arm64abi: CallingSequenceBuilder used after Build")
	}
}

// Build seals the sequence. The builder must not be used afterward.
func (b *CallingSequenceBuilder) Build() *CallingSequence {
	b.checkNotSealed()
	b.sealed = true
	out := b.seq
	out.arguments = append([]ArgumentBinding(nil), b.seq.arguments...)
	return &out
}
