package misconception

// ID identifies a misconception in the fixed taxonomy.
type ID string

const (
	OffByOne               ID = "off-by-one"
	MutationVsReassignment ID = "mutation-vs-reassignment"
	ReturnVsPrint          ID = "return-vs-print"
	AsyncVsParallel        ID = "async-vs-parallel"
	NullChecks             ID = "null-checks"
	ScopeShadowing         ID = "scope-shadowing"
	Statefulness           ID = "statefulness"
	SideEffects            ID = "side-effects"
)

// Descriptor defines a known misconception pattern. Static reference data,
// never mutated per session.
type Descriptor struct {
	ID          ID
	Label       string
	Description string
	Examples    []string
}

// taxonomy lists every misconception the classifier may report. Declaration
// order is significant: it is the tie-break order for TopEntry.
var taxonomy = []Descriptor{
	{
		ID:          OffByOne,
		Label:       "Off-by-one errors",
		Description: "Loops or indexing that miss first/last element or iterate one step too far.",
		Examples:    []string{"for (i <= length)", "index starts at 1 vs 0", "using <= instead of <"},
	},
	{
		ID:          MutationVsReassignment,
		Label:       "Mutation vs reassignment",
		Description: "Changing an object in place vs creating a new object or variable binding.",
		Examples:    []string{"list.append vs list = list + [x]", "spreading vs push"},
	},
	{
		ID:          ReturnVsPrint,
		Label:       "Return vs print",
		Description: "Returning a value from a function vs printing or logging it.",
		Examples:    []string{"missing return", "using print instead of returning"},
	},
	{
		ID:          AsyncVsParallel,
		Label:       "Async does not mean parallel",
		Description: "Concurrency vs true parallelism; awaiting vs spawning threads.",
		Examples:    []string{"await inside loop", "thinking async speeds CPU work"},
	},
	{
		ID:          NullChecks,
		Label:       "Null/undefined checks",
		Description: "Accessing properties before null/undefined guards; missing default paths.",
		Examples:    []string{"cannot read property of undefined", "optional chaining"},
	},
	{
		ID:          ScopeShadowing,
		Label:       "Scope / shadowing",
		Description: "Variables shadowed or out of scope leading to wrong references.",
		Examples:    []string{"let inside block not visible", "this vs outer variable"},
	},
	{
		ID:          Statefulness,
		Label:       "Stateful logic assumptions",
		Description: "Forgetting to reset or initialize state between calls/iterations.",
		Examples:    []string{"stale cache", "accumulator not reset"},
	},
	{
		ID:          SideEffects,
		Label:       "Side-effects and ordering",
		Description: "Order-dependent mutations cause unexpected outputs.",
		Examples:    []string{"mutating input array then reusing"},
	},
}

// registry indexes the taxonomy by ID.
var registry map[ID]*Descriptor

func init() {
	registry = make(map[ID]*Descriptor, len(taxonomy))
	for i := range taxonomy {
		registry[taxonomy[i].ID] = &taxonomy[i]
	}
}

// Get returns the descriptor for id, or nil if the tag is not in the taxonomy.
func Get(id ID) *Descriptor {
	return registry[id]
}

// Known reports whether id is part of the taxonomy.
func Known(id ID) bool {
	_, ok := registry[id]
	return ok
}

// All returns every descriptor in declaration order.
func All() []Descriptor {
	out := make([]Descriptor, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Order returns the declaration index of id, used as the deterministic
// tie-break when confidences are equal. Unknown tags sort last.
func Order(id ID) int {
	for i := range taxonomy {
		if taxonomy[i].ID == id {
			return i
		}
	}
	return len(taxonomy)
}
