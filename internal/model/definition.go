package model

// DefinitionKind tags the syntax node a Definition was built from.
type DefinitionKind int

const (
	// DefinitionFunction is a def or async def statement.
	DefinitionFunction DefinitionKind = iota
	// DefinitionClass is a class statement.
	DefinitionClass
)

// String returns a readable name for the kind.
func (k DefinitionKind) String() string {
	switch k {
	case DefinitionFunction:
		return "function"
	case DefinitionClass:
		return "class"
	}

	return "unknown"
}

// Definition is a function or class defined directly in a Python module or
// directly in a class body. Members is only populated for classes and holds
// the definitions found directly in the class body.
type Definition struct {
	Kind    DefinitionKind
	Name    string
	Members []Definition
}
