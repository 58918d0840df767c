package catalog

// Kind classifies a binding value.
type Kind string

const (
	KindLiteral     Kind = "literal"
	KindReference   Kind = "reference"
	KindRaw         Kind = "raw"
	KindTransparent Kind = "transparent"
)

// Binding is one entry of a resolved binding map.
type Binding struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Kind      Kind   `json:"kind"`
	Group     string `json:"group"`
	Component string `json:"component,omitempty"`
	Target    string `json:"target,omitempty"`
}

// Group collects bindings sharing the first name segment after the namespace
// ("components", "global", ...).
type Group struct {
	Name     string   `json:"name"`
	Bindings []string `json:"bindings"`
}

// Chain is the result of following a binding's references.
type Chain struct {
	Start string   `json:"start"`
	Steps []string `json:"steps"`
	// Value is the value of the last binding reached.
	Value string `json:"value"`
	// Missing is set when the chain ends at a name not in the catalog.
	Missing bool `json:"missing,omitempty"`
	Cycle   bool `json:"cycle,omitempty"`
}

// Terminal returns the last binding name of the chain.
func (c Chain) Terminal() string {
	if len(c.Steps) == 0 {
		return c.Start
	}
	return c.Steps[len(c.Steps)-1]
}
