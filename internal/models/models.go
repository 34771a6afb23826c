package models

// Node is a node of the DOM tree built from one markup block.
// It is either an *Element or a *Text.
type Node interface {
	node()
}

// Element is a markup element with its attributes and children.
type Element struct {
	Tag      string // lowercased tag name
	Attrs    *Attributes
	Children []Node
}

// Text is a run of character data. It may contain {expr} spans, which the
// generator emits as raw expressions.
type Text struct {
	Content string
}

func (*Element) node() {}
func (*Text) node()    {}

// NewElement creates an element with no attributes or children.
func NewElement(tag string) *Element {
	return &Element{Tag: tag, Attrs: NewAttributes()}
}

// Attributes is an ordered string map. Keys keep the order in which they were
// first set; setting an existing key overwrites its value in place.
type Attributes struct {
	keys   []string
	values map[string]string
}

// NewAttributes creates an empty attribute set.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]string)}
}

// Set stores value under name. The last write wins.
func (a *Attributes) Set(name, value string) {
	if _, ok := a.values[name]; !ok {
		a.keys = append(a.keys, name)
	}
	a.values[name] = value
}

// Get returns the value stored under name.
func (a *Attributes) Get(name string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values[name]
	return v, ok
}

// Keys returns attribute names in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}
