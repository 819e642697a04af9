package bytecode

// MethodMetadata is the optional context a host toolchain supplies with a
// method body. The stack validator uses Return to size the final ret and
// ParamCount for diagnostics.
type MethodMetadata struct {
	DeclaringType TypeRef `cbor:"type" yaml:"type"`
	Name          string  `cbor:"name" yaml:"name"`
	Return        TypeRef `cbor:"return" yaml:"return"`
	ParamCount    int     `cbor:"params" yaml:"params"`
	Static        bool    `cbor:"static,omitempty" yaml:"static,omitempty"`
}

// FullName returns "Type::Name", or "<anonymous>" when no name is known.
func (m *MethodMetadata) FullName() string {
	if m == nil || m.Name == "" {
		return "<anonymous>"
	}
	if m.DeclaringType.Name == "" {
		return m.Name
	}
	return m.DeclaringType.Name + "::" + m.Name
}

// ReturnsValue reports whether a ret in this method pops a value.
func (m *MethodMetadata) ReturnsValue() bool {
	return m != nil && !m.Return.IsVoid()
}

// Method pairs a body with its metadata, as exchanged with the host
// toolchain.
type Method struct {
	Meta MethodMetadata `cbor:"meta" yaml:"meta"`
	Body Stream         `cbor:"body" yaml:"body"`
}

// Clone returns a deep copy of the method.
func (m *Method) Clone() *Method {
	return &Method{Meta: m.Meta, Body: m.Body.Clone()}
}
