package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// OperandKind tags which field of an Operand is meaningful.
type OperandKind uint8

const (
	OperandNone OperandKind = iota
	OperandInt
	OperandFloat
	OperandString
	OperandType
	OperandMethod
	OperandField
	OperandLabel
)

// String returns a human-readable name for OperandKind.
func (k OperandKind) String() string {
	switch k {
	case OperandNone:
		return "none"
	case OperandInt:
		return "int"
	case OperandFloat:
		return "float"
	case OperandString:
		return "string"
	case OperandType:
		return "type"
	case OperandMethod:
		return "method"
	case OperandField:
		return "field"
	case OperandLabel:
		return "label"
	default:
		return fmt.Sprintf("OperandKind(%d)", k)
	}
}

// TypeRef names a type. Open marks an unbound generic type parameter; two
// open parameters are interchangeable when matching generic arguments since
// parameter identity does not survive across modules.
type TypeRef struct {
	Name string `cbor:"name" yaml:"name"`
	Open bool   `cbor:"open,omitempty" yaml:"open,omitempty"`
}

// T is shorthand for a closed TypeRef.
func T(name string) TypeRef {
	return TypeRef{Name: name}
}

// GenericParam returns an open type parameter reference.
func GenericParam(name string) TypeRef {
	return TypeRef{Name: name, Open: true}
}

// IsVoid reports whether the type denotes "no value".
func (t TypeRef) IsVoid() bool {
	return t.Name == "" || t.Name == "void" || t.Name == "System.Void"
}

func (t TypeRef) String() string {
	if t.Open {
		return "!" + t.Name
	}
	if t.Name == "" {
		return "void"
	}
	return t.Name
}

// MethodRef describes a method referenced by a call site.
type MethodRef struct {
	DeclaringType TypeRef   `cbor:"type" yaml:"type"`
	Name          string    `cbor:"name" yaml:"name"`
	Params        []TypeRef `cbor:"params,omitempty" yaml:"params,omitempty"`
	Static        bool      `cbor:"static,omitempty" yaml:"static,omitempty"`
	Generic       bool      `cbor:"generic,omitempty" yaml:"generic,omitempty"`
	GenericArgs   []TypeRef `cbor:"generic_args,omitempty" yaml:"generic_args,omitempty"`
	Return        TypeRef   `cbor:"return" yaml:"return"`
}

// ConstructorName is the member name of instance constructors.
const ConstructorName = ".ctor"

// IsConstructor reports whether the method is an instance constructor.
func (m *MethodRef) IsConstructor() bool {
	return m.Name == ConstructorName
}

// Signature renders the method as "Ret Type::Name<Args>(Params)".
func (m *MethodRef) Signature() string {
	var sb strings.Builder
	if m.Static {
		sb.WriteString("static ")
	}
	sb.WriteString(m.Return.String())
	sb.WriteString(" ")
	sb.WriteString(m.DeclaringType.String())
	sb.WriteString("::")
	sb.WriteString(m.Name)
	if len(m.GenericArgs) > 0 {
		sb.WriteString("<")
		sb.WriteString(joinTypes(m.GenericArgs))
		sb.WriteString(">")
	}
	sb.WriteString("(")
	sb.WriteString(joinTypes(m.Params))
	sb.WriteString(")")
	return sb.String()
}

func (m *MethodRef) String() string {
	return m.DeclaringType.String() + "::" + m.Name
}

// FieldRef describes a field referenced by a load or store.
type FieldRef struct {
	DeclaringType TypeRef `cbor:"type" yaml:"type"`
	Name          string  `cbor:"name" yaml:"name"`
	Type          TypeRef `cbor:"field_type,omitempty" yaml:"field_type,omitempty"`
	Static        bool    `cbor:"static,omitempty" yaml:"static,omitempty"`
}

func (f *FieldRef) String() string {
	return f.DeclaringType.String() + "::" + f.Name
}

// Operand is the static argument of an instruction. Kind selects the
// meaningful field.
type Operand struct {
	Kind   OperandKind `cbor:"kind" yaml:"kind"`
	Int    int64       `cbor:"int,omitempty" yaml:"int,omitempty"`
	Float  float64     `cbor:"float,omitempty" yaml:"float,omitempty"`
	String string      `cbor:"string,omitempty" yaml:"string,omitempty"`
	Type   *TypeRef    `cbor:"type_ref,omitempty" yaml:"type_ref,omitempty"`
	Method *MethodRef  `cbor:"method,omitempty" yaml:"method,omitempty"`
	Field  *FieldRef   `cbor:"field,omitempty" yaml:"field,omitempty"`
	Label  Label       `cbor:"label,omitempty" yaml:"label,omitempty"`
}

// NoOperand is the empty operand.
var NoOperand = Operand{}

// Int returns an integer literal operand.
func Int(v int64) Operand {
	return Operand{Kind: OperandInt, Int: v}
}

// Float returns a floating point literal operand.
func Float(v float64) Operand {
	return Operand{Kind: OperandFloat, Float: v}
}

// Str returns a string literal operand.
func Str(v string) Operand {
	return Operand{Kind: OperandString, String: v}
}

// TypeOp returns a type reference operand.
func TypeOp(t TypeRef) Operand {
	return Operand{Kind: OperandType, Type: &t}
}

// MethodOp returns a method reference operand.
func MethodOp(m *MethodRef) Operand {
	return Operand{Kind: OperandMethod, Method: m}
}

// FieldOp returns a field reference operand.
func FieldOp(f *FieldRef) Operand {
	return Operand{Kind: OperandField, Field: f}
}

// LabelOp returns a branch target operand.
func LabelOp(l Label) Operand {
	return Operand{Kind: OperandLabel, Label: l}
}

// Equal reports whether two operands have the same kind and value.
// Method and field references compare by declaring type, name and
// signature rather than by pointer.
func (o Operand) Equal(other Operand) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case OperandNone:
		return true
	case OperandInt:
		return o.Int == other.Int
	case OperandFloat:
		return o.Float == other.Float
	case OperandString:
		return o.String == other.String
	case OperandType:
		return o.Type != nil && other.Type != nil && *o.Type == *other.Type
	case OperandMethod:
		return o.Method != nil && other.Method != nil && o.Method.Signature() == other.Method.Signature()
	case OperandField:
		return o.Field != nil && other.Field != nil && *o.Field == *other.Field
	case OperandLabel:
		return o.Label == other.Label
	}
	return false
}

// Format renders the operand as it appears in a listing.
func (o Operand) Format() string {
	switch o.Kind {
	case OperandInt:
		return strconv.FormatInt(o.Int, 10)
	case OperandFloat:
		return strconv.FormatFloat(o.Float, 'g', -1, 64)
	case OperandString:
		return strconv.Quote(o.String)
	case OperandType:
		if o.Type == nil {
			return "<nil type>"
		}
		return o.Type.String()
	case OperandMethod:
		if o.Method == nil {
			return "<nil method>"
		}
		return o.Method.Signature()
	case OperandField:
		if o.Field == nil {
			return "<nil field>"
		}
		return o.Field.String()
	case OperandLabel:
		return o.Label.String()
	}
	return ""
}

func joinTypes(types []TypeRef) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
