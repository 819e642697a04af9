package bytecode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// MethodFormatVersion is the current method envelope version.
// Increment when making incompatible changes to the encoding.
const MethodFormatVersion uint16 = 1

// MethodMagic identifies a CBOR method envelope: "BPMT" (BytePatch MeThod).
const MethodMagic = "BPMT"

// envelope wraps a method for transport between the host toolchain and the
// patch engine.
type envelope struct {
	Magic   string  `cbor:"magic"`
	Version uint16  `cbor:"version"`
	Method  *Method `cbor:"method"`
}

// cborEncMode uses canonical mode so equal methods encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalMethod serializes a method to CBOR bytes.
func MarshalMethod(m *Method) ([]byte, error) {
	return cborEncMode.Marshal(envelope{Magic: MethodMagic, Version: MethodFormatVersion, Method: m})
}

// UnmarshalMethod deserializes a method from CBOR bytes.
func UnmarshalMethod(data []byte) (*Method, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal method: %w", err)
	}
	if env.Magic != MethodMagic {
		return nil, fmt.Errorf("bytecode: invalid method magic: expected %q, got %q", MethodMagic, env.Magic)
	}
	if env.Version > MethodFormatVersion {
		return nil, fmt.Errorf("bytecode: method format version %d is newer than supported version %d", env.Version, MethodFormatVersion)
	}
	if env.Method == nil {
		return nil, fmt.Errorf("bytecode: method envelope has no method")
	}
	return env.Method, nil
}

// ReadMethodFile loads a method from a .cbor, .yaml or .yml file.
func ReadMethodFile(path string) (*Method, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bytecode: cannot read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cbor":
		m, err := UnmarshalMethod(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return m, nil
	case ".yaml", ".yml":
		var m Method
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("bytecode: parse error in %s: %w", path, err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("bytecode: unsupported method file extension %q", ext)
	}
}

// WriteMethodFile stores a method, choosing the encoding by extension.
func WriteMethodFile(path string, m *Method) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cbor":
		data, err = MarshalMethod(m)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(m)
	default:
		return fmt.Errorf("bytecode: unsupported method file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("bytecode: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("bytecode: cannot write %s: %w", path, err)
	}
	return nil
}

// MarshalYAML writes opcodes by name.
func (op Opcode) MarshalYAML() (interface{}, error) {
	if !op.Known() {
		return nil, fmt.Errorf("bytecode: unknown opcode 0x%02X", byte(op))
	}
	return op.String(), nil
}

// UnmarshalYAML reads opcodes by name.
func (op *Opcode) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, ok := LookupOpcode(name)
	if !ok {
		return fmt.Errorf("bytecode: line %d: unknown opcode %q", node.Line, name)
	}
	*op = parsed
	return nil
}

// MarshalYAML writes operand kinds by name.
func (k OperandKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalYAML reads operand kinds by name.
func (k *OperandKind) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	for kind := OperandNone; kind <= OperandLabel; kind++ {
		if kind.String() == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("bytecode: line %d: unknown operand kind %q", node.Line, name)
}
