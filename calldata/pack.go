package calldata

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"xdao.co/ensbridge/model"
)

// ErrDecode reports arguments or return data that do not match the expected types.
var ErrDecode = errors.New("calldata: cannot decode values")

// ABI types exchanged by resolver methods.
var (
	TypeBytes32 = mustType("bytes32")
	TypeBytes4  = mustType("bytes4")
	TypeAddress = mustType("address")
	TypeUint64  = mustType("uint64")
	TypeBool    = mustType("bool")
	TypeBytes   = mustType("bytes")
	TypeString  = mustType("string")
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(fmt.Sprintf("calldata: abi type %s: %v", name, err))
	}
	return t
}

// Value is one ABI argument or return value together with its type.
type Value struct {
	typ abi.Type
	v   any
}

func Bytes32(n model.Node) Value { return Value{typ: TypeBytes32, v: [32]byte(n)} }

func Address(a model.Address) Value { return Value{typ: TypeAddress, v: common.Address(a)} }

func Uint64(v uint64) Value { return Value{typ: TypeUint64, v: v} }

func Bool(b bool) Value { return Value{typ: TypeBool, v: b} }

func Bytes4(s Selector) Value { return Value{typ: TypeBytes4, v: [4]byte(s)} }

func Bytes(b []byte) Value {
	return Value{typ: TypeBytes, v: append([]byte{}, b...)}
}

func String(s string) Value { return Value{typ: TypeString, v: s} }

// Pack encodes a call: selector followed by the encoded arguments.
func Pack(sel Selector, args ...Value) []byte {
	enc := Encode(args...)
	out := make([]byte, 0, SelectorSize+len(enc))
	out = append(out, sel[:]...)
	return append(out, enc...)
}

// Encode encodes a tuple of values without a selector (return data, or the
// argument section of a call).
func Encode(values ...Value) []byte {
	args := make(abi.Arguments, len(values))
	vals := make([]any, len(values))
	for i, v := range values {
		args[i] = abi.Argument{Type: v.typ}
		vals[i] = v.v
	}
	out, err := args.Pack(vals...)
	if err != nil {
		// Every constructor above pairs its Go value with the matching type.
		panic(fmt.Sprintf("calldata: encode: %v", err))
	}
	return out
}

// Values holds decoded tuple elements in order.
type Values []any

// Decode unpacks a tuple of the given types. For calls, pass
// data[SelectorSize:]. Bytes past the tuple are ignored.
func Decode(data []byte, types ...abi.Type) (Values, error) {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		args[i] = abi.Argument{Type: t}
	}
	vals, err := args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return vals, nil
}

func valueAt[T any](v Values, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(v) {
		return zero, fmt.Errorf("%w: no value at %d", ErrDecode, i)
	}
	t, ok := v[i].(T)
	if !ok {
		return zero, fmt.Errorf("%w: value %d is %T", ErrDecode, i, v[i])
	}
	return t, nil
}

func (v Values) Node(i int) (model.Node, error) {
	b, err := valueAt[[32]byte](v, i)
	return model.Node(b), err
}

func (v Values) Address(i int) (model.Address, error) {
	a, err := valueAt[common.Address](v, i)
	return model.Address(a), err
}

func (v Values) Selector(i int) (Selector, error) {
	b, err := valueAt[[4]byte](v, i)
	return Selector(b), err
}

func (v Values) Uint64(i int) (uint64, error) { return valueAt[uint64](v, i) }

func (v Values) Bool(i int) (bool, error) { return valueAt[bool](v, i) }

func (v Values) Bytes(i int) ([]byte, error) { return valueAt[[]byte](v, i) }

func (v Values) String(i int) (string, error) { return valueAt[string](v, i) }
