package resolver

import (
	"fmt"

	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/model"
)

// Method selectors understood by Public. Single-method interface IDs equal
// the method selector.
var (
	SelectorAddr              = calldata.SelectorOf("addr(bytes32)")
	SelectorSetAddr           = calldata.SelectorOf("setAddr(bytes32,address)")
	SelectorContenthash       = calldata.SelectorOf("contenthash(bytes32)")
	SelectorSetContenthash    = calldata.SelectorOf("setContenthash(bytes32,bytes)")
	SelectorText              = calldata.SelectorOf("text(bytes32,string)")
	SelectorSetText           = calldata.SelectorOf("setText(bytes32,string,string)")
	SelectorSupportsInterface = calldata.SelectorOf("supportsInterface(bytes4)")
)

func AddrCall(node model.Node) []byte {
	return calldata.Pack(SelectorAddr, calldata.Bytes32(node))
}

func SetAddrCall(node model.Node, a model.Address) []byte {
	return calldata.Pack(SelectorSetAddr, calldata.Bytes32(node), calldata.Address(a))
}

func ContenthashCall(node model.Node) []byte {
	return calldata.Pack(SelectorContenthash, calldata.Bytes32(node))
}

func SetContenthashCall(node model.Node, hash []byte) []byte {
	return calldata.Pack(SelectorSetContenthash, calldata.Bytes32(node), calldata.Bytes(hash))
}

func TextCall(node model.Node, key string) []byte {
	return calldata.Pack(SelectorText, calldata.Bytes32(node), calldata.String(key))
}

func SetTextCall(node model.Node, key, value string) []byte {
	return calldata.Pack(SelectorSetText, calldata.Bytes32(node), calldata.String(key), calldata.String(value))
}

func SupportsInterfaceCall(id calldata.Selector) []byte {
	return calldata.Pack(SelectorSupportsInterface, calldata.Bytes4(id))
}

// DecodeAddress decodes a single address return value.
func DecodeAddress(ret []byte) (model.Address, error) {
	vals, err := calldata.Decode(ret, calldata.TypeAddress)
	if err != nil {
		return model.ZeroAddress, fmt.Errorf("resolver: decode address: %w", err)
	}
	return vals.Address(0)
}

// DecodeNode decodes a single bytes32 return value.
func DecodeNode(ret []byte) (model.Node, error) {
	vals, err := calldata.Decode(ret, calldata.TypeBytes32)
	if err != nil {
		return model.ZeroNode, fmt.Errorf("resolver: decode bytes32: %w", err)
	}
	return vals.Node(0)
}

// DecodeBytes decodes a single dynamic bytes return value.
func DecodeBytes(ret []byte) ([]byte, error) {
	vals, err := calldata.Decode(ret, calldata.TypeBytes)
	if err != nil {
		return nil, fmt.Errorf("resolver: decode bytes: %w", err)
	}
	return vals.Bytes(0)
}

// DecodeString decodes a single string return value.
func DecodeString(ret []byte) (string, error) {
	vals, err := calldata.Decode(ret, calldata.TypeString)
	if err != nil {
		return "", fmt.Errorf("resolver: decode string: %w", err)
	}
	return vals.String(0)
}

// DecodeBool decodes a single bool return value.
func DecodeBool(ret []byte) (bool, error) {
	vals, err := calldata.Decode(ret, calldata.TypeBool)
	if err != nil {
		return false, fmt.Errorf("resolver: decode bool: %w", err)
	}
	return vals.Bool(0)
}
