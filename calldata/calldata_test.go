package calldata

import (
	"bytes"
	"errors"
	"testing"

	"xdao.co/ensbridge/model"
)

func TestSelectorVectors(t *testing.T) {
	cases := map[string]string{
		"addr(bytes32)":             "0x3b3b57de",
		"setAddr(bytes32,address)":  "0xd5fa2b00",
		"supportsInterface(bytes4)": "0x01ffc9a7",
		"contenthash(bytes32)":      "0xbc1c58d1",
		"text(bytes32,string)":      "0x59d1d43c",
	}
	for sig, want := range cases {
		if got := SelectorOf(sig).Hex(); got != want {
			t.Fatalf("SelectorOf(%q) = %s want %s", sig, got, want)
		}
	}
}

func TestSplitAndWithNode(t *testing.T) {
	var host, delegated model.Node
	host[0], delegated[0] = 0xaa, 0xbb
	var a model.Address
	a[19] = 0x01

	call := Pack(SelectorOf("setAddr(bytes32,address)"), Bytes32(host), Address(a))
	sel, node, rest, err := Split(call)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if sel != SelectorOf("setAddr(bytes32,address)") || node != host {
		t.Fatalf("unexpected split result")
	}
	if len(rest) != WordSize {
		t.Fatalf("expected one trailing word, got %d bytes", len(rest))
	}

	out, err := WithNode(call, delegated)
	if err != nil {
		t.Fatalf("WithNode: %v", err)
	}
	if &out[0] == &call[0] {
		t.Fatalf("WithNode must copy")
	}
	if !bytes.Equal(out[:SelectorSize], call[:SelectorSize]) || !bytes.Equal(out[MinCallSize:], call[MinCallSize:]) {
		t.Fatalf("bytes outside the node word changed")
	}
	_, got, _, _ := Split(out)
	if got != delegated {
		t.Fatalf("node not rewritten")
	}
	_, orig, _, _ := Split(call)
	if orig != host {
		t.Fatalf("input mutated")
	}
}

func TestSplitRejectsShortCalls(t *testing.T) {
	for _, n := range []int{0, 3, SelectorSize, MinCallSize - 1} {
		if _, _, _, err := Split(make([]byte, n)); !errors.Is(err, ErrShortCall) {
			t.Fatalf("Split(%d bytes): got %v want ErrShortCall", n, err)
		}
		if _, err := WithNode(make([]byte, n), model.ZeroNode); !errors.Is(err, ErrShortCall) {
			t.Fatalf("WithNode(%d bytes): got %v want ErrShortCall", n, err)
		}
	}
	if _, _, rest, err := Split(make([]byte, MinCallSize)); err != nil || len(rest) != 0 {
		t.Fatalf("exact-size call should split with empty rest: %v", err)
	}
}

func TestEncodeDynamicValues(t *testing.T) {
	var n model.Node
	n[31] = 7
	const long = "https://example.com/some/long/path/that/spans/words"
	call := Pack(SelectorOf("setText(bytes32,string,string)"), Bytes32(n), String("url"), String(long))
	if len(call[SelectorSize:])%WordSize != 0 {
		t.Fatalf("encoding must be word aligned")
	}
	// Head: node, two offsets. Offsets point past the three head words.
	if off := call[SelectorSize+2*WordSize-1]; off != 3*WordSize {
		t.Fatalf("first dynamic offset = %d want %d", off, 3*WordSize)
	}

	args, err := Decode(call[SelectorSize:], TypeBytes32, TypeString, TypeString)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got, err := args.Node(0); err != nil || got != n {
		t.Fatalf("node mismatch: %s, %v", got, err)
	}
	if key, err := args.String(1); err != nil || key != "url" {
		t.Fatalf("key = %q, %v", key, err)
	}
	if val, err := args.String(2); err != nil || val != long {
		t.Fatalf("value = %q, %v", val, err)
	}
}

func TestStaticValues(t *testing.T) {
	var a model.Address
	a[0], a[19] = 0xde, 0xad
	enc := Encode(Bool(true), Uint64(42), Bytes4(SelectorOf("addr(bytes32)")), Address(a))
	if len(enc) != 4*WordSize {
		t.Fatalf("static tuple must be one word per value, got %d bytes", len(enc))
	}
	if !bytes.Equal(enc[3*WordSize+12:], a[:]) {
		t.Fatalf("address must be right aligned")
	}

	vals, err := Decode(enc, TypeBool, TypeUint64, TypeBytes4, TypeAddress)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b, _ := vals.Bool(0)
	u, _ := vals.Uint64(1)
	sel, _ := vals.Selector(2)
	got, _ := vals.Address(3)
	if !b || u != 42 || sel != SelectorOf("addr(bytes32)") || got != a {
		t.Fatalf("static decode mismatch")
	}
	if _, err := vals.Node(0); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for a type mismatch, got %v", err)
	}
	if _, err := vals.Bool(4); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode past the end, got %v", err)
	}
}

func TestDecodeRejectsBadData(t *testing.T) {
	if _, err := Decode(Encode(Bytes32(model.ZeroNode)), TypeBytes32, TypeBytes32); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for short data, got %v", err)
	}
	// Offset far outside the data.
	if _, err := Decode(Encode(Uint64(1<<40)), TypeBytes); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for a bad offset, got %v", err)
	}
	// Length word claims more data than present.
	if _, err := Decode(Encode(Uint64(WordSize), Uint64(100)), TypeBytes); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for a bad length, got %v", err)
	}
	if _, err := Decode(nil, TypeBool); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for empty data, got %v", err)
	}
}

func TestParseSelector(t *testing.T) {
	for _, in := range []string{"0x3b3b57de", "3b3b57de", "0X3B3B57DE"} {
		got, err := ParseSelector(in)
		if err != nil {
			t.Fatalf("ParseSelector(%q): %v", in, err)
		}
		if got != SelectorOf("addr(bytes32)") {
			t.Fatalf("ParseSelector(%q) = %s", in, got)
		}
	}
	for _, bad := range []string{"", "0x3b3b57", "0x3b3b57de00", "zzzzzzzz"} {
		if _, err := ParseSelector(bad); err == nil {
			t.Fatalf("ParseSelector(%q) succeeded", bad)
		}
	}
}
