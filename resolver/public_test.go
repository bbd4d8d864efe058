package resolver

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/nodeutil"
	"xdao.co/ensbridge/registry"
)

func testAddr(b byte) model.Address {
	var a model.Address
	a[0] = 0xee
	a[19] = b
	return a
}

func newOwnedPublic(t *testing.T) (*Public, model.Address, model.Node) {
	t.Helper()
	owner := testAddr(1)
	reg := registry.NewMemory(owner)
	node, err := reg.SetSubnodeOwner(owner, model.ZeroNode, nodeutil.Labelhash("badass"), owner)
	if err != nil {
		t.Fatalf("SetSubnodeOwner: %v", err)
	}
	return NewPublic(reg), owner, node
}

func TestPublicAddrRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, owner, node := newOwnedPublic(t)

	ret, err := p.Call(ctx, Message{Data: AddrCall(node), ReadOnly: true})
	if err != nil {
		t.Fatalf("addr: %v", err)
	}
	got, err := DecodeAddress(ret)
	if err != nil || !got.IsZero() {
		t.Fatalf("unset addr = %s, %v", got, err)
	}

	want := testAddr(7)
	if _, err := p.Call(ctx, Message{Caller: owner, Data: SetAddrCall(node, want)}); err != nil {
		t.Fatalf("setAddr: %v", err)
	}
	ret, err = p.Call(ctx, Message{Data: AddrCall(node), ReadOnly: true})
	if err != nil {
		t.Fatalf("addr: %v", err)
	}
	if got, _ := DecodeAddress(ret); got != want {
		t.Fatalf("addr = %s want %s", got, want)
	}
}

func TestPublicDynamicRecords(t *testing.T) {
	ctx := context.Background()
	p, owner, node := newOwnedPublic(t)

	hash := []byte{0xe3, 0x01, 0x01, 0x70, 0x12, 0x20, 0xaa}
	if _, err := p.Call(ctx, Message{Caller: owner, Data: SetContenthashCall(node, hash)}); err != nil {
		t.Fatalf("setContenthash: %v", err)
	}
	if _, err := p.Call(ctx, Message{Caller: owner, Data: SetTextCall(node, "url", "https://xdao.co")}); err != nil {
		t.Fatalf("setText: %v", err)
	}

	ret, err := p.Call(ctx, Message{Data: ContenthashCall(node), ReadOnly: true})
	if err != nil {
		t.Fatalf("contenthash: %v", err)
	}
	if got, _ := DecodeBytes(ret); !bytes.Equal(got, hash) {
		t.Fatalf("contenthash = %x want %x", got, hash)
	}
	ret, err = p.Call(ctx, Message{Data: TextCall(node, "url"), ReadOnly: true})
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if got, _ := DecodeString(ret); got != "https://xdao.co" {
		t.Fatalf("text = %q", got)
	}
}

func TestPublicRejectsWritesInReadOnlyCalls(t *testing.T) {
	p, owner, node := newOwnedPublic(t)
	_, err := p.Call(context.Background(), Message{Caller: owner, Data: SetAddrCall(node, testAddr(7)), ReadOnly: true})
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if !p.Addr(node).IsZero() {
		t.Fatalf("read-only call changed state")
	}
}

func TestPublicRejectsNonOwners(t *testing.T) {
	p, _, node := newOwnedPublic(t)
	_, err := p.Call(context.Background(), Message{Caller: testAddr(9), Data: SetAddrCall(node, testAddr(7))})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !p.Addr(node).IsZero() {
		t.Fatalf("rejected call changed state")
	}
}

func TestPublicUnknownAndMalformedCalls(t *testing.T) {
	ctx := context.Background()
	p, _, node := newOwnedPublic(t)

	unknown := calldata.Pack(calldata.SelectorOf("pubkey(bytes32)"), calldata.Bytes32(node))
	if _, err := p.Call(ctx, Message{Data: unknown}); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	if _, err := p.Call(ctx, Message{Data: []byte{1, 2}}); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod for short data, got %v", err)
	}
	short := calldata.Pack(SelectorText, calldata.Bytes32(node))
	if _, err := p.Call(ctx, Message{Data: short}); !errors.Is(err, ErrBadArguments) {
		t.Fatalf("expected ErrBadArguments, got %v", err)
	}
}

func TestPublicSupportsInterface(t *testing.T) {
	p, _, _ := newOwnedPublic(t)
	for id, want := range map[calldata.Selector]bool{
		SelectorAddr:                           true,
		SelectorText:                           true,
		calldata.SelectorOf("pubkey(bytes32)"): false,
	} {
		ret, err := p.Call(context.Background(), Message{Data: SupportsInterfaceCall(id), ReadOnly: true})
		if err != nil {
			t.Fatalf("supportsInterface: %v", err)
		}
		if got, _ := DecodeBool(ret); got != want {
			t.Fatalf("supportsInterface(%s) = %v want %v", id, got, want)
		}
	}
}
