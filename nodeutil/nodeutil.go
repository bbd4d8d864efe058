package nodeutil

import (
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/sha3"

	"xdao.co/ensbridge/model"
)

// Labelhash returns keccak256(label).
func Labelhash(label string) model.Node {
	var out model.Node
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(label))
	h.Sum(out[:0])
	return out
}

// Subnode returns keccak256(parent || label), the identifier of label under parent.
func Subnode(parent, label model.Node) model.Node {
	var out model.Node
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(parent[:])
	_, _ = h.Write(label[:])
	h.Sum(out[:0])
	return out
}

// Namehash derives the identifier of a dot-separated name (EIP-137).
//
// The empty name is the root and hashes to the zero node. Names are hashed
// as given; callers are responsible for normalisation.
func Namehash(name string) model.Node {
	var node model.Node
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		node = Subnode(node, Labelhash(labels[i]))
	}
	return node
}

// CID renders a node as a CIDv1 (raw codec, keccak-256 multihash).
//
// The node bytes are carried as the digest; this is a display and transport
// form, not a content address of anything stored.
func CID(n model.Node) (cid.Cid, error) {
	mh, err := multihash.Encode(n[:], multihash.KECCAK_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// NodeFromCID is the inverse of CID.
func NodeFromCID(c cid.Cid) (model.Node, error) {
	if !c.Defined() {
		return model.ZeroNode, fmt.Errorf("nodeutil: undefined cid")
	}
	dec, err := multihash.Decode(c.Hash())
	if err != nil {
		return model.ZeroNode, err
	}
	if dec.Code != multihash.KECCAK_256 {
		return model.ZeroNode, fmt.Errorf("nodeutil: unexpected multihash %s", dec.Name)
	}
	return model.NodeFromBytes(dec.Digest)
}

// ParseNode accepts either the hex form or the CID form of a node.
func ParseNode(s string) (model.Node, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return model.ParseNode(s)
	}
	c, err := cid.Decode(s)
	if err != nil {
		return model.ParseNode(s)
	}
	return NodeFromCID(c)
}
