package ens

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const reverseSuffix = "addr.reverse"

// Node is the EIP-137 namehash of a normalized name.
type Node [32]byte

// RootNode is the namehash of the empty name.
var RootNode Node

func (n Node) Hex() string {
	return hexutil.Encode(n[:])
}

func (n Node) String() string {
	return n.Hex()
}

func (n Node) IsZero() bool {
	return n == RootNode
}

// LabelHash is keccak256 of a single label.
func LabelHash(label string) common.Hash {
	return crypto.Keccak256Hash([]byte(label))
}

// ComputeNode derives the node of an already normalized name. It does no
// I/O and never fails; passing a name that skipped Normalize yields a node
// nobody registered.
func ComputeNode(normalized string) Node {
	node := RootNode
	if normalized == "" {
		return node
	}
	labels := strings.Split(normalized, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := LabelHash(labels[i])
		copy(node[:], crypto.Keccak256(node[:], label[:]))
	}
	return node
}

// ReverseName is the name holding the primary name record of addr.
func ReverseName(addr common.Address) string {
	return strings.ToLower(addr.Hex()[2:]) + "." + reverseSuffix
}

func ReverseNode(addr common.Address) Node {
	return ComputeNode(ReverseName(addr))
}
