package storage

import (
	"bytes"
	"context"
	"sort"

	"xdao.co/ensbridge/model"
)

// Store persists delegation records: host node -> delegated node.
//
// Contract:
// - Put overwrites; the last write for a host wins.
// - Put of the same pair twice is observably a no-op.
// - Get MUST return ErrNotFound when no record was ever written for host.
// - Records for different hosts are independent.
type Store interface {
	Get(ctx context.Context, host model.Node) (model.Node, error)
	Put(ctx context.Context, host, delegated model.Node) error
}

// Record is one stored delegation.
type Record struct {
	Host      model.Node
	Delegated model.Node
}

// Lister is implemented by stores that can enumerate their records.
// List returns records ordered by host.
type Lister interface {
	List(ctx context.Context) ([]Record, error)
}

// SortRecords orders records by host node bytes.
func SortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool { return bytes.Compare(rs[i].Host[:], rs[j].Host[:]) < 0 })
}
