// Package model defines the boundary types shared by every layer: identifiers
// (Node) and addresses (Address).
//
// Both are fixed-width byte arrays so they can be used as map keys and
// compared with ==. Their text form is 0x-prefixed lowercase hex.
package model
