// Package keys provides caller identities for remote resolver calls.
//
// A caller is identified by the address derived from its public key. Calls
// sent over the network carry a signed envelope so a server can establish
// the caller without trusting the transport.
//
// Supported schemes are ed25519 and dilithium3 (post-quantum). Both derive
// their key pair from a 32-byte seed, which is what KeyStore persists.
package keys
