// Package protocol owns the client/server wire contract.
//
// Ownership boundary:
// - wire constants and reserved discriminants
// - error taxonomy shared by codec and framer
// - wire/ field primitives
// - payload/ tagged-union codec and size prober
// - frame/ size-prefixed message framer
// - client/ and server/ direction instantiations
// - stream/ incremental reader/writer over a byte stream
package protocol
