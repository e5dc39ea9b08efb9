// Package lww implements a Last-Writer-Wins map, a state-based CRDT mapping
// string keys to versioned registers.
//
// Each register is versioned by a logical timestamp and the ID of the node
// that wrote it. When two registers for the same key conflict, the one with
// the greater timestamp wins, and equal timestamps are resolved by the greater
// writer ID. Since the ordering doesn't depend on the order updates arrive,
// merging is commutative, associative and idempotent, so replicas that
// exchange their full state converge to the same map.
package lww
