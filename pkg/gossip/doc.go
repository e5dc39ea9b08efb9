// Package gossip disseminates the local LWW store to a fixed set of peers.
//
// On each round the node takes a full snapshot of its store and pushes it to
// every configured peer. Peers merge the snapshot into their own store. Since
// the full state is sent each round, a missed delivery is repaired by the next
// round without any retries, and since merging is commutative and idempotent
// the order and number of deliveries doesn't matter.
package gossip
