// Package token generates opaque random keys and issues entities that are
// identified by such a key and expire at a fixed time.
//
// Sessions and mail verifications are both issued through an Issuer: the
// package knows nothing about either, it only draws keys, checks them
// against a uniqueness predicate and hands the key and its Lifetime to a
// Create callback.
package token
