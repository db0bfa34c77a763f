// Package registry holds the closed set of product symbols declared by the
// Products blocks of a source set.
//
// The registry is built once, before resolution starts, and is never
// modified afterwards, so workers share it without locking.
package registry
