// Package resolver runs the resolution pipeline over a parsed source set.
//
// The product registry and the hierarchy are built first. Each root
// subtree is then resolved on its own worker: effective slots, dependency
// checks, template expansion and rate figures. Waiting for all workers is
// the barrier after which product references are checked across subtrees.
// A model is returned only when no error was collected.
package resolver
