// Package hierarchy builds the single-inheritance tree of producers and
// machines and computes, per node, the effective dependency slots and the
// shadowed value bindings.
//
// Nodes live in an arena and refer to their parent by index, so the tree
// has no pointer back-references. A node whose base is unknown, or whose
// ancestor chain loops, is reported once and excluded together with its
// descendants; the rest of the tree still resolves so that every other
// error can be collected in the same run.
package hierarchy
