// Package validate holds the batch checks of the resolver and assembles
// the final model.
//
// CheckDependencies runs per node while subtrees are being resolved.
// CheckProducts needs every subtree and runs after the barrier. Assemble is
// only called once the collector is empty.
package validate
