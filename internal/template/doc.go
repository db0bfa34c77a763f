// Package template binds recipe_template formulas to concrete recipes.
//
// A template is a structural pattern over a recipe's name, inputs and
// outputs plus a rate formula whose operands may reference the running
// machine's own slots as Self::<dep>. Expansion keeps those references
// symbolic; package rate evaluates them per machine.
package template
