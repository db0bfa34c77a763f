// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the resolved machine and recipe records and the Model
// container that owns them.
package model

// Value is a bound dependency value. Literal keeps the spelling from the
// source; Value is the same quantity in the canonical Unit (kW for power,
// ms for time, none for plain numbers).
type Value struct {
	Literal string  `yaml:"literal" json:"literal"`
	Kind    string  `yaml:"kind" json:"kind"`
	Value   float64 `yaml:"value" json:"value"`
	Unit    string  `yaml:"unit,omitempty" json:"unit,omitempty"`
}

// Part is one product occurrence of a recipe with its flow.
type Part struct {
	Product   string  `yaml:"product" json:"product"`
	Quantity  int     `yaml:"quantity" json:"quantity"`
	PerSecond float64 `yaml:"per_second" json:"per_second"`
}

// Recipe is a recipe as run by one machine.
type Recipe struct {
	Name       string  `yaml:"name" json:"name"`
	Signature  string  `yaml:"signature" json:"signature"`
	DeclaredBy string  `yaml:"declared_by" json:"declared_by"`
	Inputs     []Part  `yaml:"inputs" json:"inputs"`
	Outputs    []Part  `yaml:"outputs" json:"outputs"`
	DurationMs float64 `yaml:"duration_ms" json:"duration_ms"`
	Rate       float64 `yaml:"rate_per_second" json:"rate_per_second"`
	PowerKW    float64 `yaml:"power_kw" json:"power_kw"`
}

// Machine is a fully bound leaf producer.
type Machine struct {
	Name    string           `yaml:"name" json:"name"`
	Base    string           `yaml:"base,omitempty" json:"base,omitempty"`
	Chain   []string         `yaml:"chain" json:"chain"`
	Deps    map[string]Value `yaml:"deps" json:"deps"`
	Recipes []Recipe         `yaml:"recipes" json:"recipes"`
}

// Recipe returns the recipe with the given signature.
func (m Machine) Recipe(signature string) (Recipe, bool) {
	for _, r := range m.Recipes {
		if r.Signature == signature {
			return r.clone(), true
		}
	}
	return Recipe{}, false
}

func (m Machine) clone() Machine {
	out := m
	out.Chain = append([]string(nil), m.Chain...)
	out.Deps = make(map[string]Value, len(m.Deps))
	for k, v := range m.Deps {
		out.Deps[k] = v
	}
	out.Recipes = make([]Recipe, len(m.Recipes))
	for i, r := range m.Recipes {
		out.Recipes[i] = r.clone()
	}
	return out
}

func (r Recipe) clone() Recipe {
	out := r
	out.Inputs = append([]Part{}, r.Inputs...)
	out.Outputs = append([]Part{}, r.Outputs...)
	return out
}

// Model is the immutable result of a successful resolution.
type Model struct {
	products []string
	machines []Machine
	index    map[string]int
}

// New builds a model from machines in declaration order. The arguments are
// copied.
func New(products []string, machines []Machine) *Model {
	m := &Model{
		products: append([]string{}, products...),
		machines: make([]Machine, len(machines)),
		index:    make(map[string]int, len(machines)),
	}
	for i, mc := range machines {
		m.machines[i] = mc.clone()
		m.index[mc.Name] = i
	}
	return m
}

// Machines returns copies of all machines in declaration order.
func (m *Model) Machines() []Machine {
	out := make([]Machine, len(m.machines))
	for i, mc := range m.machines {
		out[i] = mc.clone()
	}
	return out
}

// Machine returns a copy of the named machine.
func (m *Model) Machine(name string) (Machine, bool) {
	i, ok := m.index[name]
	if !ok {
		return Machine{}, false
	}
	return m.machines[i].clone(), true
}

// Products returns the product registry in declaration order.
func (m *Model) Products() []string {
	return append([]string{}, m.products...)
}

// Len returns the number of machines.
func (m *Model) Len() int { return len(m.machines) }

// RecipeCount returns the number of (machine, recipe) pairs.
func (m *Model) RecipeCount() int {
	n := 0
	for _, mc := range m.machines {
		n += len(mc.Recipes)
	}
	return n
}
