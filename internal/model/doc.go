// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model is the export contract of the resolver: the immutable,
// fully bound production model handed to downstream tooling.
//
// # Core Concepts
//
//   - Model: the root container. It exists only for a source set that
//     resolved without a single error; there is no partial model.
//
//   - Machine: a leaf producer with every inherited dependency slot bound.
//     It carries its ancestor chain, its resolved dependency map and the
//     recipes it can run.
//
//   - Recipe: one (machine, recipe) pair with the rate formula evaluated:
//     canonical duration, throughput in items per second and power draw in
//     kilowatts, plus a per-second flow for each input and output.
//
// Accessors hand out deep copies, so callers can never mutate a model they
// received. Encode serializes a model to YAML or JSON for tools that do not
// link against this package.
package model
