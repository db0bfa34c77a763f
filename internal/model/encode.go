// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file serializes a Model for downstream tools.
package model

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format names an interchange format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Document is the serialized shape of a model.
type Document struct {
	Products []string  `yaml:"products" json:"products"`
	Machines []Machine `yaml:"machines" json:"machines"`
}

// Document returns the model as a serializable value.
func (m *Model) Document() Document {
	return Document{Products: m.Products(), Machines: m.Machines()}
}

// Encode writes m to w in the given format.
func Encode(w io.Writer, m *Model, format Format) error {
	doc := m.Document()
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode model as yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode model as json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported model format %q", format)
	}
}

// Decode reads a document written by Encode.
func Decode(r io.Reader, format Format) (*Model, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode yaml model: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode json model: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported model format %q", format)
	}
	return New(doc.Products, doc.Machines), nil
}
