package hcl

import "github.com/hashicorp/hcl/v2"

var rootSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "products"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "producer", LabelNames: []string{"name"}},
		{Type: "machine", LabelNames: []string{"name"}},
	},
}

var typeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "base"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "dep", LabelNames: []string{"name"}},
		{Type: "recipe_template"},
		{Type: "recipe", LabelNames: []string{"name"}},
	},
}

var depSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
		{Name: "value"},
	},
}

var templateSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name"},
		{Name: "inputs"},
		{Name: "outputs"},
		{Name: "factors"},
		{Name: "power"},
	},
}

var recipeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "inputs"},
		{Name: "outputs", Required: true},
		{Name: "duration", Required: true},
	},
}
