package hcl

import (
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/lang"
)

func TestParse_MatchesNativeSyntax(t *testing.T) {
	hclSrc := heredoc.Doc(`
		products = ["Ore", "Plate", "Gear"]

		producer "Smelter" {
		  dep "Speed" {
		    type = "real"
		  }
		  dep "PowerDraw" {
		    type = "Power"
		  }
		  recipe_template {
		    factors = ["Self::Speed"]
		    power   = "Self::PowerDraw"
		  }
		  recipe "plate" {
		    inputs   = ["Ore"]
		    outputs  = ["Plate"]
		    duration = "1000ms"
		  }
		}

		machine "BasicSmelter" {
		  base = "Smelter"
		  dep "Speed" {
		    value = 1.0
		  }
		  dep "PowerDraw" {
		    value = "30kW"
		  }
		}

		producer "Assembler" {
		  dep "Speed" {
		    type  = "real"
		    value = 0.75
		  }
		  recipe_template {
		    name    = "gear"
		    inputs  = ["2x Plate", "_"]
		    outputs = "_"
		    factors = ["Self::Speed", "1.5"]
		    power   = "150W"
		  }
		  recipe_template {
		    inputs  = []
		    outputs = ["Gear"]
		  }
		  recipe "gear" {
		    inputs   = ["2x Plate", "Ore"]
		    outputs  = ["3x Gear"]
		    duration = "0.5min"
		  }
		}
	`)
	nativeSrc := heredoc.Doc(`
		Products { Ore, Plate, Gear }

		producer Smelter {
			dep Speed: real;
			dep PowerDraw: Power;
			recipe_template _(_) -> _ * Self::Speed @ Self::PowerDraw;
			recipe plate(Ore) -> Plate / 1000ms;
		}

		machine BasicSmelter : Smelter {
			dep Speed = 1;
			dep PowerDraw = 30kW;
		}

		producer Assembler {
			dep Speed: real = 0.75;
			recipe_template gear(2x Plate, _) -> _ * Self::Speed * 1.5 @ 150W;
			recipe_template _() -> Gear;
			recipe gear(2x Plate, Ore) -> 3x Gear / 0.5min;
		}
	`)

	got, err := Parse("factory.hcl", []byte(hclSrc))
	require.NoError(t, err)
	want, err := lang.Parse("factory.pc", []byte(nativeSrc))
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpopts.IgnoreTypes(hcl.Range{}), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("HCL translation mismatch (-native +hcl):\n%s", diff)
	}
}

func TestParse_RangesPointAtAttributes(t *testing.T) {
	src := heredoc.Doc(`
		producer "P" {
		  recipe "r" {
		    inputs   = ["Ore", "3x Coal"]
		    outputs  = ["Steel"]
		    duration = "2s"
		  }
		}
	`)
	f, err := Parse("ranges.hcl", []byte(src))
	require.NoError(t, err)
	require.Len(t, f.Blocks, 1)

	p := f.Blocks[0].(*ast.ProducerDecl)
	assert.Equal(t, 1, p.Name.SrcRange.Start.Line)
	recipe := p.Body.Recipes[0]
	assert.Equal(t, 2, recipe.Name.SrcRange.Start.Line)
	require.Len(t, recipe.Inputs, 2)
	assert.Equal(t, "Coal", recipe.Inputs[1].Product.Name)
	assert.Equal(t, 3, recipe.Inputs[1].Quantity)
	assert.Equal(t, 3, recipe.Inputs[1].Product.SrcRange.Start.Line)
	assert.Equal(t, "ranges.hcl", recipe.Inputs[1].Product.SrcRange.Filename)
	assert.Equal(t, 5, recipe.Duration.SrcRange.Start.Line)
	assert.Equal(t, 2000.0, recipe.Duration.Canonical())
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		line    int
		wantMsg string
		lexical bool
	}{
		{
			name:    "hcl syntax",
			src:     "producer \"P\" {\n  base = \n}\n",
			wantMsg: "",
		},
		{
			name:    "unknown block",
			src:     "factory \"F\" {}\n",
			line:    1,
			wantMsg: "Unsupported block type",
		},
		{
			name:    "unknown slot type",
			src:     "producer \"P\" {\n  dep \"S\" {\n    type = \"speed\"\n  }\n}\n",
			line:    3,
			wantMsg: "unknown dependency type",
		},
		{
			name:    "empty dep",
			src:     "producer \"P\" {\n  dep \"S\" {}\n}\n",
			line:    2,
			wantMsg: "needs a type, a value, or both",
		},
		{
			name:    "missing duration",
			src:     "producer \"P\" {\n  recipe \"r\" {\n    outputs = [\"A\"]\n  }\n}\n",
			line:    2,
			wantMsg: "duration",
		},
		{
			name:    "power duration",
			src:     "producer \"P\" {\n  recipe \"r\" {\n    outputs  = [\"A\"]\n    duration = \"5kW\"\n  }\n}\n",
			line:    4,
			wantMsg: "must be a time",
		},
		{
			name:    "malformed part",
			src:     "producer \"P\" {\n  recipe \"r\" {\n    outputs  = [\"2y A\"]\n    duration = \"1s\"\n  }\n}\n",
			line:    3,
			lexical: true,
		},
		{
			name:    "wildcard outside template",
			src:     "producer \"P\" {\n  recipe \"r\" {\n    outputs  = [\"_\"]\n    duration = \"1s\"\n  }\n}\n",
			line:    3,
			wantMsg: "wildcard",
		},
		{
			name:    "bad pattern list",
			src:     "producer \"P\" {\n  recipe_template {\n    outputs = \"Gear\"\n  }\n}\n",
			line:    3,
			wantMsg: "pattern list",
		},
		{
			name:    "product name with space",
			src:     "products = [\"Iron Ore\"]\n",
			line:    1,
			wantMsg: `identifier "Ore"`,
		},
		{
			name:    "wildcard product name",
			src:     "products = [\"_\"]\n",
			line:    1,
			wantMsg: "expected identifier",
		},
		{
			name:    "producer label with space",
			src:     "producer \"My Smelter\" {}\n",
			line:    1,
			wantMsg: `identifier "Smelter"`,
		},
		{
			name:    "base with space",
			src:     "machine \"M\" {\n  base = \"Base Type\"\n}\n",
			line:    2,
			wantMsg: `identifier "Type"`,
		},
		{
			name:    "dep label with space",
			src:     "producer \"P\" {\n  dep \"Top Speed\" {\n    type = \"real\"\n  }\n}\n",
			line:    2,
			wantMsg: `identifier "Speed"`,
		},
		{
			name:    "recipe label with space",
			src:     "producer \"P\" {\n  recipe \"make plate\" {\n    outputs  = [\"A\"]\n    duration = \"1s\"\n  }\n}\n",
			line:    2,
			wantMsg: `identifier "plate"`,
		},
		{
			name:    "template name with space",
			src:     "producer \"P\" {\n  recipe_template {\n    name = \"make gear\"\n  }\n}\n",
			line:    3,
			wantMsg: `identifier "gear"`,
		},
		{
			name:    "empty template outputs",
			src:     "producer \"P\" {\n  recipe_template {\n    outputs = []\n  }\n}\n",
			line:    3,
			wantMsg: "must not be empty",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("bad.hcl", []byte(tc.src))
			require.Error(t, err)

			var rng hcl.Range
			if tc.lexical {
				var lexErr *diag.LexError
				require.ErrorAs(t, err, &lexErr)
				rng = lexErr.Subject
			} else {
				var parseErr *diag.ParseError
				require.ErrorAs(t, err, &parseErr)
				rng = parseErr.Subject
				assert.Contains(t, parseErr.Msg, tc.wantMsg)
			}
			assert.Equal(t, "bad.hcl", rng.Filename)
			if tc.line > 0 {
				assert.Equal(t, tc.line, rng.Start.Line)
			}
		})
	}
}

func TestParse_WildcardListPatterns(t *testing.T) {
	src := heredoc.Doc(`
		producer "P" {
		  recipe_template {
		    inputs  = ["_"]
		    outputs = ["_", "_"]
		  }
		}
	`)
	f, err := Parse("lists.hcl", []byte(src))
	require.NoError(t, err)
	tmpl := f.Blocks[0].(*ast.ProducerDecl).Body.Templates[0]

	assert.True(t, tmpl.Inputs.Wildcard, `["_"] matches any input list`)
	assert.Empty(t, tmpl.Inputs.Items)
	assert.False(t, tmpl.Outputs.Wildcard)
	require.Len(t, tmpl.Outputs.Items, 2)
	assert.True(t, tmpl.Outputs.Items[0].Wildcard)

	native, err := lang.Parse("lists.pc", ast.Format(f))
	require.NoError(t, err)
	if diff := cmp.Diff(f, native, cmpopts.IgnoreTypes(hcl.Range{}), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("formatted output changed meaning (-hcl +native):\n%s", diff)
	}
}

func TestParse_FormattedNamesReparse(t *testing.T) {
	src := heredoc.Doc(`
		products = ["IronOre", "Plate_2"]

		producer "Smelter" {
		  dep "Speed" {
		    type = "real"
		  }
		  recipe "plate" {
		    inputs   = ["IronOre"]
		    outputs  = ["Plate_2"]
		    duration = "1s"
		  }
		}
	`)
	f, err := Parse("names.hcl", []byte(src))
	require.NoError(t, err)
	_, err = lang.Parse("names.pc", ast.Format(f))
	require.NoError(t, err)
}
