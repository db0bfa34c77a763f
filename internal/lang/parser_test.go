package lang

import (
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
)

func mustParse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := Parse("test.pc", []byte(src))
	require.NoError(t, err)
	return f
}

func TestParse_BlocksInDeclarationOrder(t *testing.T) {
	f := mustParse(t, heredoc.Doc(`
		machine BasicSmelter : Smelter {}
		Products { Ore, Plate, }
		producer Smelter {}
	`))
	require.Len(t, f.Blocks, 3)

	m, ok := f.Blocks[0].(*ast.MachineDecl)
	require.True(t, ok)
	assert.Equal(t, "BasicSmelter", m.Name.Name)
	require.NotNil(t, m.Base)
	assert.Equal(t, "Smelter", m.Base.Name)

	products, ok := f.Blocks[1].(*ast.ProductsDecl)
	require.True(t, ok)
	require.Len(t, products.Names, 2)
	assert.Equal(t, "Plate", products.Names[1].Name)

	p, ok := f.Blocks[2].(*ast.ProducerDecl)
	require.True(t, ok)
	assert.Nil(t, p.Base)
	assert.Equal(t, 3, p.Range().Start.Line)
}

func TestParse_DepForms(t *testing.T) {
	f := mustParse(t, heredoc.Doc(`
		producer P {
			dep Speed: real;
			dep PowerDraw: 50kW;
			dep Other = 30kW;
			dep Warmup: Time = 2s;
		}
	`))
	deps := f.Blocks[0].(*ast.ProducerDecl).Body.Deps
	require.Len(t, deps, 4)

	assert.Equal(t, ast.TypeReal, deps[0].Type.Type)
	assert.Nil(t, deps[0].Value)
	assert.False(t, deps[0].IsBinding())

	assert.Nil(t, deps[1].Type)
	assert.Equal(t, ast.BindColon, deps[1].Form)
	assert.Equal(t, ast.KindPower, deps[1].Value.Kind)
	assert.Equal(t, 50.0, deps[1].Value.Canonical())

	assert.Nil(t, deps[2].Type)
	assert.Equal(t, ast.BindEquals, deps[2].Form)

	assert.Equal(t, ast.TypeTime, deps[3].Type.Type)
	require.NotNil(t, deps[3].Value)
	assert.Equal(t, 2000.0, deps[3].Value.Canonical())
}

func TestParse_Recipe(t *testing.T) {
	f := mustParse(t, "producer P { recipe mix(A, 3x B) -> 2 x C / 1.5s; recipe idle() -> C / 10; }")
	recipes := f.Blocks[0].(*ast.ProducerDecl).Body.Recipes
	require.Len(t, recipes, 2)

	r := recipes[0]
	assert.Equal(t, "mix", r.Name.Name)
	require.Len(t, r.Inputs, 2)
	assert.Equal(t, 1, r.Inputs[0].Quantity)
	assert.Equal(t, "B", r.Inputs[1].Product.Name)
	assert.Equal(t, 3, r.Inputs[1].Quantity)
	require.Len(t, r.Outputs, 1)
	assert.Equal(t, 2, r.Outputs[0].Quantity)
	assert.Equal(t, 1500.0, r.Duration.Canonical())
	assert.Equal(t, "mix(A,B)", r.Signature())

	assert.Empty(t, recipes[1].Inputs)
	assert.Equal(t, 10.0, recipes[1].Duration.Canonical())
}

func TestParse_Template(t *testing.T) {
	f := mustParse(t, heredoc.Doc(`
		producer P {
			recipe_template _(_) -> _ * Self::Speed * 2 @ Self::PowerDraw;
			recipe_template plate(Ore, _) -> 2x Plate;
			recipe_template _() -> _;
		}
	`))
	tmpls := f.Blocks[0].(*ast.ProducerDecl).Body.Templates
	require.Len(t, tmpls, 3)

	wild := tmpls[0]
	assert.True(t, wild.Name.Wildcard)
	assert.True(t, wild.Inputs.Wildcard)
	assert.True(t, wild.Outputs.Wildcard)
	require.Len(t, wild.Factors, 2)
	assert.Equal(t, "Speed", wild.Factors[0].SelfDep)
	assert.False(t, wild.Factors[1].IsSelf())
	assert.Equal(t, 2.0, wild.Factors[1].Literal.Value)
	require.NotNil(t, wild.Power)
	assert.Equal(t, "Self::PowerDraw", wild.Power.String())

	exact := tmpls[1]
	assert.Equal(t, "plate", exact.Name.Name)
	require.Len(t, exact.Inputs.Items, 2)
	assert.Equal(t, "Ore", exact.Inputs.Items[0].Part.Product.Name)
	assert.True(t, exact.Inputs.Items[1].Wildcard)
	require.Len(t, exact.Outputs.Items, 1)
	assert.Equal(t, 2, exact.Outputs.Items[0].Part.Quantity)
	assert.Empty(t, exact.Factors)
	assert.Nil(t, exact.Power)

	empty := tmpls[2]
	assert.False(t, empty.Inputs.Wildcard)
	assert.Empty(t, empty.Inputs.Items)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{"unknown top level", "factory F {}", "expected a Products, producer or machine block", 1},
		{"missing semicolon", "producer P {\n dep Speed: real\n}", "expected ';'", 3},
		{"unknown type", "producer P { dep Speed: float; }", `unknown dependency type "float"`, 1},
		{"wildcard in recipe", "producer P {\n recipe r(_) -> A / 1s;\n}", "only allowed inside recipe_template", 2},
		{"zero duration", "producer P { recipe r(A) -> B / 0ms; }", "must be positive", 1},
		{"power duration", "producer P { recipe r(A) -> B / 5kW; }", "must be a time", 1},
		{"empty outputs", "producer P { recipe r(A) -> / 1s; }", "expected identifier", 1},
		{"bad operand", "producer P { recipe_template _(_) -> _ * Speed; }", "expected Self::<dep> or a literal", 1},
		{"unclosed block", "producer P {", "expected dep, recipe, recipe_template or '}'", 1},
		{"dep without rhs", "machine M { dep Speed; }", "expected ':' or '='", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Parse("bad.pc", []byte(tc.src))
			require.Error(t, err)
			assert.Nil(t, f)
			var parseErr *diag.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Contains(t, parseErr.Msg, tc.msg)
			assert.Equal(t, tc.line, parseErr.Subject.Start.Line)
			assert.Equal(t, "bad.pc", parseErr.Subject.Filename)
		})
	}
}

func TestParse_LexErrorAborts(t *testing.T) {
	_, err := Parse("bad.pc", []byte("producer P { dep Speed: 3parsecs; }"))
	var lexErr *diag.LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, diag.KindLex, lexErr.Kind())
}
