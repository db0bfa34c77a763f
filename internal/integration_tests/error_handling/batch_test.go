package integration_tests

import (
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/testutil"
)

func TestErrors_ReportedTogetherInSourceOrder(t *testing.T) {
	src := heredoc.Doc(`
		Products { Ore, Plate }
		producer Smelter {
			dep Speed: real;
			dep PowerDraw: Power;
			recipe_template _(_) -> _ * Self::Speed @ Self::PowerDraw;
			recipe plate(Ore) -> Plates / 1s;
			recipe plate(Ore) -> Plate / 2s;
		}
		machine A : Smelter { dep Speed: 1.0; }
		machine B : Smelterr {}
		machine C : Smelter { dep Speed: 5kW; dep PowerDraw: 1kW; }
	`)
	errs := testutil.ResolutionErrors(t, src)

	assert.ElementsMatch(t, []diag.Kind{
		diag.KindUnknownProduct,
		diag.KindDuplicateRecipeSignature,
		diag.KindUnboundDependency,
		diag.KindUnknownBase,
		diag.KindTypeMismatch,
	}, testutil.Kinds(errs))

	for i := 1; i < len(errs); i++ {
		assert.LessOrEqual(t, errs[i-1].Range().Start.Byte, errs[i].Range().Start.Byte,
			"errors must be ordered by source position")
	}

	var base *diag.UnknownBaseError
	for _, e := range errs {
		if b, ok := e.(*diag.UnknownBaseError); ok {
			base = b
		}
	}
	require.NotNil(t, base)
	assert.Equal(t, "B", base.Node)
	assert.Equal(t, "Smelter", base.Suggestion)
	assert.Equal(t, 10, base.Subject.Start.Line)
}

func TestErrors_InheritanceCycle(t *testing.T) {
	src := heredoc.Doc(`
		producer A : B {}
		producer B : A {}
		machine M : A {}
	`)
	errs := testutil.ResolutionErrors(t, src)
	require.Equal(t, []diag.Kind{diag.KindInheritanceCycle, diag.KindInheritanceCycle}, testutil.Kinds(errs))

	cycle := errs[0].(*diag.InheritanceCycleError)
	assert.Equal(t, "A", cycle.Node)
	assert.Equal(t, []string{"A", "B", "A"}, cycle.Cycle)
}

func TestErrors_DuplicateDeclarations(t *testing.T) {
	src := heredoc.Doc(`
		Products { Ore }
		Products { Ore }
		producer P {}
		machine P {}
	`)
	errs := testutil.ResolutionErrors(t, src)
	require.Equal(t, []diag.Kind{diag.KindDuplicateDeclaration, diag.KindDuplicateDeclaration}, testutil.Kinds(errs))

	product := errs[0].(*diag.DuplicateDeclarationError)
	assert.Equal(t, "Ore", product.Name)
	assert.Equal(t, 1, product.Previous.Start.Line)
	assert.Equal(t, "P", errs[1].(*diag.DuplicateDeclarationError).Name)
}

func TestErrors_SlotDiscipline(t *testing.T) {
	src := heredoc.Doc(`
		producer Base {
			dep Speed: real = 1.0;
		}
		producer Child : Base {
			dep Speed: real;
			dep Turbo = 2.0;
		}
	`)
	errs := testutil.ResolutionErrors(t, src)
	require.Equal(t, []diag.Kind{diag.KindSlotRedeclaration, diag.KindUndeclaredDependency}, testutil.Kinds(errs))
	assert.Equal(t, "Turbo", errs[1].(*diag.UndeclaredDependencyError).Slot)
}

func TestErrors_UnmatchedTemplate(t *testing.T) {
	src := heredoc.Doc(`
		Products { Ore, Plate, Gear }
		producer P {
			recipe_template gear(_) -> _;
			recipe plate(Ore) -> Plate / 1s;
		}
		machine M : P {}
	`)
	errs := testutil.ResolutionErrors(t, src)
	require.Equal(t, []diag.Kind{diag.KindUnmatchedTemplate}, testutil.Kinds(errs))
	assert.Equal(t, "plate(Ore)", errs[0].(*diag.UnmatchedTemplateError).Signature)
}
