package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/lang"
	"github.com/vk/prodchain/internal/model"
)

var factory = heredoc.Doc(`
	Products { Ore, Plate, Gear }

	producer Drill {
		dep Speed: real;
		recipe_template _(_) -> _ * Self::Speed;
		recipe mine() -> Ore / 500ms;
	}

	producer Smelter {
		dep Speed: real;
		dep PowerDraw: Power;
		recipe_template _(_) -> _ * Self::Speed @ Self::PowerDraw;
		recipe plate(Ore) -> Plate / 1000ms;
	}

	producer Assembler {
		dep PowerDraw: Power;
		recipe gear(2x Plate) -> Gear / 2s;
	}

	machine BasicDrill : Drill { dep Speed = 0.5; }
	machine BasicSmelter : Smelter { dep Speed: 1.0; dep PowerDraw = 30kW; }
	machine FastSmelter : Smelter { dep Speed = 2; dep PowerDraw = 90kW; }
	machine Gearbox : Assembler { dep PowerDraw = 75kW; }
`)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := lang.Parse("factory.pc", []byte(src))
	require.NoError(t, err)
	return f
}

func TestResolve_Success(t *testing.T) {
	m, err := New(Options{}).Resolve(context.Background(), parse(t, factory))
	require.NoError(t, err)
	require.NotNil(t, m)

	var names []string
	for _, mc := range m.Machines() {
		names = append(names, mc.Name)
	}
	assert.Equal(t, []string{"BasicDrill", "BasicSmelter", "FastSmelter", "Gearbox"}, names)

	drill, _ := m.Machine("BasicDrill")
	require.Len(t, drill.Recipes, 1)
	assert.Equal(t, 1.0, drill.Recipes[0].Rate)

	fast, _ := m.Machine("FastSmelter")
	plate, ok := fast.Recipe("plate(Ore)")
	require.True(t, ok)
	assert.Equal(t, 2.0, plate.Rate)
	assert.Equal(t, 90.0, plate.PowerKW)

	gearbox, _ := m.Machine("Gearbox")
	require.Len(t, gearbox.Recipes, 1)
	assert.Equal(t, 0.0, gearbox.Recipes[0].PowerKW, "identity formula has no power term")
	assert.Equal(t, 0.5, gearbox.Recipes[0].Rate)
}

func TestResolve_BatchErrors(t *testing.T) {
	src := factory + heredoc.Doc(`
		machine Broken : Smelter { dep Speed = 1; }
		producer Foundry { recipe cast(Ore) -> Ingot / 1s; }
		machine Orphan : Smeltr {}
	`)
	m, err := New(Options{Workers: 2}).Resolve(context.Background(), parse(t, src))
	require.Error(t, err)
	assert.Nil(t, m, "no partial model")

	var list *diag.List
	require.ErrorAs(t, err, &list)
	assert.Equal(t, map[diag.Kind]int{
		diag.KindUnboundDependency: 1,
		diag.KindUnknownProduct:    1,
		diag.KindUnknownBase:       1,
	}, list.Kinds())
}

func TestResolve_DeterministicAcrossWorkerCounts(t *testing.T) {
	src := heredoc.Doc(`
		Products { A }
		producer P1 { recipe r() -> X1 / 1s; }
		producer P2 { recipe r() -> X2 / 1s; }
		producer P3 { recipe r() -> X3 / 1s; }
		producer P4 { recipe r() -> X4 / 1s; }
		machine M1 : P1 {}
		machine M2 : P2 {}
	`)
	f := parse(t, src)

	var want string
	for _, workers := range []int{1, 2, 8} {
		_, err := New(Options{Workers: workers}).Resolve(context.Background(), f)
		require.Error(t, err)
		if want == "" {
			want = err.Error()
			continue
		}
		assert.Equal(t, want, err.Error(), "workers=%d", workers)
	}
	assert.Contains(t, want, "4 resolution errors")
}

func TestResolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}).Resolve(ctx, parse(t, factory))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingObserver struct {
	mu       sync.Mutex
	subtrees map[string]int
	finished int
	lastErr  error
	lastM    *model.Model
}

func (o *recordingObserver) SubtreeResolved(root string, nodes int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subtrees[root] = nodes
}

func (o *recordingObserver) ResolutionFinished(m *model.Model, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
	o.lastM, o.lastErr = m, err
}

func TestResolve_NotifiesObserver(t *testing.T) {
	obs := &recordingObserver{subtrees: make(map[string]int)}
	m, err := New(Options{Observer: obs}).Resolve(context.Background(), parse(t, factory))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"Drill": 2, "Smelter": 3, "Assembler": 2}, obs.subtrees)
	assert.Equal(t, 1, obs.finished)
	assert.Same(t, m, obs.lastM)
	assert.NoError(t, obs.lastErr)
}
