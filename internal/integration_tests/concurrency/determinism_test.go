package integration_tests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/lang"
	"github.com/vk/prodchain/internal/resolver"
	"github.com/vk/prodchain/internal/testutil"
)

// forest builds n independent root producers, each with two machines. Every
// seventh tree is broken when withErrors is set.
func forest(n int, withErrors bool) string {
	var sb strings.Builder
	sb.WriteString("Products { Ore, Plate }\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "producer Root%d {\n", i)
		sb.WriteString("    dep Speed: real;\n    dep PowerDraw: Power;\n")
		sb.WriteString("    recipe_template _(_) -> _ * Self::Speed @ Self::PowerDraw;\n")
		product := "Plate"
		if withErrors && i%7 == 0 {
			product = "Plat"
		}
		fmt.Fprintf(&sb, "    recipe plate(%dx Ore) -> %s / %dms;\n}\n", i%3+1, product, 100*(i+1))
		fmt.Fprintf(&sb, "machine Fast%d : Root%d { dep Speed = %d; dep PowerDraw = %dkW; }\n", i, i, i+1, i+1)
		if withErrors && i%5 == 0 {
			fmt.Fprintf(&sb, "machine Slow%d : Root%d { dep Speed = 0.5; }\n", i, i)
		} else {
			fmt.Fprintf(&sb, "machine Slow%d : Root%d { dep Speed = 0.5; dep PowerDraw = 1kW; }\n", i, i)
		}
	}
	return sb.String()
}

func TestConcurrency_ModelIndependentOfWorkerCount(t *testing.T) {
	src := forest(40, false)
	base, err := testutil.ResolveSource(t, src, 1)
	require.NoError(t, err)
	require.Equal(t, 80, base.Len())

	for _, workers := range []int{2, 4, 16, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			m, err := testutil.ResolveSource(t, src, workers)
			require.NoError(t, err)
			if diff := cmp.Diff(base.Machines(), m.Machines()); diff != "" {
				t.Errorf("model differs from single worker run (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConcurrency_ErrorListIndependentOfWorkerCount(t *testing.T) {
	src := forest(40, true)
	_, err := testutil.ResolveSource(t, src, 1)
	require.Error(t, err)
	want := err.Error()
	wantCount := len(diag.Flatten(err))
	assert.Equal(t, 6+8, wantCount)

	for i := 0; i < 10; i++ {
		_, err := testutil.ResolveSource(t, src, 32)
		require.Error(t, err)
		assert.Equal(t, want, err.Error())
	}
}

func TestConcurrency_Cancellation(t *testing.T) {
	f, err := lang.Parse("forest.pc", []byte(forest(10, false)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := resolver.New(resolver.Options{Workers: 2}).Resolve(ctx, f)
	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, context.Canceled))
}
