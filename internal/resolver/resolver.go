package resolver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/ctxlog"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/hierarchy"
	"github.com/vk/prodchain/internal/model"
	"github.com/vk/prodchain/internal/rate"
	"github.com/vk/prodchain/internal/registry"
	"github.com/vk/prodchain/internal/template"
	"github.com/vk/prodchain/internal/validate"
	"golang.org/x/sync/errgroup"
)

// Observer is notified about the progress of a resolution. Methods may be
// called from several goroutines at once.
type Observer interface {
	SubtreeResolved(root string, nodes int, elapsed time.Duration)
	ResolutionFinished(m *model.Model, err error, elapsed time.Duration)
}

// Options configures a Resolver.
type Options struct {
	// Workers caps the number of subtrees resolved at once. Zero means
	// GOMAXPROCS.
	Workers  int
	Observer Observer
}

// Resolver turns a parsed source set into a model. It holds no state
// between calls.
type Resolver struct {
	workers  int
	observer Observer
}

// New returns a resolver configured by opts.
func New(opts Options) *Resolver {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Resolver{workers: workers, observer: opts.Observer}
}

// run holds the state of one resolution. Workers write only to the slots
// of the nodes in their own subtree.
type run struct {
	tree     *hierarchy.Tree
	products *registry.Products
	c        *diag.Collector
	expander *template.Expander
	calc     *rate.Calculator

	effs     []*hierarchy.Effective
	expanded [][]*template.Expanded
	machines []*validate.Resolved
}

// Resolve resolves f. On failure the error is a *diag.List holding every
// resolution error, or the context error if ctx ended first.
func (r *Resolver) Resolve(ctx context.Context, f *ast.File) (m *model.Model, err error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	if r.observer != nil {
		defer func() { r.observer.ResolutionFinished(m, err, time.Since(start)) }()
	}

	c := diag.NewCollector()
	rn := &run{c: c}
	rn.products = registry.NewProducts(f, c)
	rn.tree = hierarchy.Build(f, c)
	rn.expander = template.NewExpander(rn.tree, c)
	rn.calc = rate.NewCalculator(rn.products)
	rn.effs = make([]*hierarchy.Effective, rn.tree.Len())
	rn.expanded = make([][]*template.Expanded, rn.tree.Len())
	rn.machines = make([]*validate.Resolved, rn.tree.Len())

	roots := rn.tree.Roots()
	logger.Debug("Resolving producer subtrees.", "products", rn.products.Len(), "nodes", rn.tree.Len(), "roots", len(roots), "workers", r.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, root := range roots {
		root := root
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			began := time.Now()
			nodes := rn.resolveSubtree(root)
			if r.observer != nil {
				r.observer.SubtreeResolved(rn.tree.Node(root).Name, nodes, time.Since(began))
			}
			logger.Debug("Subtree resolved.", "root", rn.tree.Node(root).Name, "nodes", nodes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolution interrupted: %w", err)
	}

	validate.CheckProducts(rn.tree, rn.expanded, rn.products, c)
	if err := c.Err(); err != nil {
		logger.Debug("Resolution failed.", "errors", c.Len())
		return nil, err
	}

	var resolved []validate.Resolved
	for _, id := range rn.tree.Machines() {
		resolved = append(resolved, *rn.machines[id])
	}
	m = validate.Assemble(rn.tree, rn.products, resolved)
	logger.Debug("Resolution succeeded.", "machines", m.Len(), "recipes", m.RecipeCount())
	return m, nil
}

// resolveSubtree resolves root and its descendants, parents first, and
// returns the number of nodes visited.
func (rn *run) resolveSubtree(root int) int {
	ids := rn.tree.Subtree(root)
	for _, id := range ids {
		node := rn.tree.Node(id)
		var parent *hierarchy.Effective
		if node.Parent != hierarchy.NoParent {
			parent = rn.effs[node.Parent]
		}
		eff := rn.tree.Effective(id, parent, rn.c)
		rn.effs[id] = eff
		validate.CheckDependencies(rn.tree, id, eff, rn.c)
		rn.expanded[id] = rn.expander.Expand(id, eff)

		if node.IsMachine() {
			rn.machines[id] = rn.resolveMachine(id, eff)
		}
	}
	return len(ids)
}

func (rn *run) resolveMachine(id int, eff *hierarchy.Effective) *validate.Resolved {
	chain := rn.tree.Chain(id)
	perNode := make(map[int][]*template.Expanded, len(chain))
	for _, p := range chain {
		perNode[p] = rn.expanded[p]
	}

	res := &validate.Resolved{ID: id, Eff: eff}
	for _, x := range template.Collect(chain, perNode) {
		fig, ok := rn.calc.Compute(x, eff)
		if !ok {
			continue
		}
		res.Entries = append(res.Entries, validate.Entry{Recipe: x, Figure: fig})
	}
	return res
}
