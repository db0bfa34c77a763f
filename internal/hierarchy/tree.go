package hierarchy

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/registry"
)

// NoParent marks a root node.
const NoParent = -1

// NodeKind tells producers and machines apart.
type NodeKind int

const (
	KindProducer NodeKind = iota
	KindMachine
)

func (k NodeKind) String() string {
	if k == KindMachine {
		return "machine"
	}
	return "producer"
}

// Node is one producer or machine in the arena.
type Node struct {
	ID       int
	Name     string
	Kind     NodeKind
	Parent   int
	Base     *ast.Ident
	Body     *ast.Body
	Range    hcl.Range
	Children []int

	// Broken is set when the node or one of its ancestors has an unknown
	// base or sits on a cycle.
	Broken bool
}

// IsMachine reports whether the node is a leaf machine.
func (n *Node) IsMachine() bool { return n.Kind == KindMachine }

// Tree is the arena of all declared producers and machines.
type Tree struct {
	nodes  []Node
	byName map[string]int
}

// Build creates the tree for every producer and machine in f. Problems are
// reported to c: DuplicateDeclarationError, UnknownBaseError and
// InheritanceCycleError. Bases may be declared after the nodes using them.
func Build(f *ast.File, c *diag.Collector) *Tree {
	t := &Tree{byName: make(map[string]int)}

	for _, block := range f.Blocks {
		switch b := block.(type) {
		case *ast.ProducerDecl:
			t.add(b.Name, KindProducer, b.Base, &b.Body, b.SrcRange, c)
		case *ast.MachineDecl:
			t.add(b.Name, KindMachine, b.Base, &b.Body, b.SrcRange, c)
		}
	}

	t.link(c)
	t.detectCycles(c)
	t.propagateBroken()

	for id := range t.nodes {
		n := &t.nodes[id]
		if !n.Broken && n.Parent != NoParent {
			parent := &t.nodes[n.Parent]
			parent.Children = append(parent.Children, id)
		}
	}
	return t
}

func (t *Tree) add(name ast.Ident, kind NodeKind, base *ast.Ident, body *ast.Body, rng hcl.Range, c *diag.Collector) {
	if prev, dup := t.byName[name.Name]; dup {
		c.Add(&diag.DuplicateDeclarationError{
			Subject:  name.SrcRange,
			What:     kind.String(),
			Name:     name.Name,
			Previous: t.nodes[prev].Range,
		})
		return
	}
	id := len(t.nodes)
	t.nodes = append(t.nodes, Node{
		ID:     id,
		Name:   name.Name,
		Kind:   kind,
		Parent: NoParent,
		Base:   base,
		Body:   body,
		Range:  rng,
	})
	t.byName[name.Name] = id
}

func (t *Tree) link(c *diag.Collector) {
	for id := range t.nodes {
		n := &t.nodes[id]
		if n.Base == nil {
			continue
		}
		parent, ok := t.byName[n.Base.Name]
		switch {
		case !ok:
			c.Add(&diag.UnknownBaseError{
				Subject:    n.Base.SrcRange,
				Node:       n.Name,
				Base:       n.Base.Name,
				Suggestion: registry.Closest(n.Base.Name, t.producerNames()),
			})
			n.Broken = true
		case t.nodes[parent].IsMachine():
			c.Add(&diag.UnknownBaseError{
				Subject: n.Base.SrcRange,
				Node:    n.Name,
				Base:    n.Base.Name,
				Reason:  "is a machine and cannot be extended",
			})
			n.Broken = true
		default:
			n.Parent = parent
		}
	}
}

func (t *Tree) producerNames() []string {
	var out []string
	for _, n := range t.nodes {
		if !n.IsMachine() {
			out = append(out, n.Name)
		}
	}
	return out
}

// detectCycles walks every parent chain once. Each node found on a loop is
// reported with the loop listed from that node onwards.
func (t *Tree) detectCycles(c *diag.Collector) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(t.nodes))

	for start := range t.nodes {
		if state[start] != unvisited {
			continue
		}
		var path []int
		id := start
		for id != NoParent && state[id] == unvisited {
			state[id] = visiting
			path = append(path, id)
			id = t.nodes[id].Parent
		}
		if id != NoParent && state[id] == visiting {
			loopStart := 0
			for i, p := range path {
				if p == id {
					loopStart = i
					break
				}
			}
			loop := path[loopStart:]
			for i, member := range loop {
				cycle := make([]string, 0, len(loop)+1)
				for j := range loop {
					cycle = append(cycle, t.nodes[loop[(i+j)%len(loop)]].Name)
				}
				cycle = append(cycle, t.nodes[member].Name)
				n := &t.nodes[member]
				c.Add(&diag.InheritanceCycleError{Subject: n.Base.SrcRange, Node: n.Name, Cycle: cycle})
				n.Broken = true
			}
		}
		for _, p := range path {
			state[p] = done
		}
	}
}

// propagateBroken excludes every node that descends from a broken node.
func (t *Tree) propagateBroken() {
	for id := range t.nodes {
		if t.nodes[id].Broken {
			continue
		}
		for p := t.nodes[id].Parent; p != NoParent; p = t.nodes[p].Parent {
			if t.nodes[p].Broken {
				t.nodes[id].Broken = true
				break
			}
		}
	}
}

// Len returns the number of nodes in the arena, broken ones included.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id. The node must not be modified.
func (t *Tree) Node(id int) *Node { return &t.nodes[id] }

// Lookup finds a node by name.
func (t *Tree) Lookup(name string) (int, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Roots returns the healthy root nodes in declaration order.
func (t *Tree) Roots() []int {
	var out []int
	for id, n := range t.nodes {
		if !n.Broken && n.Parent == NoParent {
			out = append(out, id)
		}
	}
	return out
}

// Machines returns the healthy machines in declaration order.
func (t *Tree) Machines() []int {
	var out []int
	for id, n := range t.nodes {
		if !n.Broken && n.IsMachine() {
			out = append(out, id)
		}
	}
	return out
}

// Chain returns the ancestor chain of id ordered from the root down to id.
// It must only be called for healthy nodes.
func (t *Tree) Chain(id int) []int {
	var rev []int
	for p := id; p != NoParent; p = t.nodes[p].Parent {
		rev = append(rev, p)
	}
	out := make([]int, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

// Subtree lists root and all its descendants, parents before children.
func (t *Tree) Subtree(root int) []int {
	out := []int{root}
	for i := 0; i < len(out); i++ {
		out = append(out, t.nodes[out[i]].Children...)
	}
	return out
}
