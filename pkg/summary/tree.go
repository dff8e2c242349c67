package summary

import "strings"

// RootKey is the tree key grouping files that live at the project root.
const RootKey = ""

// Node is one tree entry: a file leaf or a nested directory group.
type Node struct {
	File *FileSummary
	Dir  *Group
}

// Group is an ordered mapping from entry name to node.
type Group struct {
	names []string
	nodes map[string]*Node
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	return &Group{nodes: make(map[string]*Node)}
}

// Put stores a node under name, appending to the order if the name is new.
func (g *Group) Put(name string, n *Node) {
	if _, ok := g.nodes[name]; !ok {
		g.names = append(g.names, name)
	}
	g.nodes[name] = n
}

// Names returns entry names in insertion order.
func (g *Group) Names() []string {
	return g.names
}

// Node returns the entry stored under name, or nil.
func (g *Group) Node(name string) *Node {
	return g.nodes[name]
}

// Len reports the number of entries in the group.
func (g *Group) Len() int {
	return len(g.names)
}

// Tree is the two-level regrouping of a flat summary: top-level keys are
// directory paths (or RootKey for files without one), each holding the base
// filenames beneath it. Order follows the flat summary's insertion order.
type Tree struct {
	keys   []string
	groups map[string]*Group
}

// Keys returns top-level keys in first-seen order.
func (t *Tree) Keys() []string {
	return t.keys
}

// Group returns the group stored under key, or nil.
func (t *Tree) Group(key string) *Group {
	return t.groups[key]
}

func (t *Tree) group(key string) *Group {
	g, ok := t.groups[key]
	if !ok {
		g = NewGroup()
		t.groups[key] = g
		t.keys = append(t.keys, key)
	}
	return g
}

// BuildTree reshapes a flat summary into the two-level tree and extracts
// the project total. Each file path lands under exactly one
// (directory, filename) pair: the split is on the last slash.
func BuildTree(s *ProjectSummary) (*Tree, *FileSummary) {
	t := &Tree{groups: make(map[string]*Group)}
	for _, path := range s.Paths() {
		fs, _ := s.Get(path)
		dir, name := splitPath(path)
		t.group(dir).Put(name, &Node{File: fs})
	}
	return t, s.Total()
}

func splitPath(path string) (dir, name string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return RootKey, path
	}
	return path[:idx], path[idx+1:]
}
