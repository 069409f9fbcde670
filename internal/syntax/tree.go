// Package syntax provides an immutable, arena-backed parse tree.
//
// A Tree is a snapshot of one parsed source unit. Nodes are addressed by
// NodeID and linked by index (parent, first child, siblings), so a tree can be
// shared between goroutines and queried without locking. Node tags are plain
// integers; each dialect defines its own tag set above TagDialect.
package syntax

import (
	"errors"
	"fmt"
	"sort"
)

// NodeID addresses a node inside a Tree.
type NodeID int32

// NoNode is returned by navigation methods when there is no such node.
const NoNode NodeID = -1

// Tag classifies a node.
type Tag uint16

const (
	// TagRoot marks the root node of every tree.
	TagRoot Tag = iota
	// TagLine marks one physical source line; lines are the root's children.
	TagLine
	// TagComment marks comment text.
	TagComment
	// TagError marks text the scanner could not classify.
	TagError

	// TagDialect is the first tag value available to dialects.
	TagDialect Tag = 16
)

// Flags carries parser-computed facts about a node.
type Flags uint8

const (
	// FlagNegative marks a local-label usage preceded by a unary minus.
	FlagNegative Flags = 1 << iota
	// FlagExternal marks a definition supplied from outside the source (e.g. REF).
	FlagExternal
)

// ErrNodeNotInTree is returned when a query names a node the tree does not own.
var ErrNodeNotInTree = errors.New("node is not part of this tree")

type node struct {
	tag        Tag
	flags      Flags
	start      int
	end        int
	parent     NodeID
	firstChild NodeID
	lastChild  NodeID
	prev       NodeID
	next       NodeID
}

// Tree is an immutable parse tree over a source text.
type Tree struct {
	src   string
	nodes []node
}

// Source returns the text the tree was built from.
func (t *Tree) Source() string {
	return t.src
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the root node.
func (t *Tree) Root() NodeID {
	return 0
}

// Valid reports whether id addresses a node of this tree.
func (t *Tree) Valid(id NodeID) bool {
	return t != nil && id >= 0 && int(id) < len(t.nodes)
}

// Tag returns the node's tag.
func (t *Tree) Tag(id NodeID) Tag {
	return t.nodes[id].tag
}

// Flags returns the node's flags.
func (t *Tree) Flags(id NodeID) Flags {
	return t.nodes[id].flags
}

// Has reports whether all of the given flags are set on the node.
func (t *Tree) Has(id NodeID, f Flags) bool {
	return t.nodes[id].flags&f == f
}

// Span returns the node's half-open byte range.
func (t *Tree) Span(id NodeID) (start, end int) {
	n := t.nodes[id]
	return n.start, n.end
}

// Start returns the offset of the node's first character.
func (t *Tree) Start(id NodeID) int {
	return t.nodes[id].start
}

// Text returns the source text covered by the node.
func (t *Tree) Text(id NodeID) string {
	n := t.nodes[id]
	return t.src[n.start:n.end]
}

// Parent returns the node's parent, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// FirstChild returns the node's first child, or NoNode.
func (t *Tree) FirstChild(id NodeID) NodeID {
	return t.nodes[id].firstChild
}

// NextSibling returns the node's next sibling, or NoNode.
func (t *Tree) NextSibling(id NodeID) NodeID {
	return t.nodes[id].next
}

// PrevSibling returns the node's previous sibling, or NoNode.
func (t *Tree) PrevSibling(id NodeID) NodeID {
	return t.nodes[id].prev
}

// Children returns the node's children in document order.
func (t *Tree) Children(id NodeID) []NodeID {
	var children []NodeID
	for c := t.nodes[id].firstChild; c != NoNode; c = t.nodes[c].next {
		children = append(children, c)
	}

	return children
}

// Lines returns the root's line nodes in document order.
func (t *Tree) Lines() []NodeID {
	return t.Children(t.Root())
}

// Walk visits the subtree rooted at id in pre-order (document order).
// Returning false from fn skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !t.Valid(id) {
		return
	}

	if !fn(id) {
		return
	}

	for c := t.nodes[id].firstChild; c != NoNode; c = t.nodes[c].next {
		t.Walk(c, fn)
	}
}

// NodeAt returns the innermost node whose span contains offset, or the root
// when no line covers it.
func (t *Tree) NodeAt(offset int) NodeID {
	if t == nil || len(t.nodes) == 0 {
		return NoNode
	}

	current := t.Root()
	for {
		next := NoNode
		for c := t.nodes[current].firstChild; c != NoNode; c = t.nodes[c].next {
			n := t.nodes[c]
			if n.start <= offset && offset < n.end {
				next = c
				break
			}
		}

		if next == NoNode {
			return current
		}

		current = next
	}
}

// LineStart returns the offset of the first token of the physical line
// containing the node. Leading blanks are not part of it, so an indented
// label and a column-one label anchor their line the same way. A line
// without tokens anchors at its own start.
func (t *Tree) LineStart(id NodeID) (int, error) {
	if !t.Valid(id) {
		return 0, fmt.Errorf("line start of node %d: %w", id, ErrNodeNotInTree)
	}

	if id == t.Root() {
		return 0, nil
	}

	for t.nodes[id].parent != t.Root() {
		id = t.nodes[id].parent
		if id == NoNode {
			return 0, fmt.Errorf("line start: %w", ErrNodeNotInTree)
		}
	}

	if first := t.nodes[id].firstChild; first != NoNode {
		return t.nodes[first].start, nil
	}

	return t.nodes[id].start, nil
}

// LineAt returns the line node containing offset, or NoNode when the offset
// lies outside every line.
func (t *Tree) LineAt(offset int) NodeID {
	lines := t.Lines()
	i := sort.Search(len(lines), func(i int) bool {
		return t.nodes[lines[i]].end >= offset
	})

	if i < len(lines) && t.nodes[lines[i]].start <= offset {
		return lines[i]
	}

	return NoNode
}
