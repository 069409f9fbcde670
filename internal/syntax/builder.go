package syntax

// Builder assembles a Tree. Nodes are appended in document order: Open starts
// a composite node, Leaf adds a childless node, Close ends the innermost open
// node. Finish closes whatever is still open and returns the tree.
type Builder struct {
	tree  *Tree
	stack []NodeID
}

// NewBuilder returns a builder for src with the root node already open.
func NewBuilder(src string) *Builder {
	b := &Builder{tree: &Tree{src: src}}
	root := b.add(TagRoot, 0, len(src), 0)
	b.stack = append(b.stack, root)

	return b
}

func (b *Builder) add(tag Tag, start, end int, flags Flags) NodeID {
	id := NodeID(len(b.tree.nodes))
	n := node{
		tag:        tag,
		flags:      flags,
		start:      start,
		end:        end,
		parent:     NoNode,
		firstChild: NoNode,
		lastChild:  NoNode,
		prev:       NoNode,
		next:       NoNode,
	}

	if len(b.stack) > 0 {
		parent := b.stack[len(b.stack)-1]
		n.parent = parent

		p := &b.tree.nodes[parent]
		if p.lastChild == NoNode {
			p.firstChild = id
		} else {
			n.prev = p.lastChild
			b.tree.nodes[p.lastChild].next = id
		}

		p.lastChild = id
	}

	b.tree.nodes = append(b.tree.nodes, n)

	return id
}

// Open starts a composite node at start. Its end is set by Close.
func (b *Builder) Open(tag Tag, start int) NodeID {
	id := b.add(tag, start, start, 0)
	b.stack = append(b.stack, id)

	return id
}

// Leaf adds a node without children to the innermost open node.
func (b *Builder) Leaf(tag Tag, start, end int, flags Flags) NodeID {
	return b.add(tag, start, end, flags)
}

// SetFlags adds flags to an already added node.
func (b *Builder) SetFlags(id NodeID, flags Flags) {
	b.tree.nodes[id].flags |= flags
}

// Close ends the innermost open node at end. The root is never closed.
func (b *Builder) Close(end int) {
	if len(b.stack) <= 1 {
		return
	}

	id := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.tree.nodes[id].end = end
}

// Depth returns the number of open nodes, the root included.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// Finish closes all open nodes at the end of the source and returns the tree.
// The builder must not be used afterwards.
func (b *Builder) Finish() *Tree {
	for len(b.stack) > 1 {
		b.Close(len(b.tree.src))
	}

	t := b.tree
	b.tree = nil
	b.stack = nil

	return t
}
