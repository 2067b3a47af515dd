package ast

// Walk traverses the tree rooted at n in depth-first pre-order, calling
// visit for each node. If visit returns false the node's children are
// skipped.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// Leaves appends all leaf nodes under n to dst in document order and
// returns the extended slice.
func Leaves(n *Node, dst []*Node) []*Node {
	Walk(n, func(m *Node) bool {
		if m.IsLeaf() {
			dst = append(dst, m)
		}
		return true
	})
	return dst
}

// NodeAt returns the smallest node whose span contains the byte offset, or
// nil if the offset lies outside the root's span. The walk is top-down by
// span containment; the tree stores no parent pointers.
func NodeAt(root *Node, offset int) *Node {
	if root == nil || !root.Contains(offset) {
		return nil
	}
	n := root
outer:
	for {
		for _, c := range n.Children {
			if c.Contains(offset) {
				n = c
				continue outer
			}
		}
		return n
	}
}

// PathTo returns the chain of nodes from root down to the smallest node
// containing the offset, root first. Returns nil if the offset is outside
// the root's span.
func PathTo(root *Node, offset int) []*Node {
	if root == nil || !root.Contains(offset) {
		return nil
	}
	var path []*Node
	n := root
outer:
	for {
		path = append(path, n)
		for _, c := range n.Children {
			if c.Contains(offset) {
				n = c
				continue outer
			}
		}
		return path
	}
}
