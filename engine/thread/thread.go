// Package thread reconstructs comment trees from flat, parent-linked comment
// lists, either for a whole post or scoped to one highlighted comment.
package thread

import (
	"fmt"
	"strconv"

	"github.com/lemmylite/lemmy-lite/engine/domain"
	"github.com/lemmylite/lemmy-lite/pkg/fn"
)

// Node is one comment in a reconstructed tree. Depth is 0 for roots and
// Class is DepthClass(Depth), the bounded nesting hint for renderers.
type Node struct {
	Comment     domain.Comment `json:"comment"`
	Depth       int            `json:"depth"`
	Class       string         `json:"depth_class"`
	Highlighted bool           `json:"highlighted,omitempty"`
	Children    []*Node        `json:"children"`
}

// DepthClass returns the bounded nesting class for a depth: "r" for roots,
// then "0".."5" cycling.
func DepthClass(depth int) string {
	if depth <= 0 {
		return "r"
	}
	return strconv.Itoa((depth - 1) % 6)
}

func newNode(c domain.Comment, depth int) *Node {
	return &Node{Comment: c, Depth: depth, Class: DepthClass(depth)}
}

// Build turns comments into a forest. Siblings keep their relative input order.
//
// With a nil root, top-level comments and comments whose parent is missing
// from the input are roots, and every unique comment appears exactly once.
// With a non-nil root, only the subtrees hanging off that parent id are built.
// Duplicate ids keep their first occurrence.
func Build(comments []domain.Comment, root *int64) []*Node {
	uniq := fn.UniqueBy(comments, func(c domain.Comment) int64 { return c.ID })
	present := make(map[int64]bool, len(uniq))
	for _, c := range uniq {
		present[c.ID] = true
	}

	order := make([]int, len(uniq))
	for i := range uniq {
		order[i] = i
	}
	linked := fn.Filter(order, func(i int) bool { return uniq[i].ParentID != nil })
	children := fn.GroupBy(linked, func(i int) int64 { return *uniq[i].ParentID })

	isRoot := func(c domain.Comment) bool {
		if root != nil {
			return c.ParentID != nil && *c.ParentID == *root
		}
		return c.ParentID == nil || !present[*c.ParentID]
	}

	visited := make([]bool, len(uniq))
	var forest []*Node
	var stack []*Node

	expand := func() {
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, ci := range children[n.Comment.ID] {
				if visited[ci] {
					continue
				}
				visited[ci] = true
				child := newNode(uniq[ci], n.Depth+1)
				n.Children = append(n.Children, child)
				stack = append(stack, child)
			}
		}
	}

	for i, c := range uniq {
		if !isRoot(c) {
			continue
		}
		visited[i] = true
		n := newNode(c, 0)
		forest = append(forest, n)
		stack = append(stack, n)
	}
	expand()

	if root == nil {
		// Comments only reachable through a parent cycle are promoted to
		// roots so nothing is dropped.
		for i, c := range uniq {
			if visited[i] {
				continue
			}
			visited[i] = true
			n := newNode(c, 0)
			forest = append(forest, n)
			stack = append(stack, n)
			expand()
		}
	}
	return forest
}

// BuildHighlighted builds the permalink view of comment id: its ancestor chain
// up to the first root or unresolvable parent, the comment itself, and all of
// its descendants. The highlighted node is marked. It returns
// domain.ErrCommentNotFound when id is not in comments.
func BuildHighlighted(comments []domain.Comment, id int64) ([]*Node, error) {
	uniq := fn.UniqueBy(comments, func(c domain.Comment) int64 { return c.ID })
	byID := make(map[int64]domain.Comment, len(uniq))
	for _, c := range uniq {
		byID[c.ID] = c
	}

	target, ok := byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrCommentNotFound, id)
	}

	keep := map[int64]bool{id: true}
	for cur := target; cur.ParentID != nil; {
		parent, ok := byID[*cur.ParentID]
		if !ok || keep[parent.ID] {
			break
		}
		keep[parent.ID] = true
		cur = parent
	}

	linked := fn.Filter(uniq, func(c domain.Comment) bool { return c.ParentID != nil })
	children := fn.GroupBy(linked, func(c domain.Comment) int64 { return *c.ParentID })
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if keep[c.ID] {
				continue
			}
			keep[c.ID] = true
			queue = append(queue, c.ID)
		}
	}

	pruned := fn.Filter(uniq, func(c domain.Comment) bool { return keep[c.ID] })
	forest := Build(pruned, nil)
	if n := Find(forest, id); n != nil {
		n.Highlighted = true
	}
	return forest, nil
}

// Walk visits every node in depth-first pre-order, siblings in order.
func Walk(forest []*Node, visit func(*Node)) {
	stack := make([]*Node, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Count returns the total number of nodes in the forest.
func Count(forest []*Node) int {
	n := 0
	Walk(forest, func(*Node) { n++ })
	return n
}

// Find returns the node for comment id, or nil.
func Find(forest []*Node, id int64) *Node {
	var found *Node
	Walk(forest, func(n *Node) {
		if found == nil && n.Comment.ID == id {
			found = n
		}
	})
	return found
}
