package rendercore

import (
	"fmt"

	"github.com/go-drift/mountcore/pkg/errors"
	"github.com/go-drift/mountcore/pkg/geometry"
)

// TreeNode is a positioned node of a computed render tree. It is immutable
// once created.
type TreeNode struct {
	key       string
	parentKey string
	unit      RenderUnit
	bounds    geometry.Rect
	position  int
}

// NewTreeNode creates a node. An empty parentKey attaches the node to the
// root host.
func NewTreeNode(key, parentKey string, unit RenderUnit, bounds geometry.Rect) *TreeNode {
	return &TreeNode{
		key:       key,
		parentKey: parentKey,
		unit:      unit,
		bounds:    bounds,
		position:  -1,
	}
}

// Key returns the matching key used to pair nodes across generations.
func (n *TreeNode) Key() string {
	return n.key
}

// ParentKey returns the key of the parent node, or "" for the root level.
func (n *TreeNode) ParentKey() string {
	return n.parentKey
}

// Unit returns the node's render unit.
func (n *TreeNode) Unit() RenderUnit {
	return n.unit
}

// Bounds returns the resolved geometry.
func (n *TreeNode) Bounds() geometry.Rect {
	return n.bounds
}

// Position returns the node's index in tree order, or -1 if the node does
// not belong to a tree yet.
func (n *TreeNode) Position() int {
	return n.position
}

func (n *TreeNode) String() string {
	name := "<nil>"
	if n.unit != nil {
		name = n.unit.Name()
	}
	return fmt.Sprintf("%s(%s %v)", n.key, name, n.bounds)
}

// RenderTree is one generation of the computed tree, in tree order: every
// parent precedes its children.
type RenderTree struct {
	nodes []*TreeNode
	index map[string]*TreeNode
}

// EmptyTree returns a tree with no nodes. Mounting it unmounts everything.
func EmptyTree() *RenderTree {
	return &RenderTree{index: map[string]*TreeNode{}}
}

// NewRenderTree validates nodes and builds a tree from them. Nodes are
// copied, so the same node value may be reused across generations.
func NewRenderTree(nodes ...*TreeNode) (*RenderTree, error) {
	tree := &RenderTree{
		nodes: make([]*TreeNode, 0, len(nodes)),
		index: make(map[string]*TreeNode, len(nodes)),
	}
	for i, node := range nodes {
		if node == nil || node.unit == nil {
			return nil, invalidTree(nodeKey(node), errors.ErrNilUnit)
		}
		if node.key == "" {
			return nil, invalidTree("", errors.ErrEmptyKey)
		}
		if _, dup := tree.index[node.key]; dup {
			return nil, invalidTree(node.key, errors.ErrDuplicateKey)
		}
		if node.parentKey != "" {
			if _, ok := tree.index[node.parentKey]; !ok {
				return nil, invalidTree(node.key, fmt.Errorf("%w: parent %q", errors.ErrParentOrder, node.parentKey))
			}
		}
		copied := *node
		copied.position = i
		tree.nodes = append(tree.nodes, &copied)
		tree.index[node.key] = &copied
	}
	return tree, nil
}

// MustRenderTree is like NewRenderTree but panics on an invalid tree.
func MustRenderTree(nodes ...*TreeNode) *RenderTree {
	tree, err := NewRenderTree(nodes...)
	if err != nil {
		panic(err)
	}
	return tree
}

// Len returns the number of nodes.
func (t *RenderTree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Nodes returns the nodes in tree order. The slice must not be modified.
func (t *RenderTree) Nodes() []*TreeNode {
	if t == nil {
		return nil
	}
	return t.nodes
}

// Node returns the node with the given key.
func (t *RenderTree) Node(key string) (*TreeNode, bool) {
	if t == nil {
		return nil, false
	}
	node, ok := t.index[key]
	return node, ok
}

func nodeKey(node *TreeNode) string {
	if node == nil {
		return ""
	}
	return node.key
}

func invalidTree(key string, err error) *errors.MountError {
	return &errors.MountError{
		Op:   "rendercore.NewRenderTree",
		Kind: errors.KindInvalidTree,
		Key:  key,
		Err:  err,
	}
}
