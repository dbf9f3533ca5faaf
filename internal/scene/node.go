package scene

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/playtest-dev/tictactoe-automation/internal/apperror"
)

// Node is one element of the logical UI tree. Drivers address nodes by
// absolute slash-separated paths such as
// /root/Game/VBoxContainer/GameBoard/GridContainer/Cell4.
type Node struct {
	Name  string
	Class string

	properties map[string]any
	children   []*Node
	parent     *Node

	// onClick runs when a driver simulates a click on this node.
	onClick func()
}

func newNode(name, class string) *Node {
	return &Node{
		Name:       name,
		Class:      class,
		properties: map[string]any{"visible": true},
	}
}

func (that *Node) addChild(child *Node) *Node {
	child.parent = that
	that.children = append(that.children, child)

	return child
}

// Path returns the absolute path of the node, starting at /root.
func (that *Node) Path() string {
	if that.parent == nil {
		return "/" + that.Name
	}

	return that.parent.Path() + "/" + that.Name
}

// Property reads a display property ("text", "visible"). Unknown names
// report a not-found error rather than a zero value.
func (that *Node) Property(name string) (any, error) {
	value, ok := that.properties[name]
	if !ok {
		return nil, fmt.Errorf("%w: property %q on %s", apperror.ErrNodeNotFound, name, that.Path())
	}

	return value, nil
}

func (that *Node) setProperty(name string, value any) {
	that.properties[name] = value
}

// Text is a convenience accessor for the "text" property of labels and
// buttons.
func (that *Node) Text() string {
	text, _ := that.properties["text"].(string)

	return text
}

// Tree is the root of the node hierarchy plus an index of absolute paths.
type Tree struct {
	root  *Node
	index map[string]*Node
}

func newTree(root *Node) *Tree {
	tree := &Tree{
		root:  root,
		index: make(map[string]*Node),
	}
	tree.reindex(root)

	return tree
}

func (that *Tree) reindex(node *Node) {
	that.index[node.Path()] = node
	for _, child := range node.children {
		that.reindex(child)
	}
}

// Resolve maps an absolute node path to its node.
func (that *Tree) Resolve(nodePath string) (*Node, error) {
	node, ok := that.index[strings.TrimSuffix(nodePath, "/")]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNodeNotFound, nodePath)
	}

	return node, nil
}

// Exists reports whether a node path resolves.
func (that *Tree) Exists(nodePath string) bool {
	_, err := that.Resolve(nodePath)

	return err == nil
}

// Query returns the paths of all nodes whose name matches the glob
// pattern, e.g. "*Cell*". Results are sorted for stable output.
func (that *Tree) Query(pattern string) []string {
	var matches []string

	for nodePath, node := range that.index {
		if ok, err := path.Match(pattern, node.Name); err == nil && ok {
			matches = append(matches, nodePath)
		}
	}

	sort.Strings(matches)

	return matches
}

// Count returns the number of nodes matching the glob pattern.
func (that *Tree) Count(pattern string) int {
	return len(that.Query(pattern))
}
