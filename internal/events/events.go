// Package events counts the entries of a named tree in a ROOT file.
package events

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/mesh-intelligence/radonledger/pkg/types"
)

// Counter returns the number of events in a file.
type Counter interface {
	Count(path string) (int64, error)
}

// TreeCounter counts the entries of Tree.
type TreeCounter struct {
	Tree string
}

// NewTreeCounter returns a counter for the named tree, defaulting to
// types.DefaultTree.
func NewTreeCounter(tree string) TreeCounter {
	if tree == "" {
		tree = types.DefaultTree
	}
	return TreeCounter{Tree: tree}
}

// Count opens path and returns the entry count of the tree.
// Returns ErrTreeNotFound if the file has no such tree.
func (c TreeCounter) Count(path string) (int64, error) {
	f, err := groot.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	obj, err := f.Get(c.Tree)
	if err != nil {
		return 0, fmt.Errorf("%w: %s in %s: %v", types.ErrTreeNotFound, c.Tree, path, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return 0, fmt.Errorf("%w: %s in %s is a %s", types.ErrTreeNotFound, c.Tree, path, obj.Class())
	}
	return tree.Entries(), nil
}

// Func adapts a function to Counter.
type Func func(path string) (int64, error)

// Count calls f.
func (f Func) Count(path string) (int64, error) { return f(path) }
