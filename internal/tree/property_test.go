package tree_test

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/blueprintlab/studio/internal/apperr"
	"github.com/blueprintlab/studio/internal/store"
)

// TestMoveSequenceProperty drives random move sequences against a fixed set
// of sibling pages and checks the ordering invariants: no node is lost or
// duplicated, sibling sorts stay unique, and every child's path extends its
// parent's.
func TestMoveSequenceProperty(t *testing.T) {
	svc, s := setupService(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	const pageCount = 5

	properties.Property("random moves keep sibling order consistent", prop.ForAll(
		func(ops []int) bool {
			p := setupProject(t, s)
			app, err := svc.CreateNode(ctx, p.ID, nil, store.NodeTypeApplication, "App", "", "alice", "Alice")
			require.NoError(t, err)

			pages := make([]*store.Node, pageCount)
			for i := range pages {
				pages[i], err = svc.CreateNode(ctx, p.ID, &app.ID, store.NodeTypePage,
					string(rune('A'+i)), "", "alice", "Alice")
				require.NoError(t, err)
			}

			// Each op encodes a node index and a target position: 0 means
			// first, 1..pageCount means after that page.
			for _, op := range ops {
				node := pages[op/(pageCount+1)]
				var after *string
				if pos := op % (pageCount + 1); pos > 0 {
					after = &pages[pos-1].ID
				}
				_, err := svc.MoveNode(ctx, node.ID, &app.ID, after, "alice", "Alice")
				if after != nil && *after == node.ID {
					// A node cannot anchor its own move; the tree is untouched.
					if !errors.Is(err, apperr.ErrValidation) {
						return false
					}
					continue
				}
				if err != nil {
					return false
				}
			}

			children, err := s.Children(ctx, app.ID)
			require.NoError(t, err)
			if len(children) != pageCount {
				return false
			}
			seen := make(map[string]bool, pageCount)
			lastSort := -1
			for _, c := range children {
				if seen[c.ID] || c.Sort <= lastSort {
					return false
				}
				seen[c.ID] = true
				lastSort = c.Sort
				if c.ParentID == nil || *c.ParentID != app.ID ||
					c.Path != app.Path+"/node_"+c.ID {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.IntRange(0, pageCount*(pageCount+1)-1)),
	))

	properties.TestingRun(t)
}
