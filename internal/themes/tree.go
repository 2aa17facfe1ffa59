// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package themes

import "github.com/pdiddy/litreview/pkg/types"

// ThemeNode is a theme and its sub-themes.
type ThemeNode struct {
	Theme    types.Theme
	Children []*ThemeNode
}

// Tree arranges themes into their hierarchy. Roots and children keep input
// order. A theme whose parent is not in the list is treated as a root.
func Tree(themes []types.Theme) []*ThemeNode {
	nodes := make(map[int64]*ThemeNode, len(themes))
	for _, t := range themes {
		nodes[t.ID] = &ThemeNode{Theme: t}
	}

	var roots []*ThemeNode
	for _, t := range themes {
		node := nodes[t.ID]
		if t.ParentID != nil {
			if parent, ok := nodes[*t.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// Walk visits every node depth first, passing its depth from 0.
func Walk(roots []*ThemeNode, fn func(node *ThemeNode, depth int)) {
	var visit func(nodes []*ThemeNode, depth int)
	visit = func(nodes []*ThemeNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(roots, 0)
}
