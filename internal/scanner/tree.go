package scanner

import "github.com/inkwellapp/inkwell-server/internal/domain"

// CountFiles returns the number of file nodes in a tree.
func CountFiles(nodes []*domain.TreeNode) int {
	n := 0
	domain.Walk(nodes, func(node *domain.TreeNode) {
		if !node.IsFolder() {
			n++
		}
	})
	return n
}
