package storage

import "github.com/town-square/api-go/models"

// BuildCommentNodes turns the flat closure-edge list into one node per
// visible comment, each carrying the edge to its direct parent. The closure
// table has no depth column, so the direct parent of a comment is recovered
// as the ancestor whose own ancestor set is exactly one element smaller.
// Edges must cover the whole post so the depth arithmetic stays correct even
// when some comments are filtered out of the visible set; node order follows
// the comments slice.
func BuildCommentNodes(comments []models.Comment, edges []models.CommentClosure) []models.CommentNode {
	ancestors := make(map[uint][]uint)
	for _, e := range edges {
		ancestors[e.ChildCommentID] = append(ancestors[e.ChildCommentID], e.ParentCommentID)
	}

	nodes := make([]models.CommentNode, 0, len(comments))
	for _, c := range comments {
		parent := c.ID
		want := len(ancestors[c.ID]) - 1
		for _, a := range ancestors[c.ID] {
			if a != c.ID && len(ancestors[a]) == want {
				parent = a
				break
			}
		}

		nodes = append(nodes, models.CommentNode{
			Comment:         c.Sanitized(),
			ParentCommentID: parent,
			ChildCommentID:  c.ID,
		})
	}

	return nodes
}
