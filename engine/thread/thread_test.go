package thread

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemmylite/lemmy-lite/engine/domain"
)

func c(id int64, parent ...int64) domain.Comment {
	cm := domain.Comment{ID: id, PostID: 1}
	if len(parent) > 0 {
		p := parent[0]
		cm.ParentID = &p
	}
	return cm
}

func ids(nodes []*Node) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.Comment.ID
	}
	return out
}

func scenario() []domain.Comment {
	return []domain.Comment{c(1), c(2, 1), c(3, 1), c(4, 2)}
}

func TestBuild_Scenario(t *testing.T) {
	forest := Build(scenario(), nil)
	require.Len(t, forest, 1)
	root := forest[0]
	assert.Equal(t, int64(1), root.Comment.ID)
	assert.Equal(t, []int64{2, 3}, ids(root.Children))
	assert.Equal(t, []int64{4}, ids(root.Children[0].Children))
	assert.Empty(t, root.Children[1].Children)

	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, 1, root.Children[0].Depth)
	assert.Equal(t, 2, root.Children[0].Children[0].Depth)
}

func TestBuild_PreservesSiblingOrder(t *testing.T) {
	comments := []domain.Comment{c(10), c(7, 10), c(3, 10), c(9, 10), c(1)}
	forest := Build(comments, nil)
	assert.Equal(t, []int64{10, 1}, ids(forest))
	assert.Equal(t, []int64{7, 3, 9}, ids(forest[0].Children))
}

func TestBuild_ChildBeforeParentInInput(t *testing.T) {
	comments := []domain.Comment{c(4, 2), c(2, 1), c(1)}
	forest := Build(comments, nil)
	require.Len(t, forest, 1)
	assert.Equal(t, 3, Count(forest))
	assert.NotNil(t, Find(forest, 4))
	assert.Equal(t, 2, Find(forest, 4).Depth)
}

func TestBuild_DanglingParentBecomesRoot(t *testing.T) {
	comments := []domain.Comment{c(5, 99), c(6, 5), c(7)}
	forest := Build(comments, nil)
	assert.Equal(t, []int64{5, 7}, ids(forest))
	assert.Equal(t, []int64{6}, ids(forest[0].Children))
}

func TestBuild_RootedAtParent(t *testing.T) {
	forest := Build(scenario(), ptr(int64(1)))
	assert.Equal(t, []int64{2, 3}, ids(forest))
	assert.Equal(t, 0, forest[0].Depth)
	assert.Equal(t, []int64{4}, ids(forest[0].Children))
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(nil, nil))
	assert.Equal(t, 0, Count(nil))
}

func TestBuild_DuplicateIDsKeepFirst(t *testing.T) {
	first := c(2, 1)
	first.Content = "first"
	dup := c(2, 1)
	dup.Content = "dup"
	forest := Build([]domain.Comment{c(1), first, dup}, nil)
	assert.Equal(t, 2, Count(forest))
	assert.Equal(t, "first", Find(forest, 2).Comment.Content)
}

func TestBuild_CycleDoesNotDropComments(t *testing.T) {
	comments := []domain.Comment{c(1, 2), c(2, 1), c(3, 2), c(4, 4)}
	forest := Build(comments, nil)
	assert.Equal(t, 4, Count(forest))
	assert.Equal(t, []int64{1, 4}, ids(forest))
}

func TestBuild_DeepChainIsIterative(t *testing.T) {
	const depth = 200000
	comments := make([]domain.Comment, depth)
	comments[0] = c(1)
	for i := 1; i < depth; i++ {
		comments[i] = c(int64(i+1), int64(i))
	}
	forest := Build(comments, nil)
	require.Len(t, forest, 1)
	assert.Equal(t, depth, Count(forest))
	assert.Equal(t, depth-1, Find(forest, depth).Depth)
}

// randomComments builds n comments with random parents, some dangling, in a
// shuffled order.
func randomComments(r *rand.Rand, n int) []domain.Comment {
	out := make([]domain.Comment, n)
	for i := 0; i < n; i++ {
		id := int64(i + 1)
		switch roll := r.Intn(10); {
		case i == 0 || roll == 0:
			out[i] = c(id)
		case roll == 1:
			out[i] = c(id, int64(n+1+r.Intn(50)))
		default:
			out[i] = c(id, int64(1+r.Intn(i)))
		}
	}
	r.Shuffle(n, func(a, b int) { out[a], out[b] = out[b], out[a] })
	return out
}

func TestBuild_PropertyNodeCountEqualsInput(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		comments := randomComments(r, 1+r.Intn(300))
		forest := Build(comments, nil)

		seen := map[int64]int{}
		Walk(forest, func(n *Node) { seen[n.Comment.ID]++ })
		require.Len(t, seen, len(comments), "round %d", round)
		for id, k := range seen {
			require.Equal(t, 1, k, "comment %d duplicated in round %d", id, round)
		}
	}
}

func TestBuild_PropertyParentLinks(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	comments := randomComments(r, 500)
	forest := Build(comments, nil)
	for _, root := range forest {
		Walk([]*Node{root}, func(n *Node) {
			for _, ch := range n.Children {
				require.NotNil(t, ch.Comment.ParentID)
				require.Equal(t, n.Comment.ID, *ch.Comment.ParentID)
				require.Equal(t, n.Depth+1, ch.Depth)
			}
		})
	}
}

func TestBuildHighlighted_Scenario(t *testing.T) {
	forest, err := BuildHighlighted(scenario(), 4)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, int64(1), forest[0].Comment.ID)

	got := []int64{}
	Walk(forest, func(n *Node) { got = append(got, n.Comment.ID) })
	assert.Equal(t, []int64{1, 2, 4}, got)

	h := Find(forest, 4)
	require.NotNil(t, h)
	assert.True(t, h.Highlighted)
	assert.Equal(t, 2, h.Depth)
	assert.False(t, Find(forest, 2).Highlighted)
}

func TestBuildHighlighted_IncludesTransitiveDescendants(t *testing.T) {
	comments := []domain.Comment{c(1), c(2, 1), c(3, 1), c(4, 2), c(5, 4), c(6, 5), c(7, 3)}
	forest, err := BuildHighlighted(comments, 2)
	require.NoError(t, err)

	got := []int64{}
	Walk(forest, func(n *Node) { got = append(got, n.Comment.ID) })
	assert.Equal(t, []int64{1, 2, 4, 5, 6}, got)
	assert.Nil(t, Find(forest, 3), "siblings of the highlighted chain are pruned")
}

func TestBuildHighlighted_DanglingAncestor(t *testing.T) {
	comments := []domain.Comment{c(10, 999), c(11, 10), c(12, 11), c(13, 10)}
	forest, err := BuildHighlighted(comments, 12)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, int64(10), forest[0].Comment.ID, "nearest resolvable ancestor is the effective root")
	assert.Equal(t, 3, Count(forest))
}

func TestBuildHighlighted_RootComment(t *testing.T) {
	forest, err := BuildHighlighted(scenario(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, Count(forest))
	assert.True(t, forest[0].Highlighted)
}

func TestBuildHighlighted_NotFound(t *testing.T) {
	_, err := BuildHighlighted(scenario(), 77)
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)

	_, err = BuildHighlighted(nil, 1)
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)
}

func TestBuildHighlighted_Cycle(t *testing.T) {
	comments := []domain.Comment{c(1, 2), c(2, 1), c(3, 1)}
	forest, err := BuildHighlighted(comments, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, Count(forest))
	assert.True(t, Find(forest, 1).Highlighted)
}

func TestBuildHighlighted_PropertyAncestorsAndDescendants(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for round := 0; round < 100; round++ {
		comments := randomComments(r, 1+r.Intn(200))
		byID := map[int64]domain.Comment{}
		kids := map[int64][]int64{}
		for _, cm := range comments {
			byID[cm.ID] = cm
			if cm.ParentID != nil {
				kids[*cm.ParentID] = append(kids[*cm.ParentID], cm.ID)
			}
		}
		target := comments[r.Intn(len(comments))].ID

		want := map[int64]bool{target: true}
		for cur := byID[target]; cur.ParentID != nil; {
			p, ok := byID[*cur.ParentID]
			if !ok {
				break
			}
			want[p.ID] = true
			cur = p
		}
		queue := []int64{target}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, k := range kids[id] {
				want[k] = true
				queue = append(queue, k)
			}
		}

		forest, err := BuildHighlighted(comments, target)
		require.NoError(t, err)
		require.Len(t, forest, 1, "round %d", round)

		var got []int64
		Walk(forest, func(n *Node) { got = append(got, n.Comment.ID) })
		var expected []int64
		for id := range want {
			expected = append(expected, id)
		}
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		sort.Slice(expected, func(i, j int) bool { return expected[i] < expected[j] })
		require.Equal(t, expected, got, "round %d target %d", round, target)
	}
}

func TestDepthClass(t *testing.T) {
	cases := map[int]string{0: "r", 1: "0", 2: "1", 6: "5", 7: "0", 13: "0"}
	for depth, want := range cases {
		assert.Equal(t, want, DepthClass(depth), "depth %d", depth)
	}
}

func TestBuild_SetsDepthClass(t *testing.T) {
	comments := []domain.Comment{c(1)}
	for id := int64(2); id <= 9; id++ {
		comments = append(comments, c(id, id-1))
	}
	forest := Build(comments, nil)
	Walk(forest, func(n *Node) {
		assert.Equal(t, DepthClass(n.Depth), n.Class, "comment %d", n.Comment.ID)
	})
	assert.Equal(t, "r", forest[0].Class)
	assert.Equal(t, "0", Find(forest, 8).Class)

	hl, err := BuildHighlighted(comments, 3)
	require.NoError(t, err)
	assert.Equal(t, "1", Find(hl, 3).Class)
}

func ptr[T any](v T) *T { return &v }
