package docmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptpack/internal/edits"
)

func sampleDoc() *Document {
	method := &Node{Kind: KindPyMethod, Name: "run", Qual: "pkg.mod:Job.run"}
	class := &Node{Kind: KindPyClass, Name: "Job", Qual: "pkg.mod:Job", Children: []*Node{method}}
	fn := &Node{Kind: KindPyFunction, Name: "main", Qual: "pkg.mod:main"}
	module := &Node{Kind: KindPyModule, Name: "pkg.mod", Qual: "pkg.mod", Children: []*Node{class, fn}}
	return &Document{Path: "pkg/mod.py", Roots: []*Node{module}}
}

func TestDocument_FlattenPreOrder(t *testing.T) {
	doc := sampleDoc()
	doc.AssignIDs()

	nodes := doc.Flatten()
	require.Len(t, nodes, 4)

	var quals []string
	for i, n := range nodes {
		assert.Equal(t, i+1, n.ID)
		quals = append(quals, n.Qual)
	}
	assert.Equal(t, []string{"pkg.mod", "pkg.mod:Job", "pkg.mod:Job.run", "pkg.mod:main"}, quals)
}

func TestDocument_WalkSkipsChildren(t *testing.T) {
	var seen []string
	sampleDoc().Walk(func(n *Node) bool {
		seen = append(seen, n.Name)
		return n.Kind != KindPyClass
	})
	assert.Equal(t, []string{"pkg.mod", "Job", "main"}, seen)
}

func TestDocument_Find(t *testing.T) {
	doc := sampleDoc()
	require.NotNil(t, doc.Find("pkg.mod:Job.run"))
	assert.Equal(t, "run", doc.Find("pkg.mod:Job.run").Name)
	assert.Nil(t, doc.Find("pkg.mod:missing"))
}

func TestNode_Meta(t *testing.T) {
	n := &Node{}
	_, ok := n.MetaSpan("body")
	assert.False(t, ok)

	n.SetSpan("body", edits.Span{Start: 3, End: 9})
	n.SetInt("depth", 2)

	s, ok := n.MetaSpan("body")
	require.True(t, ok)
	assert.Equal(t, edits.Span{Start: 3, End: 9}, s)
	d, ok := n.MetaInt("depth")
	require.True(t, ok)
	assert.Equal(t, 2, d)
}

func TestKind_IsFile(t *testing.T) {
	assert.True(t, KindGoFile.IsFile())
	assert.True(t, KindMDDocument.IsFile())
	assert.False(t, KindPyClass.IsFile())
}
