package golang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptpack/internal/docmodel"
	"git.home.luguber.info/inful/promptpack/internal/edits"
	"git.home.luguber.info/inful/promptpack/internal/engine"
	"git.home.luguber.info/inful/promptpack/internal/policy"
)

const demoSource = `package demo

import (
	"fmt"
	"strings"
)

// Greeter says hello.
type Greeter struct {
	Name string
}

// Greet returns a greeting.
func (g *Greeter) Greet() string {
	if g.Name == "" {
		return "hello"
	}
	return fmt.Sprintf("hello %s", strings.TrimSpace(g.Name))
}

func Add(a, b int) int {
	return a + b
}
`

const demoRel = "internal/demo/demo.go"

func parse(t *testing.T, rel, text string) *docmodel.Document {
	t.Helper()
	doc, err := New().Parse(context.Background(), engine.Source{Doc: edits.DocID(rel), Rel: rel, Text: text})
	require.NoError(t, err)
	return doc
}

func render(t *testing.T, rel, text string, rules map[string]string) string {
	t.Helper()
	doc := parse(t, rel, text)

	var decisions []engine.Decision
	for _, n := range doc.Flatten() {
		mode, ok := rules[n.Qual]
		if !ok {
			continue
		}
		action, err := policy.ParseMode(mode)
		require.NoError(t, err)
		decisions = append(decisions, engine.Decision{Node: n, Action: action})
	}

	candidates, err := New().Render(doc, decisions)
	require.NoError(t, err)
	resolved, err := edits.Resolve(candidates)
	require.NoError(t, err)
	out, err := edits.Apply(text, resolved)
	require.NoError(t, err)
	return out
}

func TestParse_Tree(t *testing.T) {
	doc := parse(t, demoRel, demoSource)

	var quals []string
	var kinds []docmodel.Kind
	for _, n := range doc.Flatten() {
		quals = append(quals, n.Qual)
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []string{
		"internal/demo",
		"internal/demo:Greeter",
		"internal/demo:Greeter.Greet",
		"internal/demo:Add",
	}, quals)
	assert.Equal(t, []docmodel.Kind{
		docmodel.KindGoFile, docmodel.KindGoType, docmodel.KindGoMethod, docmodel.KindGoFunction,
	}, kinds)

	greet := doc.Find("internal/demo:Greeter.Greet")
	require.NotNil(t, greet)
	assert.Equal(t, "Greet", greet.Name)
	assert.True(t, len(demoSource[greet.Span.Start:greet.Span.End]) > 0)
	assert.Contains(t, demoSource[greet.Span.Start:greet.Span.End], "// Greet returns a greeting.\nfunc (g *Greeter)")
	assert.False(t, doc.HasSyntaxError())
}

func TestParse_SyntaxError(t *testing.T) {
	doc := parse(t, "x.go", "package x\nfunc {\n")
	assert.True(t, doc.HasSyntaxError())
	assert.Len(t, doc.Flatten(), 1)
	assert.Equal(t, "x", doc.Roots[0].Qual)
}

func TestPackagePath(t *testing.T) {
	assert.Equal(t, "internal/demo", PackagePath("internal/demo/demo.go", "demo"))
	assert.Equal(t, "main", PackagePath("main.go", "main"))
	assert.Equal(t, "main", PackagePath("./main.go", "main"))
	assert.Equal(t, "tool", PackagePath("tool.go", ""))
}

func TestParse_GenericReceiverAndGroupedTypes(t *testing.T) {
	src := "package p\n\ntype (\n\t// A is a.\n\tA int\n\tB[T any] struct{ v T }\n)\n\nfunc (b *B[T]) Get() T {\n\treturn b.v\n}\n"
	doc := parse(t, "p.go", src)

	var quals []string
	for _, n := range doc.Flatten() {
		quals = append(quals, n.Qual)
	}
	assert.Equal(t, []string{"p", "p:A", "p:B", "p:B.Get"}, quals)

	out := render(t, "p.go", src, map[string]string{"p:A": "hide"})
	assert.Equal(t, "package p\n\ntype (\n\tB[T any] struct{ v T }\n)\n\nfunc (b *B[T]) Get() T {\n\treturn b.v\n}\n", out)
}

func TestRender_Sig(t *testing.T) {
	out := render(t, demoRel, demoSource, map[string]string{"internal/demo:Greeter.Greet": "sig"})
	assert.Equal(t, `package demo

import (
	"fmt"
	"strings"
)

// Greeter says hello.
type Greeter struct {
	Name string
}

func (g *Greeter) Greet() string {
	// … body omitted (4 lines)
}

func Add(a, b int) int {
	return a + b
}
`, out)
}

func TestRender_SigDocKeepsComment(t *testing.T) {
	out := render(t, demoRel, demoSource, map[string]string{"internal/demo:Greeter.Greet": "sig+doc"})
	assert.Contains(t, out, "// Greet returns a greeting.\nfunc (g *Greeter) Greet() string {\n\t// … body omitted (4 lines)\n}\n")
	assert.NotContains(t, out, "fmt.Sprintf")
}

func TestRender_SigOnEmptyAndOneLineBodies(t *testing.T) {
	src := "package p\n\n// Nop does nothing.\nfunc Nop() {}\n\nfunc One() int { return 1 }\n"
	out := render(t, "p.go", src, map[string]string{"p:Nop": "sig", "p:One": "sig"})
	assert.Equal(t, "package p\n\nfunc Nop() {}\n\nfunc One() int {\n\t// … body omitted (1 line)\n}\n", out)
}

func TestRender_Levels(t *testing.T) {
	out := render(t, demoRel, demoSource, map[string]string{"internal/demo:Greeter.Greet": "body:levels=0"})
	assert.Contains(t, out, "\tif g.Name == \"\" {\n\t\t// … line 16 omitted\n\t}\n")
	assert.Contains(t, out, "return fmt.Sprintf")
	assert.NotContains(t, out, "return \"hello\"")

	assert.Equal(t, demoSource, render(t, demoRel, demoSource, map[string]string{"internal/demo:Greeter.Greet": "body:levels=1"}))
}

func TestRender_KeepsCRLF(t *testing.T) {
	src := "package p\r\n\r\nfunc F(x int) int {\r\n\tif x > 0 {\r\n\t\tx++\r\n\t}\r\n\treturn x\r\n}\r\n"

	out := render(t, "p.go", src, map[string]string{"p:F": "sig"})
	assert.Equal(t, "package p\r\n\r\nfunc F(x int) int {\r\n\t// … body omitted (4 lines)\r\n}\r\n", out)

	out = render(t, "p.go", src, map[string]string{"p:F": "body:levels=0"})
	assert.Equal(t, "package p\r\n\r\nfunc F(x int) int {\r\n\tif x > 0 {\r\n\t\t// … line 5 omitted\r\n\t}\r\n\treturn x\r\n}\r\n", out)
}

func TestRender_LevelsNested(t *testing.T) {
	src := "package p\n\nfunc F(xs []int) int {\n\tn := 0\n\tfor _, x := range xs {\n\t\tif x > 0 {\n\t\t\tn += x\n\t\t}\n\t}\n\treturn n\n}\n"

	out := render(t, "p.go", src, map[string]string{"p:F": "body:levels=1"})
	assert.Equal(t, "package p\n\nfunc F(xs []int) int {\n\tn := 0\n\tfor _, x := range xs {\n\t\tif x > 0 {\n\t\t\t// … line 7 omitted\n\t\t}\n\t}\n\treturn n\n}\n", out)

	out = render(t, "p.go", src, map[string]string{"p:F": "body:levels=0"})
	assert.Equal(t, "package p\n\nfunc F(xs []int) int {\n\tn := 0\n\tfor _, x := range xs {\n\t\t// … lines 6–8 omitted\n\t}\n\treturn n\n}\n", out)
}

func TestRender_NoImportsAndHide(t *testing.T) {
	out := render(t, demoRel, demoSource, map[string]string{
		"internal/demo":         "file:no-imports",
		"internal/demo:Greeter": "hide",
		"internal/demo:Add":     "file:no-imports",
	})
	assert.NotContains(t, out, "import (")
	assert.NotContains(t, out, "\"strings\"\n")
	assert.NotContains(t, out, "type Greeter")
	assert.Contains(t, out, "func Add(a, b int) int {\n\treturn a + b\n}\n")
	assert.Contains(t, out, "// Greet returns a greeting.")

	assert.Empty(t, render(t, demoRel, demoSource, map[string]string{"internal/demo": "hide", "internal/demo:Add": "sig"}))
}

func TestRender_HideWithNestedSig(t *testing.T) {
	out := render(t, demoRel, demoSource, map[string]string{
		"internal/demo:Greeter.Greet": "hide",
	})
	assert.NotContains(t, out, "Greet returns")
	assert.Contains(t, out, "}\n\n\nfunc Add")
}
