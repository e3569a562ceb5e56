package graph_test

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/cratedeps/pkg/graph"
)

func Example() {
	g := graph.New()
	store := graph.NewNodeStore()

	a := store.Ensure(g, "a", semver.MustParse("1.0.0"))
	b := store.Ensure(g, "b", semver.MustParse("1.0.0"))

	first, _ := g.AddEdge(a, b)
	again, _ := g.AddEdge(a, b)
	back, _ := g.AddEdge(b, a)

	fmt.Println(first, again, back)
	fmt.Println(g.NodeCount(), g.EdgeCount())
	// Output:
	// true false true
	// 2 2
}
