package deps_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

func ExampleOptions_WithDefaults() {
	opts := deps.Options{MaxDepth: 10}.WithDefaults()

	fmt.Println("MaxDepth:", opts.MaxDepth)
	fmt.Println("MaxNodes:", opts.MaxNodes)
	fmt.Println("Kinds:", opts.Kinds)
	// Output:
	// MaxDepth: 10
	// MaxNodes: 5000
	// Kinds: normal,build
}

func ExampleResolver_Resolve() {
	reg := registry.NewMemory("example")
	reg.Add("app", "1.0.0", registry.Dependency{Crate: "log", Requirement: "0.4"})
	reg.Add("log", "0.4.20")
	reg.Add("log", "0.4.21")
	reg.Add("log", "0.5.0")

	res, err := deps.NewResolver(reg, deps.Options{}).Resolve(context.Background(), "app")
	if err != nil {
		panic(err)
	}
	for _, e := range res.Graph.Edges() {
		from, _ := res.Graph.Node(e.From)
		to, _ := res.Graph.Node(e.To)
		fmt.Printf("%s -> %s\n", from.Label(), to.Label())
	}
	// Output:
	// app - 1.0.0 -> log - 0.4.21
}

func ExampleSelectVersion() {
	reg := registry.NewMemory("")
	for _, v := range []string{"1.0.0", "1.2.0", "1.3.0-beta", "2.0.0"} {
		reg.Add("b", v)
	}
	candidates, _ := deps.NewCatalog(reg).ListVersions(context.Background(), "b")

	v, _ := deps.SelectVersion("b", "^1.0", candidates)
	fmt.Println(v)
	// Output: 1.2.0
}
