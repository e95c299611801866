package gen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func BenchmarkClassify(b *testing.B) {
	g := newTestGraph(b, petsDomain(b))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, t := range g.Nodes {
			if _, err := g.Classify(t.Object); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkGenerate(b *testing.B) {
	g := newTestGraph(b, petsDomain(b), WithAlwaysProcess())
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := NewGenerator(g).WithBackend(&mockBackend{}).Generate(ctx)
		require.NoError(b, err)
	}
}
