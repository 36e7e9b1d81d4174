package cfg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// namedColors mirrors the small, fixed palette generate-as.c's dumper used
// for the first handful of register colors.
var namedColors = []string{"red", "green", "blue", "brown", "yellow", "orange", "purple"}

// RegisterPalette returns n distinct hex colors for vertex/label fill in a
// register-coloring dump. The first len(namedColors) entries reuse the
// named palette; beyond that, colors are swept evenly around the HSV
// wheel so the legend never runs out, however many colors a spill-heavy
// function ends up needing.
func RegisterPalette(n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(namedColors) {
			out[i] = namedColors[i]
			continue
		}
		hue := 360.0 * float64(i) / float64(n)
		out[i] = colorful.Hsv(hue, 0.65, 0.85).Hex()
	}
	return out
}

// Dot renders the graph as one Graphviz subgraph named
// cluster_<clusterName> and labelled clusterName; the caller wraps the
// clusters in a digraph. label formats a vertex's printable text;
// fill optionally returns a fill color for a vertex (empty string for
// none).
func (g *Graph[V]) Dot(clusterName string, label func(V) string, fill func(V) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "subgraph cluster_%s {\n", clusterName)
	fmt.Fprintf(&b, "  label=%q;\n", clusterName)

	ids := make(map[V]int, len(g.labels))
	vs := g.Vertices()
	for _, v := range vs {
		l, _ := g.Label(v)
		ids[v] = l
	}

	for _, v := range vs {
		attrs := fmt.Sprintf("label=%q", label(v))
		if fill != nil {
			if c := fill(v); c != "" {
				attrs += fmt.Sprintf(", style=filled, fillcolor=%q", c)
			}
		}
		fmt.Fprintf(&b, "  n%d_%s [%s];\n", ids[v], clusterName, attrs)
	}

	type edge struct {
		u, v V
		k    EdgeKind
	}
	var edges []edge
	for _, v := range vs {
		for s, k := range g.Successors(v) {
			edges = append(edges, edge{v, s, k})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		ui, vi := ids[edges[i].u], ids[edges[i].v]
		uj, vj := ids[edges[j].u], ids[edges[j].v]
		if ui != uj {
			return ui < uj
		}
		return vi < vj
	})
	for _, e := range edges {
		lbl := e.k.String()
		if lbl == "" {
			fmt.Fprintf(&b, "  n%d_%s -> n%d_%s;\n", ids[e.u], clusterName, ids[e.v], clusterName)
		} else {
			fmt.Fprintf(&b, "  n%d_%s -> n%d_%s [label=%q];\n", ids[e.u], clusterName, ids[e.v], clusterName, lbl)
		}
	}

	b.WriteString("}\n")
	return b.String()
}
