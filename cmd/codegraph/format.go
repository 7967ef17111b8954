package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"github.com/codegraph-dev/codegraph"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	dimColor    = color.New(color.Faint)
)

// printResult renders a query result in the configured format. Tree
// results render as an indented hierarchy, tabular ones as aligned
// columns.
func printResult(w io.Writer, res *codegraph.Result) error {
	if viper.GetString("format") == "json" {
		return printJSON(w, res)
	}

	if res.Message != "" {
		dimColor.Fprintln(w, res.Message)
		return nil
	}
	if res.Tree != nil {
		printTree(w, res.Tree, 0)
		fmt.Fprintln(w)
	}

	// The header is aligned plain and colorized after the fact: ANSI
	// escapes inside a tabwriter cell inflate its measured width and
	// skew every column under it.
	var buf strings.Builder
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(res.Columns, "\t")))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	header, rest, _ := strings.Cut(buf.String(), "\n")
	headerColor.Fprintln(w, header)
	fmt.Fprint(w, rest)
	dimColor.Fprintf(w, "%d row(s) in %s\n", res.Count, res.Elapsed)
	return nil
}

func printTree(w io.Writer, node *codegraph.TreeNode, indent int) {
	prefix := strings.Repeat("  ", indent)
	if indent == 0 {
		headerColor.Fprintf(w, "%s%s", prefix, node.ID)
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "%s- %s ", prefix, node.ID)
		dimColor.Fprintf(w, "(%s)", node.Kind)
		fmt.Fprintln(w)
	}
	for _, child := range node.Children {
		printTree(w, child, indent+1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printStats renders graph size numbers grouped by kind.
func printStats(w io.Writer, stats *codegraph.Stats) error {
	if viper.GetString("format") == "json" {
		return printJSON(w, stats)
	}

	headerColor.Fprintln(w, "Graph")
	fmt.Fprintf(w, "  nodes: %d\n", stats.Nodes)
	fmt.Fprintf(w, "  edges: %d\n", stats.Edges)

	headerColor.Fprintln(w, "Nodes by kind")
	for _, kind := range sortedKeys(stats.NodesByKind) {
		fmt.Fprintf(w, "  %s: %d\n", kind, stats.NodesByKind[codegraph.NodeKind(kind)])
	}

	headerColor.Fprintln(w, "Edges by kind")
	for _, kind := range sortedKeys(stats.EdgesByKind) {
		fmt.Fprintf(w, "  %s: %d\n", kind, stats.EdgesByKind[codegraph.EdgeKind(kind)])
	}
	return nil
}

func sortedKeys[K ~string, V any](m map[K]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}
