package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemon/mnemon/internal/memory"
	"github.com/mnemon/mnemon/pkg/models"
)

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Export the knowledge graph for visualization",
	Long: `Export the graph of active insights.

Examples:
  mnemon viz --format dot | dot -Tpng -o graph.png
  mnemon viz --format html -o graph.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closer, err := openService()
		if err != nil {
			return err
		}
		defer closer()

		insights, err := svc.Store().AllActive()
		if err != nil {
			return err
		}
		edges, err := svc.Store().AllEdges()
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		var out string
		switch format {
		case "dot":
			out = renderDOT(insights, edges)
		case "html":
			out = renderHTML(insights, edges)
		default:
			return &memory.InputError{Msg: fmt.Sprintf("unsupported format: %s (use dot or html)", format)}
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "" || path == "-" {
			fmt.Print(out)
			return nil
		}
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "written to %s\n", path)
		return nil
	},
}

func init() {
	vizCmd.Flags().String("format", "dot", "output format: dot or html")
	vizCmd.Flags().StringP("output", "o", "-", "output file (- for stdout)")
}

func nodeLabel(in *models.Insight) string {
	content := strings.ReplaceAll(in.Content, "\n", " ")
	if len(content) > 60 {
		content = content[:60] + "..."
	}
	return fmt.Sprintf("[%s] %s", in.Category, content)
}

func categoryColor(c models.Category) string {
	switch c {
	case models.CategoryDecision:
		return "#e74c3c"
	case models.CategoryFact:
		return "#3498db"
	case models.CategoryInsight:
		return "#9b59b6"
	case models.CategoryPreference:
		return "#2ecc71"
	case models.CategoryContext:
		return "#f39c12"
	default:
		return "#95a5a6"
	}
}

func edgeColor(t models.EdgeType) string {
	switch t {
	case models.EdgeTemporal:
		return "#aaaaaa"
	case models.EdgeSemantic:
		return "#3498db"
	case models.EdgeCausal:
		return "#e74c3c"
	case models.EdgeEntity:
		return "#2ecc71"
	default:
		return "#cccccc"
	}
}

func edgeLabel(e *models.Edge) string {
	if sub, ok := e.Metadata["sub_type"].(string); ok && sub != "" {
		return sub
	}
	return string(e.EdgeType)
}

func renderDOT(insights []*models.Insight, edges []*models.Edge) string {
	var b strings.Builder
	b.WriteString("digraph mnemon {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=\"filled,rounded\", fontsize=10, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontsize=8, fontname=\"Helvetica\"];\n\n")

	active := make(map[string]bool, len(insights))
	for _, in := range insights {
		active[in.ID] = true
		label := strings.ReplaceAll(nodeLabel(in), `"`, `\"`)
		fmt.Fprintf(&b, "  %q [label=\"%s: %s\", fillcolor=%q, fontcolor=\"white\"];\n",
			in.ID, truncID(in.ID), label, categoryColor(in.Category))
	}

	b.WriteString("\n")
	for _, e := range edges {
		if !active[e.SourceID] || !active[e.TargetID] {
			continue
		}
		color := edgeColor(e.EdgeType)
		fmt.Fprintf(&b, "  %q -> %q [label=%q, color=%q, fontcolor=%q];\n",
			e.SourceID, e.TargetID, edgeLabel(e), color, color)
	}
	b.WriteString("}\n")
	return b.String()
}

// jsStr returns a JSON-encoded string for embedding in JS.
func jsStr(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func renderHTML(insights []*models.Insight, edges []*models.Edge) string {
	active := make(map[string]bool, len(insights))
	nodeParts := make([]string, 0, len(insights))
	for _, in := range insights {
		active[in.ID] = true
		label := strings.ReplaceAll(nodeLabel(in), "\n", " ")
		title := strings.ReplaceAll(in.Content, "\n", "\\n")
		nodeParts = append(nodeParts, fmt.Sprintf(
			`{id:%s,label:%s,title:%s,color:%s,font:{color:"white"}}`,
			jsStr(in.ID), jsStr(truncID(in.ID)+": "+label), jsStr(title),
			jsStr(categoryColor(in.Category))))
	}

	edgeParts := make([]string, 0, len(edges))
	for _, e := range edges {
		if !active[e.SourceID] || !active[e.TargetID] {
			continue
		}
		color := jsStr(edgeColor(e.EdgeType))
		edgeParts = append(edgeParts, fmt.Sprintf(
			`{from:%s,to:%s,label:%s,color:{color:%s},arrows:"to",font:{color:%s,size:10}}`,
			jsStr(e.SourceID), jsStr(e.TargetID), jsStr(edgeLabel(e)), color, color))
	}

	out := strings.Replace(htmlTemplate, "%NODES%", strings.Join(nodeParts, ",\n"), 1)
	return strings.Replace(out, "%EDGES%", strings.Join(edgeParts, ",\n"), 1)
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Mnemon Knowledge Graph</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
  body { margin: 0; padding: 0; background: #1a1a2e; font-family: sans-serif; }
  #graph { width: 100vw; height: 100vh; }
  #legend { position: fixed; top: 10px; right: 10px; background: rgba(0,0,0,0.7);
    color: white; padding: 12px; border-radius: 8px; font-size: 12px; }
  .leg-item { display: flex; align-items: center; margin: 4px 0; }
  .leg-dot { width: 12px; height: 12px; border-radius: 50%; margin-right: 8px; }
  .leg-line { width: 20px; height: 3px; margin-right: 8px; }
</style>
</head>
<body>
<div id="graph"></div>
<div id="legend">
  <b>Nodes</b>
  <div class="leg-item"><div class="leg-dot" style="background:#e74c3c"></div>decision</div>
  <div class="leg-item"><div class="leg-dot" style="background:#3498db"></div>fact</div>
  <div class="leg-item"><div class="leg-dot" style="background:#9b59b6"></div>insight</div>
  <div class="leg-item"><div class="leg-dot" style="background:#2ecc71"></div>preference</div>
  <div class="leg-item"><div class="leg-dot" style="background:#f39c12"></div>context</div>
  <div class="leg-item"><div class="leg-dot" style="background:#95a5a6"></div>general</div>
  <br><b>Edges</b>
  <div class="leg-item"><div class="leg-line" style="background:#aaaaaa"></div>temporal</div>
  <div class="leg-item"><div class="leg-line" style="background:#3498db"></div>semantic</div>
  <div class="leg-item"><div class="leg-line" style="background:#e74c3c"></div>causal</div>
  <div class="leg-item"><div class="leg-line" style="background:#2ecc71"></div>entity</div>
</div>
<script>
var nodes = new vis.DataSet([%NODES%]);
var edges = new vis.DataSet([%EDGES%]);
var container = document.getElementById("graph");
var data = { nodes: nodes, edges: edges };
var options = {
  physics: { solver: "forceAtlas2Based", forceAtlas2Based: { gravitationalConstant: -30 } },
  interaction: { hover: true, tooltipDelay: 100 },
  nodes: { shape: "box", margin: 8, borderWidth: 0, font: { size: 11 } },
  edges: { smooth: { type: "continuous" }, font: { size: 9 } }
};
new vis.Network(container, data, options);
</script>
</body>
</html>
`
