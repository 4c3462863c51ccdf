package export

import (
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"unicode"

	"github.com/vanderheijden86/depview/pkg/model"
	"github.com/vanderheijden86/depview/pkg/sidebar"
)

// GenerateMermaid renders snap as a Mermaid flowchart. Nodes keep the
// snapshot order and are styled with the color they were drawn with, one
// class per sidebar group.
func GenerateMermaid(snap *model.Snapshot, table sidebar.Table) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	classes := make(map[string]string, table.Len())
	for i, g := range table.Groups {
		class := fmt.Sprintf("c%d", i)
		classes[g.Color] = class
		fmt.Fprintf(&sb, "    classDef %s fill:%s,stroke:#333,color:#000\n", class, sidebar.SwatchColor(g.Color))
	}
	sb.WriteString("\n")

	// Deterministic, collision-free Mermaid IDs
	safeIDs := make(map[string]string, len(snap.Nodes))
	used := make(map[string]bool, len(snap.Nodes))
	safeID := func(orig string) string {
		if safe, ok := safeIDs[orig]; ok {
			return safe
		}
		safe := sanitizeMermaidID(orig)
		if used[safe] {
			h := fnv.New32a()
			_, _ = h.Write([]byte(orig))
			safe = fmt.Sprintf("%s_%x", safe, h.Sum32())
		}
		used[safe] = true
		safeIDs[orig] = safe
		return safe
	}

	for _, n := range snap.Nodes {
		id := safeID(n.ID)
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, sanitizeMermaidText(n.ID))
	}
	for _, g := range table.Groups {
		ids := make([]string, 0, len(g.IDs))
		for _, id := range g.IDs {
			ids = append(ids, safeID(id))
		}
		if len(ids) > 0 {
			fmt.Fprintf(&sb, "    class %s %s\n", strings.Join(ids, ","), classes[g.Color])
		}
	}

	if len(snap.Edges) > 0 {
		sb.WriteString("\n")
	}
	for _, e := range snap.Edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", safeID(e.Source), safeID(e.Target))
	}
	return sb.String()
}

func writeMermaid(path string, snap *model.Snapshot, table sidebar.Table, opts Options) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "---\ntitle: %s\n---\n", sanitizeMermaidText(opts.Title))
	sb.WriteString(GenerateMermaid(snap, table))
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// sanitizeMermaidID keeps the characters Mermaid accepts in node ids.
func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "node"
	}
	return sb.String()
}

// sanitizeMermaidText prepares text for use in Mermaid node labels.
func sanitizeMermaidText(text string) string {
	replacer := strings.NewReplacer(
		"\"", "'",
		"[", "(",
		"]", ")",
		"{", "(",
		"}", ")",
		"<", "&lt;",
		">", "&gt;",
		"|", "/",
		"`", "'",
		"\n", " ",
		"\r", "",
	)
	result := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, replacer.Replace(text))
	return strings.TrimSpace(result)
}
