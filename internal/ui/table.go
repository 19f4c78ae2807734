package ui

import (
	"fmt"
	"strings"

	"github.com/dosanma1/amiforge/internal/manifest"
)

// AMITable renders a region to AMI mapping, one region per line, sorted.
func AMITable(amis map[string]string) string {
	if len(amis) == 0 {
		return HelpStyle.Render("  (no AMIs)")
	}

	var sb strings.Builder
	for i, r := range manifest.Regions(amis) {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "  %s %s", RegionStyle.Render(r), AMIStyle.Render(amis[r]))
	}
	return sb.String()
}
