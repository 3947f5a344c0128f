package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/tabtidy/internal/probe"
)

// FailureReasonsURI is the resource URI of the failure reason catalogue.
const FailureReasonsURI = "tabtidy://failure-reasons"

// FailureReasons renders the catalogue of reasons a link can be removed for.
func FailureReasons() string {
	var b strings.Builder
	b.WriteString("# Link failure reasons\n\n")
	b.WriteString("A bookmark is removed when its probe ends in one of these kinds. ")
	b.WriteString("Every deletion record carries the kind and a human-readable reason.\n\n")
	b.WriteString("| Kind | Meaning |\n|------|---------|\n")
	for _, k := range probe.Kinds() {
		fmt.Fprintf(&b, "| `%s` | %s |\n", k, k.Describe())
	}
	b.WriteString("\nA link is valid when a GET ends, after at most the configured number of ")
	b.WriteString("redirects, with a status in the range 200-399.\n")
	return b.String()
}
