package recommend

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are a life insurance field underwriter. Assess how well the client below fits carrier %q using ONLY the guideline excerpts provided.

CLIENT PROFILE:
%s

CARRIER GUIDELINE EXCERPTS (%s):
%s

Respond with ONLY a JSON object, no prose and no markdown fences, in exactly this shape:
{
  "fitPct": <integer 0-100>,
  "reasons": [<3 to 5 short strings explaining the fit>],
  "advisories": [<0 to 3 short strings describing risks or requirements>],
  "confidence": <integer 0-100>,
  "product": "<best matching product name>",
  "underwritingPath": "<e.g. accelerated, fully underwritten, simplified issue>",
  "citations": [{"snippet": "<verbatim excerpt>", "documentTitle": "<source document>", "score": <0-1>}]
}`

// BuildPrompt renders the per-carrier synthesis prompt.
func BuildPrompt(profileText, carrierID, evidence string, sources []string) string {
	src := "unknown source"
	if len(sources) > 0 {
		src = strings.Join(sources, ", ")
	}
	return fmt.Sprintf(promptTemplate, carrierID, profileText, src, evidence)
}

// Sources returns the distinct source keys of the group in retrieval order.
func (g Group) Sources() []string {
	seen := make(map[string]bool, len(g.Matches))
	var out []string
	for _, m := range g.Matches {
		k := m.Metadata.SourceKey
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
