package orchestrator

import (
	"encoding/json"
	"strings"
)

// substitute replaces every key in replacements (without its surrounding
// "$") verbatim in template. Map iteration order is random, so no key in one
// call may be a prefix of another; callers substitute AGENT and
// AGENT_TRANSPORT in separate calls for that reason.
func substitute(template string, replacements map[string]string) string {
	out := template
	for key, value := range replacements {
		out = strings.ReplaceAll(out, "$"+key, value)
	}
	return out
}

// prettyJSON renders v as indented JSON, matching the pretty-print contract
// the scheduler and executor rely on when building $CONTEXT/$RESULTS bodies.
func prettyJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
