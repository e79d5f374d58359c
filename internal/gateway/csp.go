package gateway

import "strings"

// fallbackScriptSrc is appended to policies that do not restrict scripts at
// all, so the page still cannot evaluate strings as code.
const fallbackScriptSrc = "script-src * 'unsafe-inline' blob: data:"

// DisallowEval rewrites a Content-Security-Policy value so that it never
// permits dynamic script evaluation. 'unsafe-eval' is removed from every
// directive. A policy with neither script-src nor default-src gets an
// explicit script-src without it.
func DisallowEval(policy string) string {
	var out []string
	scripts := false
	for _, d := range strings.Split(policy, ";") {
		fields := strings.Fields(d)
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		if name == "script-src" || name == "default-src" {
			scripts = true
		}
		kept := fields[:1]
		for _, src := range fields[1:] {
			if strings.EqualFold(src, "'unsafe-eval'") || strings.EqualFold(src, "'wasm-unsafe-eval'") {
				continue
			}
			kept = append(kept, src)
		}
		out = append(out, strings.Join(kept, " "))
	}
	if !scripts {
		out = append(out, fallbackScriptSrc)
	}
	return strings.Join(out, "; ")
}
