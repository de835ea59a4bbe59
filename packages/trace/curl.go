package trace

import (
	"sort"
	"strings"
)

// Curl renders a request as an equivalent curl command line. Headers are
// emitted in sorted order so the output is stable.
func Curl(method, url string, headers map[string]string, body []byte) string {
	var b strings.Builder
	b.WriteString("curl -X ")
	b.WriteString(method)

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteString(" \\\n  -H ")
		b.WriteString(shellQuote(k + ": " + headers[k]))
	}

	if len(body) > 0 {
		b.WriteString(" \\\n  -d ")
		b.WriteString(shellQuote(string(body)))
	}

	b.WriteString(" \\\n  ")
	b.WriteString(shellQuote(url))
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
