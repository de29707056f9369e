package executor

import "strings"

// QuoteShell wraps s in single quotes with any embedded single quotes
// escaped, so the target shell sees it as one literal word. Every call site
// that embeds a command or value into a shell line goes through this helper;
// there is deliberately no second quoting path.
func QuoteShell(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
