// Package escape quotes strings for embedding in generated scripts.
package escape

import (
	"encoding/json"
	"strings"
)

// PowerShell doubles single quotes for safe embedding inside
// PowerShell single-quoted strings.
func PowerShell(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// AppleScript escapes backslashes and double quotes for safe embedding
// inside AppleScript strings.
func AppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// XML replaces XML-special characters so text can be embedded in XML
// elements and attributes.
func XML(s string) string {
	return xmlReplacer.Replace(s)
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// JSString returns s as a double-quoted JavaScript string literal.
func JSString(s string) string {
	b, _ := json.Marshal(s) // strings always marshal
	return string(b)
}
