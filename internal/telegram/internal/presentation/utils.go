package presentation

import (
	"html"
	"strings"
)

func breakLine(n int) string {
	return strings.Repeat("\n", n)
}

func esc(s string) string {
	return html.EscapeString(s)
}
