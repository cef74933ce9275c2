package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

const maxFreeText = 2000

// cleanText strips markup from customer and admin supplied text.
func cleanText(s string) string {
	s = strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
	if r := []rune(s); len(r) > maxFreeText {
		s = string(r[:maxFreeText])
	}
	return s
}
