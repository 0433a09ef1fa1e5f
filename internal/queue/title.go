package queue

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTitle derives a human-readable title from a source path for tables
// and notifications: "braking_test-03.udf" becomes "Braking Test 03".
func DisplayTitle(sourcePath string) string {
	base := strings.TrimSpace(filepath.Base(sourcePath))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "Untitled"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	replacer := strings.NewReplacer("_", " ", "-", " ", ".", " ")
	cleaned := strings.Join(strings.Fields(replacer.Replace(stem)), " ")
	if cleaned == "" {
		return "Untitled"
	}
	return cases.Title(language.Und).String(cleaned)
}
