// Package frontmatter extracts duplication claims from the YAML frontmatter
// block of a raw README document.
package frontmatter

import "strings"

// claimKey is the frontmatter key that declares a duplication source.
const claimKey = "duplicated_from:"

// DuplicatedFrom scans a document line by line for a duplicated_from claim
// inside a ----delimited frontmatter block. A bare --- line toggles the
// frontmatter state; the first line inside the block whose trimmed form
// starts with "duplicated_from:" yields the value after the colon, stripped
// of surrounding whitespace and quote characters. Scanning stops as soon as
// the block closes. Returns "" when the document declares no claim.
func DuplicatedFrom(text string) string {
	inFrontmatter := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "---" {
			inFrontmatter = !inFrontmatter
			if !inFrontmatter {
				// Block closed without the key.
				break
			}
			continue
		}
		if inFrontmatter && strings.HasPrefix(trimmed, claimKey) {
			value := strings.TrimSpace(trimmed[len(claimKey):])
			return strings.Trim(value, `'"`)
		}
	}
	return ""
}
