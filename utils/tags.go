package utils

import "strings"

// Characters the game uses in player and clan tags.
const tagAlphabet = "0289PYLQGRJCUV"

// NormalizeTag converts user input such as " 2pp o9" into the canonical
// "#2PP09" form. The letter O is read as zero, as in the game client.
func NormalizeTag(raw string) string {
	tag := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	tag = strings.TrimPrefix(tag, "#")
	tag = strings.ReplaceAll(tag, "O", "0")
	if tag == "" {
		return ""
	}
	return "#" + tag
}

// ValidTag reports whether tag is in canonical form and uses only game characters.
func ValidTag(tag string) bool {
	if len(tag) < 4 || len(tag) > 15 || tag[0] != '#' {
		return false
	}
	for _, r := range tag[1:] {
		if !strings.ContainsRune(tagAlphabet, r) {
			return false
		}
	}
	return true
}
