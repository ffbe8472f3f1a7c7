package utils

import "strings"

// NormalizeCompanyName strips every character that is not an ASCII letter or digit and
// lower-cases the rest. It is the only rule used to match a typed company name against
// URLs, domains and file names, so "Acme, Inc." and "acme-inc" compare equal.
func NormalizeCompanyName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}

var fileNameReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// FileSafeName replaces spaces and path separators with underscores and collapses
// ".." so the result is always a single path element. Downloaded reports and
// exported workbooks are named with it.
func FileSafeName(name string) string {
	return strings.ReplaceAll(fileNameReplacer.Replace(name), "..", "_")
}
