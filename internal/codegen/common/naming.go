// Package common holds naming transforms and the indent writer shared by
// all language backends.
package common

import (
	"strings"
	"unicode"
)

func ToPascalCase(s string) string {
	if s == "" {
		return ""
	}

	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})

	var result strings.Builder
	for _, word := range words {
		if len(word) > 0 {
			result.WriteString(strings.ToUpper(string(word[0])))
			if len(word) > 1 {
				result.WriteString(strings.ToLower(word[1:]))
			}
		}
	}

	return result.String()
}

func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if len(pascal) == 0 {
		return ""
	}
	return strings.ToLower(string(pascal[0])) + pascal[1:]
}

// TrimNamePrefix strips prefix from name case-insensitively. Used when a
// free function is re-exposed as a method of a wrapper class and the class
// name would otherwise be repeated in the method name.
func TrimNamePrefix(name, prefix string) string {
	if prefix == "" {
		return name
	}
	if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
		return name[len(prefix):]
	}
	return name
}

// SanitizeLeadingDigit prefixes names that start with a digit with "Num"
// to keep identifiers valid in target languages.
func SanitizeLeadingDigit(name string) string {
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "Num" + name
	}
	return name
}
