package provider

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SizeBucket groups pets by weight.
type SizeBucket string

const (
	SizeSmall  SizeBucket = "Small"
	SizeMedium SizeBucket = "Medium"
	SizeLarge  SizeBucket = "Large"
	SizeGiant  SizeBucket = "Giant"
)

// SizeBucketFor maps a weight in kilograms to its bucket. Bounds are inclusive
// upper limits: 7, 18 and 45 kg.
func SizeBucketFor(weightKg float64) SizeBucket {
	switch {
	case weightKg <= 7:
		return SizeSmall
	case weightKg <= 18:
		return SizeMedium
	case weightKg <= 45:
		return SizeLarge
	default:
		return SizeGiant
	}
}

// serviceKindSynonyms maps alternate spellings to the canonical kind after
// separators are stripped.
var serviceKindSynonyms = map[string]string{
	"walking":        "dogwalking",
	"dogwalk":        "dogwalking",
	"dropin":         "dropinvisits",
	"dropins":        "dropinvisits",
	"dropinvisit":    "dropinvisits",
	"doggydaycare":   "daycare",
	"housesit":       "housesitting",
	"overnightstays": "boarding",
}

// NormalizeServiceKind lowercases kind, strips spaces, hyphens and underscores,
// then resolves synonyms, so "House-Sitting" and "housesitting" compare equal.
func NormalizeServiceKind(kind string) string {
	var b strings.Builder
	b.Grow(len(kind))
	for _, r := range strings.ToLower(strings.TrimSpace(kind)) {
		if r == ' ' || r == '-' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	key := b.String()
	if canonical, ok := serviceKindSynonyms[key]; ok {
		return canonical
	}
	return key
}

// CapitalizeKind returns kind with the first letter upper-cased and the rest lower.
func CapitalizeKind(kind string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(kind)
	return string(unicode.ToUpper(first)) + strings.ToLower(kind[size:])
}
