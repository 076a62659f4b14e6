package battle

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ToID normalises a display name into a lookup id: case-folded with every
// character that is not a letter or digit removed ("Run Away" -> "runaway").
func ToID(name string) string {
	folded := cases.Fold().String(name)
	var sb strings.Builder
	sb.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// DisplayName title-cases a hyphen or underscore separated id
// ("arena-trap" -> "Arena Trap").
func DisplayName(id string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return cases.Title(language.English).String(s)
}
