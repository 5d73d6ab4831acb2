package sanitizer

import (
	"regexp"
	"strings"

	"tourbook/pkg/model"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reKeepLettersDigits = regexp.MustCompile(`[^0-9\p{L}]+`)
	reTrimHyphens       = regexp.MustCompile(`-+`)
)

func trimAndLower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

func collapseHyphens(s string) string {
	s = reTrimHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Slugify derives the url slug of a tour name.
func Slugify(input string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reKeepLettersDigits.ReplaceAllString(s, "-") },
		collapseHyphens,
	}
	return p.Apply(input)
}

func NormalizeEmail(email string) string {
	return trimAndLower(email)
}

// SanitizeTraveler normalizes a traveler in place. A phone that cannot be
// parsed is kept as typed so the validator reports it.
func SanitizeTraveler(t *model.Traveler) {
	t.FullName = NormalizeName(t.FullName)
	t.Email = NormalizeEmail(t.Email)
	t.PassportNumber = strings.ToUpper(strings.TrimSpace(t.PassportNumber))

	phone := strings.TrimSpace(t.Phone)
	if normalized := NormalizePhone(phone); normalized != "" {
		phone = normalized
	}
	t.Phone = phone
}

func SanitizeTravelers(travelers []model.Traveler) []model.Traveler {
	for i := range travelers {
		SanitizeTraveler(&travelers[i])
	}
	return travelers
}
