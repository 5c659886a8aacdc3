package directory

import (
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Locale controls string ordering and date display.
type Locale struct {
	Tag language.Tag
}

// ParseLocale returns the locale for a BCP 47 tag, falling back to en-US.
func ParseLocale(s string) Locale {
	tag, err := language.Parse(s)
	if err != nil {
		return Locale{Tag: language.AmericanEnglish}
	}
	return Locale{Tag: tag}
}

// Collator returns a fresh collator. Collators are not safe for concurrent
// use, so each render gets its own.
func (l Locale) Collator() *collate.Collator {
	return collate.New(l.Tag)
}

// FormatDate renders t the way a short localized date reads in l.
func (l Locale) FormatDate(t time.Time) string {
	base, _ := l.Tag.Base()
	region, _ := l.Tag.Region()
	switch base.String() {
	case "en":
		switch region.String() {
		case "US", "ZZ", "PH":
			return t.Format("1/2/2006")
		case "CA":
			return t.Format("2006-01-02")
		default:
			return t.Format("02/01/2006")
		}
	case "es", "pt", "it", "fr", "vi":
		return t.Format("2/1/2006")
	case "de", "ru", "pl":
		return t.Format("2.1.2006")
	case "ja", "zh", "ko":
		return t.Format("2006/1/2")
	default:
		return t.Format("2006-01-02")
	}
}
