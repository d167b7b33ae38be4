package domain

import "strings"

type SourceTypeInfo struct {
	Value SourceType
	Label string
	Icon  string
	Badge string
}

var sourceTypes = []SourceTypeInfo{
	{Value: SourceQuran, Label: "Quran", Icon: "📖", Badge: "badge-emerald"},
	{Value: SourceHadith, Label: "Hadith", Icon: "📜", Badge: "badge-amber"},
	{Value: SourceTafsir, Label: "Tafsir", Icon: "💬", Badge: "badge-purple"},
	{Value: SourceFiqh, Label: "Fiqh", Icon: "⚖️", Badge: "badge-blue"},
	{Value: SourceAqeedah, Label: "Aqeedah", Icon: "🛡️", Badge: "badge-orange"},
	{Value: SourceSeerah, Label: "Seerah", Icon: "🕌", Badge: "badge-teal"},
	{Value: SourceBook, Label: "Book", Icon: "📚", Badge: "badge-rose"},
}

const neutralBadge = "badge-slate"

// SourceTypes returns the closed catalog in display order.
func SourceTypes() []SourceTypeInfo {
	out := make([]SourceTypeInfo, len(sourceTypes))
	copy(out, sourceTypes)
	return out
}

// LookupSourceType resolves catalog info; unknown values are echoed verbatim with a neutral badge.
func LookupSourceType(value SourceType) (SourceTypeInfo, bool) {
	for _, info := range sourceTypes {
		if info.Value == value {
			return info, true
		}
	}
	return SourceTypeInfo{Value: value, Label: string(value), Badge: neutralBadge}, false
}

func ParseSourceType(raw string) (SourceType, bool) {
	value := SourceType(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := LookupSourceType(value)
	return value, ok
}

func sourceTypeRank(value SourceType) int {
	for i, info := range sourceTypes {
		if info.Value == value {
			return i
		}
	}
	return len(sourceTypes)
}

// CompareSourceTypes orders by catalog position, then lexically for unknown values.
func CompareSourceTypes(a, b SourceType) int {
	ra, rb := sourceTypeRank(a), sourceTypeRank(b)
	if ra != rb {
		return ra - rb
	}
	return strings.Compare(string(a), string(b))
}

type LanguageInfo struct {
	Code  string
	Label string
	Flag  string
}

var languages = []LanguageInfo{
	{Code: "ar", Label: "Arabic", Flag: "🇸🇦"},
	{Code: "ru", Label: "Russian", Flag: "🇷🇺"},
	{Code: "kk", Label: "Kazakh", Flag: "🇰🇿"},
}

func Languages() []LanguageInfo {
	out := make([]LanguageInfo, len(languages))
	copy(out, languages)
	return out
}

func LookupLanguage(code string) (LanguageInfo, bool) {
	for _, info := range languages {
		if info.Code == code {
			return info, true
		}
	}
	return LanguageInfo{Code: code, Label: code}, false
}

const (
	DefaultSourceType = SourceQuran
	DefaultLanguage   = "ar"
)
