package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// LangParam is the query parameter that forces a locale.
const LangParam = "lang"

// ResolveLocale picks the request locale among supported: the lang query
// parameter when it names a supported locale, then the best Accept-Language
// match, then fallback.
func ResolveLocale(r *http.Request, supported []string, fallback string) string {
	if r == nil || len(supported) == 0 {
		return fallback
	}

	if forced := strings.TrimSpace(r.URL.Query().Get(LangParam)); forced != "" {
		for _, locale := range supported {
			if strings.EqualFold(locale, forced) {
				return locale
			}
		}
	}

	accept := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if accept == "" {
		return fallback
	}
	accepted, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(accepted) == 0 {
		return fallback
	}

	tags := make([]language.Tag, 0, len(supported))
	index := make([]string, 0, len(supported))
	for _, locale := range supported {
		if tag, err := language.Parse(locale); err == nil {
			tags = append(tags, tag)
			index = append(index, locale)
		}
	}
	if len(tags) == 0 {
		return fallback
	}

	_, i, confidence := language.NewMatcher(tags).Match(accepted...)
	if confidence == language.No {
		return fallback
	}
	return index[i]
}
