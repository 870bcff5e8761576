package i18n

import (
	"fmt"
	"sort"
	"strings"
)

// Translator resolves message keys to localized text.
type Translator struct {
	bundle *Bundle
}

// NewTranslator returns a Translator over bundle. A nil bundle translates
// every key to itself.
func NewTranslator(bundle *Bundle) *Translator {
	return &Translator{bundle: bundle}
}

// Translate returns the message for key in locale with {name} placeholders
// replaced from vars. Unknown keys are returned unchanged.
func (t *Translator) Translate(locale, key string, vars map[string]any) string {
	msg := key
	if t != nil && t.bundle != nil {
		if found, ok := t.bundle.Message(locale, key); ok {
			msg = found
		}
	}
	if len(vars) == 0 || !strings.Contains(msg, "{") {
		return msg
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(vars)*2)
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(vars[name]))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}
