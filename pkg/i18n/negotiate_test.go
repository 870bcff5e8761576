package i18n_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-infernum/pkg/i18n"
)

func TestResolveLocale(t *testing.T) {
	supported := []string{"en-US", "de-DE"}

	tests := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{name: "no hints", target: "/", want: "en-US"},
		{name: "query parameter", target: "/?lang=de-de", want: "de-DE"},
		{name: "unsupported query falls through", target: "/?lang=fr-FR", accept: "de", want: "de-DE"},
		{name: "accept language", target: "/", accept: "de-DE,de;q=0.9,en;q=0.5", want: "de-DE"},
		{name: "unmatched accept language", target: "/", accept: "ja-JP", want: "en-US"},
		{name: "malformed header", target: "/", accept: "@@@", want: "en-US"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			assert.Equal(t, tt.want, i18n.ResolveLocale(r, supported, "en-US"))
		})
	}

	assert.Equal(t, "en-US", i18n.ResolveLocale(nil, supported, "en-US"))
}
