package i18n

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Layouts are the date and time layouts used for one locale.
type Layouts struct {
	Date string
	Time string
}

// DefaultLayouts applies to locales without an entry in the formatter.
var DefaultLayouts = Layouts{Date: "2006-01-02", Time: "15:04"}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithLayouts sets the date and time layouts of locale.
func WithLayouts(locale string, layouts Layouts) FormatterOption {
	return func(f *Formatter) {
		f.layouts[locale] = layouts
	}
}

// WithLocation formats times in loc instead of their own location.
func WithLocation(loc *time.Location) FormatterOption {
	return func(f *Formatter) {
		f.location = loc
	}
}

// Formatter renders numbers, money and dates for a locale.
type Formatter struct {
	layouts  map[string]Layouts
	location *time.Location
}

// NewFormatter returns a Formatter with layouts for the bundled locales.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		layouts: map[string]Layouts{
			"en-US": {Date: "01/02/2006", Time: "3:04 PM"},
			"en-GB": {Date: "02/01/2006", Time: "15:04"},
			"de-DE": {Date: "02.01.2006", Time: "15:04"},
			"fr-FR": {Date: "02/01/2006", Time: "15:04"},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Number formats n with exactly decimals fraction digits and locale grouping.
func (f *Formatter) Number(locale string, n float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return printer(locale).Sprint(number.Decimal(n, number.Scale(decimals)))
}

// Money formats amount in the ISO 4217 currency code using the locale's
// symbol, e.g. "$ 12.50".
func (f *Formatter) Money(locale string, amount float64, code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("i18n: currency %q: %w", code, err)
	}
	return printer(locale).Sprint(currency.Symbol(unit.Amount(amount))), nil
}

// Date formats the date part of t.
func (f *Formatter) Date(locale string, t time.Time) string {
	return f.in(t).Format(f.layoutsFor(locale).Date)
}

// Time formats the time-of-day part of t.
func (f *Formatter) Time(locale string, t time.Time) string {
	return f.in(t).Format(f.layoutsFor(locale).Time)
}

func (f *Formatter) in(t time.Time) time.Time {
	if f.location != nil {
		return t.In(f.location)
	}
	return t
}

func (f *Formatter) layoutsFor(locale string) Layouts {
	if l, ok := f.layouts[locale]; ok {
		return l
	}
	return DefaultLayouts
}

func printer(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(BaseLocale)
	}
	return message.NewPrinter(tag)
}
