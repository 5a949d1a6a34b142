// Package calendar is the date-locale engine the locale store keeps in sync
// with the selected language.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// DefaultLocale is used for unknown locales.
const DefaultLocale = "en"

// Names holds the localized month and weekday names for one language.
type Names struct {
	Months      [12]string
	ShortMonths [12]string
	Weekdays    [7]string
	// DayFirst renders "2 Jan 2006" instead of "Jan 2, 2006".
	DayFirst bool
}

var builtin = map[string]Names{
	"en": {
		Months:      [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		ShortMonths: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		Weekdays:    [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	},
	"tr": {
		Months:      [12]string{"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran", "Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"},
		ShortMonths: [12]string{"Oca", "Şub", "Mar", "Nis", "May", "Haz", "Tem", "Ağu", "Eyl", "Eki", "Kas", "Ara"},
		Weekdays:    [7]string{"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi"},
		DayFirst:    true,
	},
	"de": {
		Months:      [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		ShortMonths: [12]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
		Weekdays:    [7]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
		DayFirst:    true,
	},
}

// Engine tracks the active date locale.
type Engine struct {
	mu     sync.RWMutex
	locale string
	names  map[string]Names
}

func New() *Engine {
	names := make(map[string]Names, len(builtin))
	for code, n := range builtin {
		names[code] = n
	}
	return &Engine{locale: DefaultLocale, names: names}
}

// Register adds or replaces the names for code.
func (e *Engine) Register(code string, names Names) error {
	key, err := baseCode(code)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.names[key] = names
	e.mu.Unlock()
	return nil
}

// SetLocale switches the active locale. Region subtags are ignored; locales
// without names fall back to DefaultLocale.
func (e *Engine) SetLocale(code string) error {
	key, err := baseCode(code)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.names[key]; !ok {
		key = DefaultLocale
	}
	e.locale = key
	return nil
}

// Locale returns the active locale.
func (e *Engine) Locale() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.locale
}

// Locales lists locales with registered names.
func (e *Engine) Locales() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.names))
	for code := range e.names {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) current() Names {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.names[e.locale]
}

func (e *Engine) MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return e.current().Months[m-1]
}

func (e *Engine) Weekday(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return e.current().Weekdays[d]
}

// Format renders t as a short date in the active locale.
func (e *Engine) Format(t time.Time) string {
	names := e.current()
	month := names.ShortMonths[t.Month()-1]
	if names.DayFirst {
		return fmt.Sprintf("%d %s %d", t.Day(), month, t.Year())
	}
	return fmt.Sprintf("%s %d, %d", month, t.Day(), t.Year())
}

func baseCode(code string) (string, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	if err != nil {
		return "", fmt.Errorf("calendar: invalid locale %q: %w", code, err)
	}
	b, _ := tag.Base()
	return b.String(), nil
}
