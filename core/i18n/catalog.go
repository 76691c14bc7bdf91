// Package i18n loads the UI message catalogs (one flat JSON object per language)
// and exposes them through go-playground's universal translator.
package i18n

import (
	"encoding/json"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/ca"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/pkg/errors"
)

// DefaultLanguage is used when a requested language is not supported.
const DefaultLanguage = "es"

var supported = map[string]func() locales.Translator{
	"es": es.New,
	"ca": ca.New,
	"en": en.New,
}

type Catalog struct {
	mu       sync.RWMutex
	uni      *ut.UniversalTranslator
	messages map[string]map[string]string // {lang: {key: text}}
	fallback string
}

// New builds a catalog from the `<lang>.json` files found in dir of fsys.
func New(fsys fs.FS, dir, fallback string) (*Catalog, error) {
	if _, ok := supported[fallback]; !ok {
		fallback = DefaultLanguage
	}
	fb := supported[fallback]()
	others := make([]locales.Translator, 0, len(supported))
	for _, lang := range sortedLanguages() {
		others = append(others, supported[lang]())
	}

	c := &Catalog{
		uni:      ut.New(fb, others...),
		messages: make(map[string]map[string]string, len(supported)),
		fallback: fallback,
	}
	for _, lang := range sortedLanguages() {
		data, err := fs.ReadFile(fsys, path.Join(dir, lang+".json"))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Wrapf(err, "reading %s catalog", lang)
		}
		if err = c.load(lang, data); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadDir (re)loads the `<lang>.json` files present in a directory on disk on top of the current
// catalogs; missing files are skipped.
func (c *Catalog) LoadDir(dir string) error {
	for _, lang := range sortedLanguages() {
		data, err := os.ReadFile(filepath.Join(dir, lang+".json"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "reading %s catalog", lang)
		}
		if err = c.load(lang, data); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) load(lang string, data []byte) error {
	msgs := make(map[string]string)
	if err := json.Unmarshal(data, &msgs); err != nil {
		return errors.Wrapf(err, "decoding %s catalog", lang)
	}

	trans, _ := c.uni.GetTranslator(lang)

	c.mu.Lock()
	defer c.mu.Unlock()
	// keys are merged: a partial file only overrides what it names
	merged := make(map[string]string, len(c.messages[lang])+len(msgs))
	for key, text := range c.messages[lang] {
		merged[key] = text
	}
	for key, text := range msgs {
		if err := trans.Add(key, text, true); err != nil {
			return errors.Wrapf(err, "adding %s translation %q", lang, key)
		}
		merged[key] = text
	}
	c.messages[lang] = merged
	return nil
}

// Supported normalizes lang ("es-ES" -> "es") and reports whether a catalog exists for it.
func (c *Catalog) Supported(lang string) (string, bool) {
	lang = baseLanguage(lang)
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.messages[lang]
	return lang, ok
}

// Resolve returns lang when supported, else the fallback language.
func (c *Catalog) Resolve(lang string) string {
	if l, ok := c.Supported(lang); ok {
		return l
	}
	return c.fallback
}

// T returns the translation of key in lang, or "[key]" when there is none.
func (c *Catalog) T(lang, key string) string {
	lang = c.Resolve(lang)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if text, ok := c.messages[lang][key]; ok && text != "" {
		return text
	}
	return "[" + key + "]"
}

// Messages returns a copy of the whole catalog of lang (fallback language when unsupported).
func (c *Catalog) Messages(lang string) (string, map[string]string) {
	lang = c.Resolve(lang)
	c.mu.RLock()
	defer c.mu.RUnlock()
	msgs := make(map[string]string, len(c.messages[lang]))
	for k, v := range c.messages[lang] {
		msgs[k] = v
	}
	return lang, msgs
}

func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	langs := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Translator returns the universal translator of lang, used for validation messages.
func (c *Catalog) Translator(lang string) ut.Translator {
	trans, _ := c.uni.GetTranslator(c.Resolve(lang))
	return trans
}

// Translators returns one translator per supported language.
func (c *Catalog) Translators() []ut.Translator {
	trans := make([]ut.Translator, 0, len(supported))
	for _, lang := range sortedLanguages() {
		t, _ := c.uni.GetTranslator(lang)
		trans = append(trans, t)
	}
	return trans
}

// MatchAcceptLanguage picks the first supported language of an Accept-Language header value.
func (c *Catalog) MatchAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" || tag == "*" {
			continue
		}
		if lang, ok := c.Supported(tag); ok {
			return lang
		}
	}
	return c.fallback
}

func baseLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return tag
}

func sortedLanguages() []string {
	langs := make([]string, 0, len(supported))
	for lang := range supported {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
