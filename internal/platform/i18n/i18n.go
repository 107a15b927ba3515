// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package i18n holds the translated message templates used in outbound
notifications.

Every locale lives in an embedded JSON file (locales/<code>.json) mapping a
message key to a template with {{name}} placeholders. The [Catalog] is parsed
once at startup and is read-only afterwards, so it can be shared freely.

Lookup order for a key:

 1. The best match for the requested language (golang.org/x/text/language).
 2. The default language.
 3. The key itself.
*/
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFiles embed.FS

// Catalog is an immutable set of translated templates.
type Catalog struct {
	fallback  string
	languages []string
	messages  map[string]map[string]string
	matcher   language.Matcher
}

// Load parses the embedded locales. defaultLanguage must be one of them.
func Load(defaultLanguage string) (*Catalog, error) {
	return LoadFS(localeFiles, "locales", defaultLanguage)
}

// LoadFS parses every *.json file under dir in fsys.
func LoadFS(fsys fs.FS, dir string, defaultLanguage string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n_read_dir_failed: %w", err)
	}

	messages := make(map[string]map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}

		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("i18n_read_file_failed: %w", err)
		}

		table := make(map[string]string)
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("i18n_parse_failed: %s: %w", entry.Name(), err)
		}

		code := strings.TrimSuffix(entry.Name(), ".json")
		messages[code] = table
	}

	if _, ok := messages[defaultLanguage]; !ok {
		return nil, fmt.Errorf("i18n_default_language_missing: %q", defaultLanguage)
	}

	// The matcher falls back to its first tag, so the default goes first.
	languages := []string{defaultLanguage}
	for code := range messages {
		if code != defaultLanguage {
			languages = append(languages, code)
		}
	}
	sort.Strings(languages[1:])

	tags := make([]language.Tag, 0, len(languages))
	for _, code := range languages {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("i18n_invalid_locale: %q: %w", code, err)
		}
		tags = append(tags, tag)
	}

	return &Catalog{
		fallback:  defaultLanguage,
		languages: languages,
		messages:  messages,
		matcher:   language.NewMatcher(tags),
	}, nil
}

// Languages lists the supported codes, default first.
func (catalog *Catalog) Languages() []string {
	return append([]string(nil), catalog.languages...)
}

// Resolve maps a client-supplied code or Accept-Language value ("fr-CA",
// "rw;q=0.9, en") to a supported language code.
func (catalog *Catalog) Resolve(requested string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return catalog.fallback
	}

	tags, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(tags) == 0 {
		return catalog.fallback
	}

	_, index, confidence := catalog.matcher.Match(tags...)
	if confidence == language.No {
		return catalog.fallback
	}
	return catalog.languages[index]
}

// Text renders key in the requested language, substituting {{name}} params.
func (catalog *Catalog) Text(requested, key string, params map[string]string) string {
	template, ok := catalog.messages[catalog.Resolve(requested)][key]
	if !ok {
		template, ok = catalog.messages[catalog.fallback][key]
	}
	if !ok {
		return key
	}

	if len(params) == 0 {
		return template
	}

	replacements := make([]string, 0, len(params)*2)
	for name, value := range params {
		replacements = append(replacements, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(replacements...).Replace(template)
}
