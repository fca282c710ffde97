package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"attendance_notice_bot/internal/domain/user"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Table is a flat key to string dictionary for one language.
type Table map[string]string

// Catalog holds the read-only tables loaded at startup.
type Catalog struct {
	tables   map[user.Language]Table
	fallback user.Language
}

// Load reads every <lang>.yaml file of fsys.
func Load(fsys fs.FS) (*Catalog, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("listing locale files: %w", err)
	}
	c := &Catalog{tables: make(map[user.Language]Table), fallback: user.LanguageJapanese}
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		var t Table
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		c.tables[user.Language(strings.TrimSuffix(path.Base(name), ".yaml"))] = t
	}
	if _, ok := c.tables[c.fallback]; !ok {
		return nil, fmt.Errorf("missing default locale %q", c.fallback)
	}
	return c, nil
}

// Default returns the catalog built from the embedded locale files.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// T looks key up in lang's table, then in the default table, then returns the key.
func (c *Catalog) T(lang user.Language, key string) string {
	if s, ok := c.tables[lang][key]; ok {
		return s
	}
	if s, ok := c.tables[c.fallback][key]; ok {
		return s
	}
	return key
}

// Tf formats the looked-up string with args.
func (c *Catalog) Tf(lang user.Language, key string, args ...any) string {
	return fmt.Sprintf(c.T(lang, key), args...)
}
