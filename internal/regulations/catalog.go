// Package regulations holds the classroom usage regulations that reservation
// purposes are judged against, together with the deterministic screening and
// instruction rendering built on top of them.
package regulations

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Regulation is a single numbered classroom rule.
type Regulation struct {
	ID       string   `yaml:"id" validate:"required"`
	Title    string   `yaml:"title" validate:"required"`
	Text     string   `yaml:"text" validate:"required"`
	Patterns []string `yaml:"patterns"`
	Cues     []string `yaml:"cues"`

	matchers    []*regexp.Regexp
	cueMatchers []*regexp.Regexp
}

// Catalog is the ordered set of regulations plus the vocabulary used to
// decide whether a purpose is detailed enough to judge.
type Catalog struct {
	Version         string       `yaml:"version"`
	MinPurposeWords int          `yaml:"min_purpose_words" validate:"gte=0"`
	VagueTerms      []string     `yaml:"vague_terms"`
	Regulations     []Regulation `yaml:"regulations" validate:"required,min=1,dive"`

	hash  string
	vague map[string]struct{}
}

// Match is a regulation whose patterns or cues hit the screened text.
type Match struct {
	Regulation *Regulation
	Phrase     string
}

var validate = validator.New()

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from path, or returns the built-in catalog when path
// is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regulation catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog and compiles its patterns.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse regulation catalog: %w", err)
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid regulation catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Regulations))
	for i := range c.Regulations {
		r := &c.Regulations[i]
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("invalid regulation catalog: duplicate regulation id %q", r.ID)
		}
		seen[r.ID] = struct{}{}

		r.Title = strings.TrimSpace(r.Title)
		r.Text = strings.TrimSpace(r.Text)
		var err error
		if r.matchers, err = compilePatterns(r.ID, r.Patterns); err != nil {
			return nil, err
		}
		if r.cueMatchers, err = compilePatterns(r.ID, r.Cues); err != nil {
			return nil, err
		}
	}

	c.vague = make(map[string]struct{}, len(c.VagueTerms))
	for _, term := range c.VagueTerms {
		c.vague[Normalize(term)] = struct{}{}
	}

	sum := sha256.Sum256(data)
	c.hash = "sha256:" + hex.EncodeToString(sum[:])

	return &c, nil
}

// Hash identifies the catalog contents.
func (c *Catalog) Hash() string {
	return c.hash
}

// Lookup finds a regulation by id.
func (c *Catalog) Lookup(id string) (*Regulation, bool) {
	for i := range c.Regulations {
		if c.Regulations[i].ID == id {
			return &c.Regulations[i], true
		}
	}
	return nil, false
}

// Screen returns every regulation the text plainly violates, in catalog
// order. Each regulation is reported at most once, with the first phrase
// that matched.
func (c *Catalog) Screen(text string) []Match {
	return c.scan(text, func(r *Regulation) []*regexp.Regexp { return r.matchers })
}

// Flag returns the regulations whose topic the text merely mentions. A flag
// is a hint for the reasoning substrate, not a violation.
func (c *Catalog) Flag(text string) []Match {
	return c.scan(text, func(r *Regulation) []*regexp.Regexp { return r.cueMatchers })
}

func (c *Catalog) scan(text string, matchers func(*Regulation) []*regexp.Regexp) []Match {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	var matches []Match
	for i := range c.Regulations {
		r := &c.Regulations[i]
		for _, re := range matchers(r) {
			if phrase := re.FindString(normalized); phrase != "" {
				matches = append(matches, Match{Regulation: r, Phrase: phrase})
				break
			}
		}
	}
	return matches
}

func compilePatterns(id string, patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("regulation %s: compile pattern %q: %w", id, p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// IsVagueTerm reports whether word carries no detail on its own.
func (c *Catalog) IsVagueTerm(word string) bool {
	_, ok := c.vague[Normalize(word)]
	return ok
}

// Normalize applies NFKC, case folding and whitespace collapsing so that
// patterns see one canonical spelling of the text.
func Normalize(text string) string {
	folded := cases.Fold().String(norm.NFKC.String(text))
	return strings.Join(strings.FieldsFunc(folded, unicode.IsSpace), " ")
}
