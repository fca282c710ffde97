package responder

import (
	_ "embed"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"gopkg.in/yaml.v3"
)

//go:embed intents.yaml
var defaultIntents []byte

// Intent is one tagged group of example sentences and canned answers.
type Intent struct {
	Tag       string   `yaml:"tag"`
	Patterns  []string `yaml:"patterns"`
	Responses []string `yaml:"responses"`
}

type compiledPattern struct {
	intent int
	bag    map[string]struct{}
}

// Classifier matches free text to the closest intent by bag-of-words overlap.
type Classifier struct {
	intents   []Intent
	patterns  []compiledPattern
	threshold float64
}

// New compiles intents. Matches scoring below threshold are reported as not understood.
func New(intents []Intent, threshold float64) (*Classifier, error) {
	c := &Classifier{intents: intents, threshold: threshold}
	for i, in := range intents {
		if len(in.Responses) == 0 {
			return nil, fmt.Errorf("intent %q has no responses", in.Tag)
		}
		for _, p := range in.Patterns {
			bag := bagOfWords(p)
			if len(bag) == 0 {
				continue
			}
			c.patterns = append(c.patterns, compiledPattern{intent: i, bag: bag})
		}
	}
	return c, nil
}

// Default builds a classifier from the embedded intents file.
func Default(threshold float64) (*Classifier, error) {
	var doc struct {
		Intents []Intent `yaml:"intents"`
	}
	if err := yaml.Unmarshal(defaultIntents, &doc); err != nil {
		return nil, fmt.Errorf("parsing intents: %w", err)
	}
	return New(doc.Intents, threshold)
}

// Respond returns the canned answer of the best matching intent, or false when
// nothing scored above the threshold.
func (c *Classifier) Respond(text string) (string, bool) {
	bag := bagOfWords(text)
	if len(bag) == 0 {
		return "", false
	}
	best, bestScore := -1, 0.0
	for _, p := range c.patterns {
		if s := cosine(bag, p.bag); s > bestScore {
			best, bestScore = p.intent, s
		}
	}
	if best < 0 || bestScore < c.threshold {
		return "", false
	}
	return c.intents[best].Responses[0], true
}

func tokenize(sentence string) []string {
	return strings.FieldsFunc(strings.ToLower(sentence), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func bagOfWords(sentence string) map[string]struct{} {
	bag := make(map[string]struct{})
	for _, w := range tokenize(sentence) {
		bag[english.Stem(w, false)] = struct{}{}
	}
	return bag
}

func cosine(a, b map[string]struct{}) float64 {
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(shared) / math.Sqrt(float64(len(a)*len(b)))
}
