// Package vocabulary holds the reference phrases commentary is scored against.
package vocabulary

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed goal_vocabulary.yaml
var defaultVocabulary []byte

// ErrEmpty is returned when a vocabulary has no usable phrases
var ErrEmpty = errors.New("vocabulary is empty")

// Vocabulary is an immutable, de-duplicated list of reference phrases
type Vocabulary struct {
	name    string
	phrases []string
	lowered []string
}

type vocabularyFile struct {
	Name    string   `yaml:"name"`
	Phrases []string `yaml:"phrases"`
}

// New builds a vocabulary, trimming phrases and dropping blanks and duplicates
func New(name string, phrases []string) (Vocabulary, error) {
	v := Vocabulary{name: name}
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		v.phrases = append(v.phrases, p)
		v.lowered = append(v.lowered, strings.ToLower(p))
	}
	if len(v.phrases) == 0 {
		return Vocabulary{}, ErrEmpty
	}
	return v, nil
}

// Default returns the built-in goal vocabulary
func Default() Vocabulary {
	v, err := Parse(defaultVocabulary)
	if err != nil {
		panic(fmt.Sprintf("built-in vocabulary is invalid: %v", err))
	}
	return v
}

// Load reads a vocabulary from a YAML file, or from a plain text file with one
// phrase per line and # comments
func Load(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err := Parse(data)
		if err != nil {
			return Vocabulary{}, fmt.Errorf("failed to load vocabulary %s: %w", path, err)
		}
		if v.name == "" {
			v.name = name
		}
		return v, nil
	default:
		return parseLines(name, data)
	}
}

// Parse decodes a YAML vocabulary document
func Parse(data []byte) (Vocabulary, error) {
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	return New(file.Name, file.Phrases)
}

func parseLines(name string, data []byte) (Vocabulary, error) {
	var phrases []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		phrases = append(phrases, line)
	}
	if err := scanner.Err(); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to scan vocabulary: %w", err)
	}
	return New(name, phrases)
}

// Name returns the vocabulary name
func (v Vocabulary) Name() string {
	return v.name
}

// Len returns the number of phrases
func (v Vocabulary) Len() int {
	return len(v.phrases)
}

// Phrases returns a copy of the phrases in their original order
func (v Vocabulary) Phrases() []string {
	return append([]string(nil), v.phrases...)
}

// ContainsLiteral reports whether any phrase occurs in text, ignoring case, and which one
func (v Vocabulary) ContainsLiteral(text string) (string, bool) {
	lower := strings.ToLower(text)
	for i, p := range v.lowered {
		if strings.Contains(lower, p) {
			return v.phrases[i], true
		}
	}
	return "", false
}

// Fingerprint identifies the phrase list, used to key cached embeddings
func (v Vocabulary) Fingerprint() string {
	h := sha256.New()
	for _, p := range v.phrases {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
