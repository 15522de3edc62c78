// Package namegen produces the throwaway display names assigned to fresh
// sessions, like "SwiftFalcon#0831".
package namegen

import (
	"crypto/rand"
	"embed"
	"fmt"
	"math/big"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed words.yaml
var wordFiles embed.FS

type catalog struct {
	Adjectives []string `yaml:"adjectives"`
	Nouns      []string `yaml:"nouns"`
}

var words = mustLoad()

func mustLoad() catalog {
	raw, err := wordFiles.ReadFile("words.yaml")
	if err != nil {
		panic(fmt.Sprintf("namegen: read embedded words: %v", err))
	}
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		panic(fmt.Sprintf("namegen: parse embedded words: %v", err))
	}
	if len(c.Adjectives) == 0 || len(c.Nouns) == 0 {
		panic("namegen: empty word catalog")
	}
	return c
}

// Generate returns a capitalized adjective+noun pair with a zero-padded
// numeric tag.
func Generate() string {
	adj := words.Adjectives[randomInt(len(words.Adjectives))]
	noun := words.Nouns[randomInt(len(words.Nouns))]
	tag := randomInt(1000)
	return fmt.Sprintf("%s%s#%04d", capitalize(adj), capitalize(noun), tag)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
