package namegen

import (
	"regexp"
	"testing"
)

var nickRe = regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+#[0-9]{4}$`)

func TestGenerate(t *testing.T) {
	for i := 0; i < 50; i++ {
		nick := Generate()
		if !nickRe.MatchString(nick) {
			t.Fatalf("nick %q does not match AdjectiveNoun#NNNN", nick)
		}
	}
}
