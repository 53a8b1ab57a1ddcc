// game/namegen.go
package game

import (
	_ "embed"
	"math/rand"
	"strconv"
	"strings"
)

//go:embed assets/adjectives.txt
var adjectivesRaw string

//go:embed assets/nouns.txt
var nounsRaw string

var (
	adjectives = splitWords(adjectivesRaw)
	nouns      = splitWords(nounsRaw)
)

func splitWords(raw string) []string {
	var words []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			words = append(words, line)
		}
	}
	return words
}

// GeneratePIN returns a numeric access code of the given length.
func GeneratePIN(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteString(strconv.Itoa(rand.Intn(10)))
	}
	return b.String()
}

// GenerateUniqueName picks an adjective-noun display name not already held by
// any of the given players.
func GenerateUniqueName(players []*Player) string {
	taken := make(map[string]bool, len(players))
	for _, p := range players {
		taken[p.Name] = true
	}

	for {
		name := adjectives[rand.Intn(len(adjectives))] + " " + nouns[rand.Intn(len(nouns))]
		if !taken[name] {
			return name
		}
	}
}
