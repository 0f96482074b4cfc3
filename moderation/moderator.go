package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// leet maps look-alike characters back to the letter they stand for.
var leet = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e', '€': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
}

// Moderator masks forbidden words in message text.
// Matching ignores case, punctuation and common leet speak substitutions.
type Moderator struct {
	log          *slog.Logger
	matcher      *goahocorasick.Machine
	censoredChar rune
}

// folded is a text reduced to the letters the matcher compares.
// at[i] is the position in the source text of runes[i].
type folded struct {
	runes []rune
	at    []int
}

func fold(source []rune) folded {
	f := folded{runes: make([]rune, 0, len(source)), at: make([]int, 0, len(source))}
	for i, r := range source {
		if letter, ok := leet[r]; ok {
			r = letter
		}
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		f.runes = append(f.runes, unicode.ToLower(r))
		f.at = append(f.at, i)
	}
	return f
}

// NewModerator builds the Aho-Corasick automaton over the folded dictionary.
// Words made only of punctuation are skipped, an empty dictionary gives a moderator masking nothing.
func NewModerator(censoredWords []string, censoredChar rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		if f := fold([]rune(word)); len(f.runes) > 0 {
			patterns = append(patterns, f.runes)
		}
	}

	mod := &Moderator{log: log, censoredChar: censoredChar}
	if len(patterns) == 0 {
		log.Debug("No censored word configured")
		return mod, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	mod.matcher = machine
	log.Debug("Moderator ready", "words", len(patterns))
	return mod, nil
}

// Censor masks every rune of the source text covered by a match, separators in between included.
// It returns the masked text and the matched dictionary words, in order of appearance.
func (m *Moderator) Censor(text string) (string, []string) {
	if m == nil || m.matcher == nil {
		return text, nil
	}
	source := []rune(text)
	f := fold(source)
	if len(f.runes) == 0 {
		return text, nil
	}

	hits := m.matcher.MultiPatternSearch(f.runes, false)
	if len(hits) == 0 {
		return text, nil
	}

	words := make([]string, 0, len(hits))
	for _, hit := range hits {
		first, last := hit.Pos, hit.Pos+len(hit.Word)-1
		if first < 0 || last >= len(f.at) {
			continue
		}
		for i := f.at[first]; i <= f.at[last]; i++ {
			source[i] = m.censoredChar
		}
		words = append(words, string(hit.Word))
	}
	return string(source), words
}
