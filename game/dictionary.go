package game

import (
	"bufio"
	_ "embed"
	"strings"
)

// WordValidator decides whether a word exists. Implementations must be safe
// for concurrent use and must not block: they are consulted while a game is
// locked.
type WordValidator interface {
	IsValid(word string) bool
}

// WordValidatorFunc adapts a function to WordValidator.
type WordValidatorFunc func(word string) bool

func (f WordValidatorFunc) IsValid(word string) bool { return f(word) }

//go:embed words.txt
var embeddedWords string

// WordList is an in-memory word set. It is read-only after construction.
type WordList struct {
	words map[string]struct{}
}

func NewWordList(words ...string) *WordList {
	wl := &WordList{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		wl.words[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return wl
}

// DefaultWordList returns the word list bundled with the binary.
func DefaultWordList() *WordList {
	wl := &WordList{words: make(map[string]struct{})}
	sc := bufio.NewScanner(strings.NewReader(embeddedWords))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		wl.words[strings.ToLower(line)] = struct{}{}
	}
	return wl
}

func (wl *WordList) IsValid(word string) bool {
	if len(word) < MinWordLength {
		return false
	}
	_, ok := wl.words[strings.ToLower(word)]
	return ok
}

func (wl *WordList) Len() int { return len(wl.words) }
