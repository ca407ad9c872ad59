package game

import (
	"math"
	"strings"
)

const (
	MinWordLength = 3

	BaseCorrectPoints = 10
	FirstCorrectBonus = 5
	MathTolerance     = 1e-3
	vowelPoints       = 1
	consonantPoints   = 2
	mediumLengthBonus = 1
	longLengthBonus   = 3
	mediumLengthMin   = 4
	longLengthExceeds = 5
)

// WordScore is the point value of a word judged valid: vowels score 1,
// consonants 2, plus 1 for four or five letters and 3 beyond five.
func WordScore(word string) int {
	word = strings.ToUpper(word)
	score := 0
	n := 0
	for _, c := range word {
		n++
		if isVowel(c) {
			score += vowelPoints
		} else {
			score += consonantPoints
		}
	}
	switch {
	case n > longLengthExceeds:
		score += longLengthBonus
	case n >= mediumLengthMin:
		score += mediumLengthBonus
	}
	return score
}

// CanCompose reports whether word can be spelled from letters, using each
// letter at most as many times as it appears.
func CanCompose(word string, letters []string) bool {
	avail := make(map[rune]int, len(letters))
	for _, l := range letters {
		for _, c := range strings.ToUpper(l) {
			avail[c]++
		}
	}
	for _, c := range strings.ToUpper(word) {
		if avail[c] == 0 {
			return false
		}
		avail[c]--
	}
	return true
}

// JudgeWord applies the word rule. Invalid words score 0.
func JudgeWord(word string, letters []string, v WordValidator) (valid bool, score int) {
	word = strings.ToUpper(strings.TrimSpace(word))
	if len([]rune(word)) < MinWordLength || !CanCompose(word, letters) {
		return false, 0
	}
	if v == nil || !v.IsValid(word) {
		return false, 0
	}
	return true, WordScore(word)
}

func MathCorrect(got, want float64) bool {
	if math.IsNaN(got) || math.IsInf(got, 0) {
		return false
	}
	return math.Abs(got-want) < MathTolerance
}

// DifficultyBonus is the extra reward for a correct quiz answer in
// difficulty scoring mode.
func DifficultyBonus(d Difficulty) int {
	switch d {
	case DifficultyMedium:
		return 5
	case DifficultyHard:
		return 10
	default:
		return 0
	}
}

// CorrectAnswerScore returns the points for a correct math or quiz answer.
func CorrectAnswerScore(first bool, mode QuizScoring, d Difficulty) int {
	if mode == QuizScoringDifficulty {
		return BaseCorrectPoints + DifficultyBonus(d)
	}
	if first {
		return BaseCorrectPoints + FirstCorrectBonus
	}
	return BaseCorrectPoints
}

// Winner returns the player with the strictly highest score. A tie at the
// top, or no players, yields no winner.
func Winner(players []Player) (int64, bool) {
	if len(players) == 0 {
		return 0, false
	}
	best := players[0]
	tied := false
	for _, p := range players[1:] {
		switch {
		case p.Score > best.Score:
			best = p
			tied = false
		case p.Score == best.Score:
			tied = true
		}
	}
	if tied {
		return 0, false
	}
	return best.ID, true
}
