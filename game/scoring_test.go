package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordScore(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"ant", 5},
		{"rain", 7},
		{"stain", 9},
		{"trains", 13},
		{"STAR", 8},
	}
	for _, tc := range tests {
		t.Run(tc.word, func(t *testing.T) {
			assert.Equal(t, tc.want, WordScore(tc.word))
		})
	}
}

func TestCanCompose(t *testing.T) {
	letters := []string{"A", "E", "I", "R", "S", "T", "N"}
	assert.True(t, CanCompose("rain", letters))
	assert.True(t, CanCompose("STAIN", letters))
	assert.False(t, CanCompose("tent", letters), "T appears once")
	assert.False(t, CanCompose("bat", letters))
}

func TestJudgeWord(t *testing.T) {
	letters := []string{"A", "E", "I", "R", "S", "T", "N"}
	dict := DefaultWordList()

	tests := []struct {
		name      string
		word      string
		wantValid bool
		wantScore int
	}{
		{name: "rain scores seven", word: "RAIN", wantValid: true, wantScore: 7},
		{name: "lowercase and padded", word: "  train ", wantValid: true, wantScore: 9},
		{name: "too short", word: "at", wantValid: false},
		{name: "missing letter", word: "brain", wantValid: false},
		{name: "long word", word: "stain", wantValid: true, wantScore: 9},
		{name: "reused letter", word: "tart", wantValid: false},
		{name: "not a word", word: "rnst", wantValid: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			valid, score := JudgeWord(tc.word, letters, dict)
			assert.Equal(t, tc.wantValid, valid)
			assert.Equal(t, tc.wantScore, score)
		})
	}
}

func TestJudgeWord_NilValidator(t *testing.T) {
	valid, score := JudgeWord("rain", []string{"R", "A", "I", "N"}, nil)
	assert.False(t, valid)
	assert.Zero(t, score)
}

func TestMathCorrect(t *testing.T) {
	assert.True(t, MathCorrect(20, 20))
	assert.True(t, MathCorrect(20.0005, 20))
	assert.False(t, MathCorrect(20.002, 20))
	assert.False(t, MathCorrect(math.NaN(), 20))
	assert.False(t, MathCorrect(math.Inf(1), 20))
}

func TestCorrectAnswerScore(t *testing.T) {
	assert.Equal(t, 15, CorrectAnswerScore(true, QuizScoringFirstCorrect, DifficultyEasy))
	assert.Equal(t, 10, CorrectAnswerScore(false, QuizScoringFirstCorrect, DifficultyHard))
	assert.Equal(t, 10, CorrectAnswerScore(true, QuizScoringDifficulty, DifficultyEasy))
	assert.Equal(t, 15, CorrectAnswerScore(false, QuizScoringDifficulty, DifficultyMedium))
	assert.Equal(t, 20, CorrectAnswerScore(false, QuizScoringDifficulty, DifficultyHard))
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name    string
		players []Player
		wantID  int64
		wantOK  bool
	}{
		{name: "no players"},
		{name: "single player", players: []Player{{ID: 1, Score: 0}}, wantID: 1, wantOK: true},
		{name: "strict top", players: []Player{{ID: 1, Score: 10}, {ID: 2, Score: 30}, {ID: 3, Score: 20}}, wantID: 2, wantOK: true},
		{name: "tie at top", players: []Player{{ID: 1, Score: 30}, {ID: 2, Score: 30}, {ID: 3, Score: 5}}},
		{name: "tie below top", players: []Player{{ID: 1, Score: 5}, {ID: 2, Score: 5}, {ID: 3, Score: 40}}, wantID: 3, wantOK: true},
		{name: "tie broken later", players: []Player{{ID: 1, Score: 10}, {ID: 2, Score: 10}, {ID: 3, Score: 11}}, wantID: 3, wantOK: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := Winner(tc.players)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestWordList(t *testing.T) {
	wl := DefaultWordList()
	assert.Greater(t, wl.Len(), 500)
	assert.True(t, wl.IsValid("RAIN"))
	assert.False(t, wl.IsValid("zzzq"))

	custom := NewWordList("Foo", " bar ")
	assert.True(t, custom.IsValid("foo"))
	assert.True(t, custom.IsValid("BAR"))
	assert.False(t, custom.IsValid("ba"))
}
