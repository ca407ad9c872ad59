package game

import (
	"fmt"
	"strings"
)

// Kind identifies one of the game varieties.
type Kind string

const (
	KindWord Kind = "word"
	KindMath Kind = "math"
	KindQuiz Kind = "quiz"
)

// Kinds lists every supported kind in lobby display order.
var Kinds = []Kind{KindWord, KindMath, KindQuiz}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindWord, KindMath, KindQuiz:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Status is the lifecycle state of a game instance.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	case "":
		return DifficultyMedium, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
}

// CompletionPolicy decides when a playing game becomes finished.
type CompletionPolicy string

const (
	// PolicyRounds finishes the game when the last of MaxRounds expires.
	PolicyRounds CompletionPolicy = "rounds"
	// PolicyTargetScore finishes the game at the first round boundary where
	// some player has reached TargetScore.
	PolicyTargetScore CompletionPolicy = "target"
)

// QuizScoring selects how a correct quiz answer is rewarded.
type QuizScoring string

const (
	QuizScoringFirstCorrect QuizScoring = "firstCorrect"
	QuizScoringDifficulty   QuizScoring = "difficulty"
)
