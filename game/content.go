package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Content is the material of one round. Only the fields belonging to the
// game's kind are populated.
type Content struct {
	Letters       []string
	Problem       string
	Answer        float64
	Question      string
	Options       []string
	CorrectOption int
	Category      Category
	Difficulty    Difficulty
}

// ContentSource produces round content. A Game calls it while locked, so a
// source needs no synchronization of its own when owned by a single game.
type ContentSource interface {
	Next(kind Kind) (Content, error)
}

type ContentSourceFunc func(kind Kind) (Content, error)

func (f ContentSourceFunc) Next(kind Kind) (Content, error) { return f(kind) }

var (
	fallbackLetters  = []string{"A", "E", "I", "R", "S", "T", "N"}
	fallbackProblem  = MathProblem{Problem: "1 + 1", Answer: 2, Operation: OpAddition}
	fallbackQuestion = QuizQuestion{
		Question:      "How many continents are there in the world?",
		Options:       []string{"5", "6", "7", "8"},
		CorrectOption: 2,
		Category:      "geography",
		Difficulty:    DifficultyEasy,
	}
)

// FallbackContent is the fixed trivial round used when generation fails.
func FallbackContent(kind Kind) Content {
	switch kind {
	case KindWord:
		return Content{Letters: append([]string(nil), fallbackLetters...)}
	case KindMath:
		return Content{Problem: fallbackProblem.Problem, Answer: fallbackProblem.Answer}
	default:
		return Content{
			Question:      fallbackQuestion.Question,
			Options:       append([]string(nil), fallbackQuestion.Options...),
			CorrectOption: fallbackQuestion.CorrectOption,
			Category:      fallbackQuestion.Category,
			Difficulty:    fallbackQuestion.Difficulty,
		}
	}
}

// RandomSource draws content from the built-in generators.
type RandomSource struct {
	r           *rand.Rand
	difficulty  Difficulty
	operation   Operation
	letterCount int
	category    Category
}

func NewRandomSource(r *rand.Rand, cfg Config) *RandomSource {
	if r == nil {
		now := uint64(time.Now().UnixNano())
		r = rand.New(rand.NewPCG(now, now>>1|1))
	}
	return &RandomSource{
		r:           r,
		difficulty:  cfg.Difficulty,
		operation:   cfg.Operation,
		letterCount: cfg.LetterCount,
		category:    cfg.Category,
	}
}

func (s *RandomSource) Next(kind Kind) (Content, error) {
	switch kind {
	case KindWord:
		return Content{Letters: GenerateLetters(s.r, s.letterCount)}, nil
	case KindMath:
		p, err := GenerateMathProblem(s.r, s.difficulty, s.operation)
		if err != nil {
			return Content{}, err
		}
		return Content{Problem: p.Problem, Answer: p.Answer}, nil
	case KindQuiz:
		var qq QuizQuestion
		if s.category == "" {
			qq = RandomQuestion(s.r)
		} else {
			var err error
			if qq, err = RandomQuestionFromCategory(s.r, s.category); err != nil {
				return Content{}, err
			}
		}
		return Content{
			Question:      qq.Question,
			Options:       qq.Options,
			CorrectOption: qq.CorrectOption,
			Category:      qq.Category,
			Difficulty:    qq.Difficulty,
		}, nil
	default:
		return Content{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

var errMalformedContent = errors.New("malformed round content")

// validate rejects content a round cannot be played with.
func (c Content) validate(kind Kind) error {
	switch kind {
	case KindWord:
		if len(c.Letters) == 0 {
			return fmt.Errorf("%w: no letters", errMalformedContent)
		}
	case KindMath:
		if c.Problem == "" {
			return fmt.Errorf("%w: empty problem", errMalformedContent)
		}
	case KindQuiz:
		if c.Question == "" || c.CorrectOption < 0 || c.CorrectOption >= len(c.Options) {
			return fmt.Errorf("%w: correct option %d of %d", errMalformedContent, c.CorrectOption, len(c.Options))
		}
	}
	return nil
}
