package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

type Operation string

const (
	OpAny            Operation = ""
	OpAddition       Operation = "addition"
	OpSubtraction    Operation = "subtraction"
	OpMultiplication Operation = "multiplication"
	OpDivision       Operation = "division"
)

var operations = []Operation{OpAddition, OpSubtraction, OpMultiplication, OpDivision}

func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpAny, OpAddition, OpSubtraction, OpMultiplication, OpDivision:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOperation, s)
	}
}

// MathProblem is one arithmetic round. For division, Dividend and Divisor
// are set and Answer*Divisor == Dividend holds exactly.
type MathProblem struct {
	Problem   string    `json:"problem"`
	Answer    float64   `json:"answer"`
	Operation Operation `json:"operation"`
	Dividend  int       `json:"-"`
	Divisor   int       `json:"-"`
}

type span struct{ min, max int }

// Operand ranges per operation and difficulty. For division the first span
// bounds the quotient and the second the divisor.
var mathRanges = map[Operation]map[Difficulty][2]span{
	OpAddition: {
		DifficultyEasy:   {{1, 100}},
		DifficultyMedium: {{10, 1000}},
		DifficultyHard:   {{100, 9999}},
	},
	OpSubtraction: {
		DifficultyEasy:   {{1, 100}},
		DifficultyMedium: {{10, 1000}},
		DifficultyHard:   {{100, 9999}},
	},
	OpMultiplication: {
		DifficultyEasy:   {{1, 12}},
		DifficultyMedium: {{2, 50}},
		DifficultyHard:   {{5, 100}},
	},
	OpDivision: {
		DifficultyEasy:   {{1, 12}, {1, 12}},
		DifficultyMedium: {{2, 50}, {2, 15}},
		DifficultyHard:   {{5, 100}, {2, 20}},
	},
}

func between(r *rand.Rand, s span) int {
	return s.min + r.IntN(s.max-s.min+1)
}

// GenerateMathProblem builds a problem for the given difficulty. OpAny picks
// an operation uniformly at random.
func GenerateMathProblem(r *rand.Rand, d Difficulty, op Operation) (MathProblem, error) {
	if op == OpAny {
		op = operations[r.IntN(len(operations))]
	}
	byDifficulty, ok := mathRanges[op]
	if !ok {
		return MathProblem{}, fmt.Errorf("%w: %q", ErrInvalidOperation, op)
	}
	ranges, ok := byDifficulty[d]
	if !ok {
		return MathProblem{}, fmt.Errorf("%w: %q", ErrInvalidDifficulty, d)
	}

	switch op {
	case OpAddition:
		a, b := between(r, ranges[0]), between(r, ranges[0])
		return MathProblem{Problem: fmt.Sprintf("%d + %d", a, b), Answer: float64(a + b), Operation: op}, nil
	case OpSubtraction:
		a := between(r, ranges[0])
		b := between(r, span{ranges[0].min, min(a, ranges[0].max)})
		return MathProblem{Problem: fmt.Sprintf("%d - %d", a, b), Answer: float64(a - b), Operation: op}, nil
	case OpMultiplication:
		a, b := between(r, ranges[0]), between(r, ranges[0])
		return MathProblem{Problem: fmt.Sprintf("%d × %d", a, b), Answer: float64(a * b), Operation: op}, nil
	default:
		quotient := between(r, ranges[0])
		divisor := between(r, ranges[1])
		dividend := quotient * divisor
		return MathProblem{
			Problem:   fmt.Sprintf("%d ÷ %d", dividend, divisor),
			Answer:    float64(quotient),
			Operation: op,
			Dividend:  dividend,
			Divisor:   divisor,
		}, nil
	}
}
