package game

import "math/rand/v2"

const (
	DefaultLetterCount = 7
	vowels             = "AEIOU"
	consonants         = "BCDFGHJKLMNPQRSTVWXYZ"
	vowelRatio         = 0.4
)

// minVowels is the vowel count a letter set of size count must carry for
// word formation to be feasible.
func minVowels(count int) int {
	n := int(float64(count) * vowelRatio)
	if n < 1 && count > 0 {
		n = 1
	}
	return n
}

// GenerateLetters returns count uppercase letters holding exactly
// minVowels(count) vowels, in random order. A non-positive count falls
// back to DefaultLetterCount.
func GenerateLetters(r *rand.Rand, count int) []string {
	if count <= 0 {
		count = DefaultLetterCount
	}
	target := minVowels(count)

	letters := make([]string, 0, count)
	vowelCount := 0
	for i := 0; i < count; i++ {
		remaining := count - i
		needed := target - vowelCount

		var pickVowel bool
		switch {
		case needed >= remaining:
			pickVowel = true
		case vowelCount >= target:
			pickVowel = false
		default:
			pickVowel = r.Float64() < vowelRatio
		}

		if pickVowel {
			letters = append(letters, string(vowels[r.IntN(len(vowels))]))
			vowelCount++
		} else {
			letters = append(letters, string(consonants[r.IntN(len(consonants))]))
		}
	}

	r.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })
	return letters
}

func isVowel(c rune) bool {
	switch c {
	case 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}
