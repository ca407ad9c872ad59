package game

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

type Category string

type QuizQuestion struct {
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectOption int        `json:"correctOption"`
	Category      Category   `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
}

func q(question string, options []string, correct int, d Difficulty) QuizQuestion {
	return QuizQuestion{Question: question, Options: options, CorrectOption: correct, Difficulty: d}
}

var questionBank = map[Category][]QuizQuestion{
	"science": {
		q("What is the chemical symbol for gold?", []string{"Go", "Au", "Ag", "Gd"}, 1, DifficultyEasy),
		q("Which planet is known as the Red Planet?", []string{"Venus", "Jupiter", "Mars", "Saturn"}, 2, DifficultyEasy),
		q("What is the hardest natural substance on Earth?", []string{"Diamond", "Titanium", "Quartz", "Platinum"}, 0, DifficultyEasy),
		q("How many elements are in the periodic table?", []string{"92", "108", "118", "120"}, 2, DifficultyMedium),
		q("What is the largest organ in the human body?", []string{"Brain", "Liver", "Heart", "Skin"}, 3, DifficultyMedium),
	},
	"history": {
		q("In which year did World War II end?", []string{"1943", "1945", "1947", "1950"}, 1, DifficultyEasy),
		q("Who was the first President of the United States?", []string{"Thomas Jefferson", "John Adams", "George Washington", "Benjamin Franklin"}, 2, DifficultyEasy),
		q("The ancient city of Rome was built on how many hills?", []string{"Five", "Six", "Seven", "Nine"}, 2, DifficultyMedium),
		q("In which year did the Titanic sink?", []string{"1910", "1912", "1915", "1920"}, 1, DifficultyMedium),
		q("Which civilization built the Machu Picchu complex in Peru?", []string{"Aztec", "Maya", "Inca", "Olmec"}, 2, DifficultyHard),
	},
	"geography": {
		q("What is the capital of Australia?", []string{"Sydney", "Melbourne", "Canberra", "Perth"}, 2, DifficultyMedium),
		q("Which is the largest ocean on Earth?", []string{"Atlantic Ocean", "Indian Ocean", "Southern Ocean", "Pacific Ocean"}, 3, DifficultyEasy),
		q("How many continents are there in the world?", []string{"5", "6", "7", "8"}, 2, DifficultyEasy),
		q("Which desert is the largest in the world?", []string{"Gobi", "Kalahari", "Sahara", "Antarctic"}, 3, DifficultyHard),
		q("Which country is home to the Great Barrier Reef?", []string{"New Zealand", "Australia", "Indonesia", "Philippines"}, 1, DifficultyEasy),
	},
	"entertainment": {
		q("Who played the character of Harry Potter in the movie series?", []string{"Daniel Radcliffe", "Rupert Grint", "Emma Watson", "Tom Felton"}, 0, DifficultyEasy),
		q("Which band performed the album 'The Dark Side of the Moon'?", []string{"The Beatles", "Led Zeppelin", "Pink Floyd", "The Rolling Stones"}, 2, DifficultyMedium),
		q("In which year was the first episode of The Simpsons aired?", []string{"1987", "1989", "1991", "1993"}, 1, DifficultyHard),
		q("Who is known as the 'King of Pop'?", []string{"Elvis Presley", "Michael Jackson", "Prince", "David Bowie"}, 1, DifficultyEasy),
		q("Which movie won the Academy Award for Best Picture in 2020?", []string{"1917", "Joker", "Parasite", "Once Upon a Time in Hollywood"}, 2, DifficultyMedium),
	},
	"sports": {
		q("In which sport would you perform a slam dunk?", []string{"Volleyball", "Basketball", "Tennis", "Football"}, 1, DifficultyEasy),
		q("How many players are in a standard soccer team?", []string{"9", "10", "11", "12"}, 2, DifficultyEasy),
		q("Which country has won the most FIFA World Cups?", []string{"Germany", "Argentina", "Italy", "Brazil"}, 3, DifficultyMedium),
		q("In which Olympic sport would you perform a vault?", []string{"Swimming", "Gymnastics", "Track and Field", "Diving"}, 1, DifficultyEasy),
		q("What is the diameter of a basketball hoop in inches?", []string{"16", "18", "20", "22"}, 1, DifficultyHard),
	},
	"art": {
		q("Who painted the Mona Lisa?", []string{"Vincent van Gogh", "Pablo Picasso", "Leonardo da Vinci", "Michelangelo"}, 2, DifficultyEasy),
		q("Which art movement is Salvador Dalí associated with?", []string{"Impressionism", "Cubism", "Surrealism", "Pop Art"}, 2, DifficultyMedium),
		q("In which city is the Louvre Museum located?", []string{"Rome", "Paris", "London", "Madrid"}, 1, DifficultyEasy),
		q("Which famous artist cut off his own ear?", []string{"Pablo Picasso", "Claude Monet", "Vincent van Gogh", "Edvard Munch"}, 2, DifficultyMedium),
		q("Who sculpted the statue of David?", []string{"Leonardo da Vinci", "Donatello", "Michelangelo", "Raphael"}, 2, DifficultyMedium),
	},
	"literature": {
		q("Who wrote 'Romeo and Juliet'?", []string{"Charles Dickens", "Jane Austen", "William Shakespeare", "Mark Twain"}, 2, DifficultyEasy),
		q("What is the first book in J.K. Rowling's Harry Potter series?", []string{"Harry Potter and the Goblet of Fire", "Harry Potter and the Philosopher's Stone", "Harry Potter and the Chamber of Secrets", "Harry Potter and the Prisoner of Azkaban"}, 1, DifficultyEasy),
		q("Who wrote '1984'?", []string{"George Orwell", "Aldous Huxley", "Ray Bradbury", "H.G. Wells"}, 0, DifficultyMedium),
		q("Which novel begins with the line 'Call me Ishmael'?", []string{"The Great Gatsby", "Moby Dick", "The Catcher in the Rye", "To Kill a Mockingbird"}, 1, DifficultyHard),
		q("Who is the author of 'The Lord of the Rings'?", []string{"C.S. Lewis", "J.R.R. Tolkien", "George R.R. Martin", "Roald Dahl"}, 1, DifficultyEasy),
	},
	"technology": {
		q("Who is the co-founder of Microsoft?", []string{"Steve Jobs", "Bill Gates", "Mark Zuckerberg", "Elon Musk"}, 1, DifficultyEasy),
		q("What does 'HTTP' stand for?", []string{"HyperText Transfer Protocol", "High Tech Transfer Protocol", "Hyper Transfer Text Protocol", "Home Tool Transfer Protocol"}, 0, DifficultyEasy),
		q("In what year was the first iPhone released?", []string{"2005", "2007", "2009", "2010"}, 1, DifficultyMedium),
		q("What does 'CPU' stand for?", []string{"Central Process Unit", "Computer Personal Unit", "Central Processing Unit", "Central Processor Unit"}, 2, DifficultyEasy),
		q("Which programming language was developed by James Gosling at Sun Microsystems?", []string{"Python", "JavaScript", "C++", "Java"}, 3, DifficultyHard),
	},
}

// Categories returns the quiz categories in sorted order.
func Categories() []Category {
	cats := make([]Category, 0, len(questionBank))
	for c := range questionBank {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// RandomQuestion picks a question uniformly from the whole bank.
func RandomQuestion(r *rand.Rand) QuizQuestion {
	total := 0
	for _, qs := range questionBank {
		total += len(qs)
	}
	n := r.IntN(total)
	for _, c := range Categories() {
		qs := questionBank[c]
		if n < len(qs) {
			return withCategory(qs[n], c)
		}
		n -= len(qs)
	}
	// unreachable while the bank is non-empty
	return fallbackQuestion
}

func HasCategory(c Category) bool {
	_, ok := questionBank[c]
	return ok
}

func RandomQuestionFromCategory(r *rand.Rand, c Category) (QuizQuestion, error) {
	qs, ok := questionBank[c]
	if !ok || len(qs) == 0 {
		return QuizQuestion{}, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	return withCategory(qs[r.IntN(len(qs))], c), nil
}

// withCategory returns a copy so callers never share the bank's slices.
func withCategory(qq QuizQuestion, c Category) QuizQuestion {
	qq.Category = c
	qq.Options = append([]string(nil), qq.Options...)
	return qq
}
