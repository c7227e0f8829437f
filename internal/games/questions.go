package games

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"
)

// Question is one round's prompt. Sequence is set for word bomb rounds only.
type Question struct {
	Prompt   string
	Answer   string
	Hint     string
	Sequence string
}

type Generator struct {
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{rng: rng}
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) Math() Question {
	var a, b, answer int
	op := "+"
	switch g.rng.IntN(4) {
	case 0:
		a, b = g.between(10, 100), g.between(10, 100)
		answer = a + b
	case 1:
		op = "-"
		a = g.between(20, 100)
		b = g.between(10, a)
		answer = a - b
	case 2:
		op = "×"
		a, b = g.between(2, 15), g.between(2, 15)
		answer = a * b
	default:
		op = "÷"
		answer = g.between(2, 20)
		b = g.between(2, 12)
		a = answer * b
	}
	return Question{Prompt: fmt.Sprintf("%d %s %d = ?", a, op, b), Answer: strconv.Itoa(answer)}
}

func (g *Generator) Country() Question {
	country := Countries[g.rng.IntN(len(Countries))]
	return Question{Prompt: country.Flag, Answer: country.Name}
}

func (g *Generator) Scramble() Question {
	word := ScrambleWords[g.rng.IntN(len(ScrambleWords))]
	return Question{
		Prompt: strings.ToUpper(g.scramble(word)),
		Answer: word,
		Hint:   fmt.Sprintf("The word has **%d** letters", len([]rune(word))),
	}
}

// scramble reshuffles up to 10 times while the result still equals the word.
func (g *Generator) scramble(word string) string {
	runes := []rune(word)
	shuffle := func() string {
		g.rng.Shuffle(len(runes), func(i, j int) { runes[i], runes[j] = runes[j], runes[i] })
		return string(runes)
	}
	scrambled := shuffle()
	for attempts := 0; strings.EqualFold(scrambled, word) && attempts < 10; attempts++ {
		scrambled = shuffle()
	}
	return scrambled
}

func (g *Generator) WordBomb() Question {
	sequence := WordBombSequences[g.rng.IntN(len(WordBombSequences))]
	return Question{Prompt: strings.ToUpper(sequence), Sequence: sequence}
}

// CheckMath accepts an optionally negative integer equal to the answer.
func CheckMath(content, answer string) bool {
	content = strings.TrimSpace(content)
	digits := strings.ReplaceAll(content, "-", "")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	value, err := strconv.Atoi(content)
	if err != nil {
		return false
	}
	return strconv.Itoa(value) == answer
}

func CheckText(content, answer string) bool {
	return strings.ToLower(strings.TrimSpace(content)) == strings.ToLower(answer)
}

// ValidWord reports whether word is an acceptable word bomb answer for sequence.
// used is checked separately by the session.
func ValidWord(word, sequence string) bool {
	word = strings.ToLower(word)
	sequence = strings.ToLower(sequence)
	if len([]rune(word)) < 3 || !strings.Contains(word, sequence) {
		return false
	}

	counts := make(map[rune]int)
	var prev rune
	run := 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
		counts[r]++
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= 3 {
			return false
		}
	}
	for _, n := range counts {
		if n > 3 {
			return false
		}
	}

	if strings.Repeat(sequence, len(word)/len(sequence)) == word {
		return false
	}

	if len([]rune(word)) > 3 {
		hasVowel, hasConsonant := false, false
		for _, r := range word {
			if strings.ContainsRune("aeiou", r) {
				hasVowel = true
			} else {
				hasConsonant = true
			}
		}
		if !hasVowel || !hasConsonant || len(counts) < 2 {
			return false
		}
	}
	return true
}
