package pets

import (
	"errors"
	"math"
)

var ErrInvalidAge = errors.New("age must be between 1 and 100")

const (
	MinAge = 1
	MaxAge = 100
)

var baseWeights = [MaxAge + 1]float64{
	0,
	1.00, 1.09, 1.18, 1.27, 1.36, 1.45, 1.55, 1.64, 1.73, 1.82,
	1.91, 2.00, 2.09, 2.18, 2.27, 2.36, 2.45, 2.55, 2.64, 2.73,
	2.82, 2.91, 3.00, 3.09, 3.18, 3.27, 3.36, 3.45, 3.55, 3.64,
	3.73, 3.82, 3.91, 4.00, 4.09, 4.18, 4.27, 4.36, 4.45, 4.55,
	4.64, 4.73, 4.82, 4.91, 5.00, 5.09, 5.18, 5.27, 5.36, 5.45,
	5.55, 5.64, 5.73, 5.82, 5.91, 6.00, 6.09, 6.18, 6.27, 6.36,
	6.45, 6.55, 6.64, 6.73, 6.82, 6.91, 7.00, 7.09, 7.18, 7.27,
	7.36, 7.45, 7.55, 7.64, 7.73, 7.82, 7.91, 8.00, 8.09, 8.18,
	8.27, 8.36, 8.45, 8.55, 8.64, 8.73, 8.82, 8.91, 9.00, 9.09,
	9.18, 9.27, 9.36, 9.45, 9.55, 9.64, 9.73, 9.82, 9.91, 10.00,
}

func BaseWeight(age int) (float64, error) {
	if age < MinAge || age > MaxAge {
		return 0, ErrInvalidAge
	}
	return baseWeights[age], nil
}

func Multiplier(age int, weight float64) (float64, error) {
	base, err := BaseWeight(age)
	if err != nil {
		return 0, err
	}
	return weight / base, nil
}

// Predict scales the base curve through (age, weight). Without targets it
// covers every age.
func Predict(age int, weight float64, targets ...int) (map[int]float64, error) {
	mult, err := Multiplier(age, weight)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		targets = make([]int, 0, MaxAge)
		for target := MinAge; target <= MaxAge; target++ {
			targets = append(targets, target)
		}
	}
	out := make(map[int]float64, len(targets))
	for _, target := range targets {
		base, err := BaseWeight(target)
		if err != nil {
			return nil, err
		}
		out[target] = round2(base * mult)
	}
	return out, nil
}

// KeyAges picks up to ten ages around the current one for the summary view.
func KeyAges(age int) []int {
	var ages []int
	for a := age; a <= min(age+10, MaxAge); a++ {
		ages = append(ages, a)
	}
	if len(ages) < 10 {
		var earlier []int
		for a := max(MinAge, age-5); a < age; a++ {
			earlier = append(earlier, a)
		}
		ages = append(earlier, ages...)
	}
	if len(ages) > 10 {
		ages = ages[:10]
	}
	return ages
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
