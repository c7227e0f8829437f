package utils

import (
	"errors"
	"testing"
)

func TestEvaluate(t *testing.T) {
	cases := map[string]string{
		"4+11":    "15",
		"4 x 11":  "44",
		"(5+3)*2": "16",
		"4/11":    "0.363636",
		"10÷4":    "2.5",
		"2**3":    "8",
		"-2**2":   "-4",
		"7//2":    "3",
		"3×3-1":   "8",
		"1.5+1.5": "3",
	}
	for input, want := range cases {
		value, err := Evaluate(input)
		if err != nil {
			t.Fatalf("Evaluate(%q): unexpected error %v", input, err)
		}
		if got := FormatResult(value); got != want {
			t.Fatalf("Evaluate(%q): expected %s, got %s", input, want, got)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	if _, err := Evaluate("1/0"); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	if _, err := Evaluate("2^3"); !errors.Is(err, ErrInvalidCharacters) {
		t.Fatalf("expected invalid characters, got %v", err)
	}
	if _, err := Evaluate("(1+2"); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("expected invalid expression, got %v", err)
	}
	if _, err := Evaluate("1,2"); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("expected invalid expression for comma, got %v", err)
	}
}
