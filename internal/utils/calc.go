package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidCharacters = errors.New("invalid characters in expression")
	ErrInvalidExpression = errors.New("invalid mathematical expression")
	ErrDivisionByZero    = errors.New("division by zero")
)

const calcAllowed = "0123456789+-*/.,()"

var calcReplacer = strings.NewReplacer("x", "*", "X", "*", "÷", "/", "×", "*", " ", "")

// NormalizeExpression maps the chat operators to arithmetic ones and strips spaces.
func NormalizeExpression(expression string) string {
	return calcReplacer.Replace(expression)
}

// Evaluate computes an arithmetic expression with + - * / // ** and parentheses.
func Evaluate(expression string) (float64, error) {
	expr := NormalizeExpression(expression)
	if expr == "" {
		return 0, ErrInvalidExpression
	}
	for _, r := range expr {
		if !strings.ContainsRune(calcAllowed, r) {
			return 0, ErrInvalidCharacters
		}
	}
	p := &calcParser{input: expr}
	value, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.input) {
		return 0, ErrInvalidExpression
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, ErrInvalidExpression
	}
	return value, nil
}

// FormatResult prints integral values without decimals and rounds the rest
// to six places.
func FormatResult(value float64) string {
	if value == math.Trunc(value) && math.Abs(value) < 1e15 {
		return strconv.FormatInt(int64(value), 10)
	}
	rounded := math.Round(value*1e6) / 1e6
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

type calcParser struct {
	input string
	pos   int
}

func (p *calcParser) peek(token string) bool {
	return strings.HasPrefix(p.input[p.pos:], token)
}

func (p *calcParser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.input) {
		switch {
		case p.peek("+"):
			p.pos++
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left += right
		case p.peek("-"):
			p.pos++
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
	return left, nil
}

func (p *calcParser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.input) {
		switch {
		case p.peek("**"):
			return left, nil
		case p.peek("*"):
			p.pos++
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.peek("//"):
			p.pos += 2
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			left = math.Floor(left / right)
		case p.peek("/"):
			p.pos++
			right, err := p.unary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			left /= right
		default:
			return left, nil
		}
	}
	return left, nil
}

func (p *calcParser) unary() (float64, error) {
	switch {
	case p.peek("-"):
		p.pos++
		value, err := p.unary()
		return -value, err
	case p.peek("+"):
		p.pos++
		return p.unary()
	}
	return p.power()
}

func (p *calcParser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}
	if p.peek("**") {
		p.pos += 2
		exponent, err := p.unary()
		if err != nil {
			return 0, err
		}
		if base == 0 && exponent < 0 {
			return 0, ErrDivisionByZero
		}
		return math.Pow(base, exponent), nil
	}
	return base, nil
}

func (p *calcParser) primary() (float64, error) {
	if p.peek("(") {
		p.pos++
		value, err := p.expr()
		if err != nil {
			return 0, err
		}
		if !p.peek(")") {
			return 0, ErrInvalidExpression
		}
		p.pos++
		return value, nil
	}
	start := p.pos
	for p.pos < len(p.input) && (p.input[p.pos] == '.' || (p.input[p.pos] >= '0' && p.input[p.pos] <= '9')) {
		p.pos++
	}
	if start == p.pos {
		return 0, ErrInvalidExpression
	}
	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, ErrInvalidExpression
	}
	return value, nil
}
