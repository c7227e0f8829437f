package games

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"gsbot/internal/config"

	"go.uber.org/zap"
)

// instantClock fires every wait immediately and advances its own time.
type instantClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *instantClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type scriptedTable struct {
	mu        sync.Mutex
	joined    []string
	release   chan struct{}
	answer    func(s *Session, round int, q Question)
	rounds    []RoundResult
	standings []Standing
	noPlayers bool
}

func (t *scriptedTable) JoinPrompt(ctx context.Context, s *Session) (string, error) {
	if t.release != nil {
		<-t.release
	}
	return "join-message", nil
}

func (t *scriptedTable) Joined(ctx context.Context, s *Session, messageID string) ([]string, error) {
	return t.joined, nil
}

func (t *scriptedTable) NoPlayers(ctx context.Context, s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.noPlayers = true
}

func (t *scriptedTable) RoundStart(ctx context.Context, s *Session, round int, q Question) {
	if t.answer != nil {
		t.answer(s, round, q)
	}
}

func (t *scriptedTable) RoundEnd(ctx context.Context, s *Session, result RoundResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rounds = append(t.rounds, result)
}

func (t *scriptedTable) GameOver(ctx context.Context, s *Session, standings []Standing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.standings = standings
}

func newTestRunner() *Runner {
	runner := NewRunner(NewRegistry(), NewGenerator(rand.New(rand.NewPCG(1, 2))), config.DefaultConfig().Games, zap.NewNop())
	runner.WithClock(&instantClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	return runner
}

func runToEnd(t *testing.T, runner *Runner, kind Kind, table Table) {
	t.Helper()
	done := make(chan struct{})
	if _, err := runner.Start(context.Background(), kind, "c1", table, func() { close(done) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("game did not finish")
	}
}

func TestGroupMathCreditsEachUserOncePerRound(t *testing.T) {
	runner := newTestRunner()
	table := &scriptedTable{
		joined: []string{"u1", "u2"},
		answer: func(s *Session, round int, q Question) {
			if !s.Answer("u1", q.Answer) {
				t.Errorf("expected u1 credited in round %d", round)
			}
			if s.Answer("u1", q.Answer) {
				t.Errorf("expected second answer from u1 ignored")
			}
			if round%2 == 0 {
				s.Answer("u2", " "+q.Answer+" ")
			}
			s.Answer("u3", "not a number")
		},
	}
	runToEnd(t, runner, KindGroupMath, table)

	if len(table.rounds) != 10 {
		t.Fatalf("expected 10 rounds, got %d", len(table.rounds))
	}
	if len(table.standings) != 2 || table.standings[0].UserID != "u1" || table.standings[0].Score != 10 || table.standings[1].Score != 5 {
		t.Fatalf("unexpected standings: %+v", table.standings)
	}
	if runner.Registry().Len() != 0 {
		t.Fatalf("expected session released")
	}
}

func TestSoloCreditsFirstAnswerOnly(t *testing.T) {
	runner := newTestRunner()
	table := &scriptedTable{
		answer: func(s *Session, round int, q Question) {
			s.Answer("u2", q.Answer)
			if s.Answer("u1", q.Answer) {
				t.Errorf("expected only the first correct answer credited")
			}
		},
	}
	runToEnd(t, runner, KindCountry, table)

	if len(table.rounds) != 5 {
		t.Fatalf("expected 5 rounds, got %d", len(table.rounds))
	}
	if len(table.standings) != 1 || table.standings[0].UserID != "u2" || table.standings[0].Score != 5 {
		t.Fatalf("unexpected standings: %+v", table.standings)
	}
}

func TestGroupAbortsWithoutPlayers(t *testing.T) {
	runner := newTestRunner()
	table := &scriptedTable{}
	runToEnd(t, runner, KindGroupScramble, table)
	if !table.noPlayers || len(table.rounds) != 0 {
		t.Fatalf("expected abort with no players, got rounds=%d", len(table.rounds))
	}
}

func TestSecondGameInChannelRejected(t *testing.T) {
	runner := newTestRunner()
	first := &scriptedTable{joined: []string{"u1"}, release: make(chan struct{})}
	done := make(chan struct{})
	session, err := runner.Start(context.Background(), KindGroupMath, "c1", first, func() { close(done) })
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := runner.Start(context.Background(), KindGroupWordBomb, "c1", &scriptedTable{}, nil); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected already active, got %v", err)
	}
	if live, ok := runner.Registry().Get("c1"); !ok || live != session || live.Rules.Kind != KindGroupMath {
		t.Fatalf("expected first game untouched")
	}

	close(first.release)
	<-done
	if len(first.rounds) != 10 {
		t.Fatalf("expected first game to complete, got %d rounds", len(first.rounds))
	}
}

func TestWordBombRejectsReusedWords(t *testing.T) {
	session := newSession(Rules{Kind: KindGroupWordBomb, Group: true}, "c1")
	session.startRound(1, Question{Sequence: "ing"}, time.Time{})
	if !session.Answer("u1", "singing") {
		t.Fatalf("expected valid word")
	}
	if session.Answer("u2", "Singing") {
		t.Fatalf("expected used word rejected")
	}
	if !session.Answer("u2", "ringing") {
		t.Fatalf("expected second word accepted")
	}
	session.closeRound()
	if session.Answer("u3", "bringing") {
		t.Fatalf("expected closed round rejected")
	}
}

func TestValidWord(t *testing.T) {
	cases := map[string]bool{
		"chhhh":  false,
		"ch":     false,
		"chch":   false,
		"ch1ck":  false,
		"bcchdf": false,
		"chat":   true,
		"rich":   true,
	}
	for word, want := range cases {
		if got := ValidWord(word, "ch"); got != want {
			t.Fatalf("ValidWord(%q, ch): expected %v, got %v", word, want, got)
		}
	}
	if !ValidWord("thing", "ing") {
		t.Fatalf("expected thing valid for ing")
	}
	if ValidWord("aaaa", "a") {
		t.Fatalf("expected repeated rune rejected")
	}
	if ValidWord("zzzing", "ing") {
		t.Fatalf("expected a three-rune run outside the sequence rejected")
	}
	if !ValidWord("sizzling", "ing") {
		t.Fatalf("expected a double letter accepted")
	}
}

func TestMathQuestions(t *testing.T) {
	generator := NewGenerator(rand.New(rand.NewPCG(7, 9)))
	for i := 0; i < 200; i++ {
		q := generator.Math()
		parts := strings.Fields(q.Prompt)
		a, _ := strconv.Atoi(parts[0])
		b, _ := strconv.Atoi(parts[2])
		answer, _ := strconv.Atoi(q.Answer)
		switch parts[1] {
		case "+":
			if a < 10 || a > 100 || b < 10 || b > 100 || a+b != answer {
				t.Fatalf("bad addition %q = %s", q.Prompt, q.Answer)
			}
		case "-":
			if b > a || answer < 0 || a-b != answer {
				t.Fatalf("bad subtraction %q = %s", q.Prompt, q.Answer)
			}
		case "×":
			if a < 2 || a > 15 || b < 2 || b > 15 || a*b != answer {
				t.Fatalf("bad product %q = %s", q.Prompt, q.Answer)
			}
		case "÷":
			if b < 2 || b > 12 || answer < 2 || answer > 20 || a != answer*b {
				t.Fatalf("bad division %q = %s", q.Prompt, q.Answer)
			}
		default:
			t.Fatalf("unexpected operator in %q", q.Prompt)
		}
	}
	if !CheckMath(" -4 ", "-4") || CheckMath("4-", "4") || CheckMath("four", "4") {
		t.Fatalf("unexpected math answer checks")
	}
}

func TestScrambleDiffersFromWord(t *testing.T) {
	generator := NewGenerator(rand.New(rand.NewPCG(3, 4)))
	for i := 0; i < 50; i++ {
		q := generator.Scramble()
		if strings.EqualFold(q.Prompt, q.Answer) {
			t.Fatalf("expected scrambled prompt, got %q for %q", q.Prompt, q.Answer)
		}
	}
}

func TestLeaderboard(t *testing.T) {
	board := Leaderboard([]Standing{{UserID: "a", Score: 7}, {UserID: "b", Score: 3}, {UserID: "c", Score: 1}, {UserID: "d", Score: 1}}, 10)
	lines := strings.Split(strings.TrimSpace(board), "\n")
	if len(lines) != 4 || lines[0] != "🥇 <@a>: **7/10** (70%)" || !strings.HasPrefix(lines[3], "4. <@d>") {
		t.Fatalf("unexpected leaderboard:\n%s", board)
	}
}
