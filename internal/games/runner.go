package games

import (
	"context"
	"fmt"
	"time"

	"gsbot/internal/config"
	"gsbot/internal/metrics"

	"go.uber.org/zap"
)

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RoundResult summarizes a finished round.
type RoundResult struct {
	Round    int
	Question Question
	Winners  []string
}

// Table is where a game is presented. Every method runs on the game's goroutine.
type Table interface {
	JoinPrompt(ctx context.Context, s *Session) (messageID string, err error)
	Joined(ctx context.Context, s *Session, messageID string) ([]string, error)
	NoPlayers(ctx context.Context, s *Session)
	RoundStart(ctx context.Context, s *Session, round int, q Question)
	RoundEnd(ctx context.Context, s *Session, result RoundResult)
	GameOver(ctx context.Context, s *Session, standings []Standing)
}

type Runner struct {
	registry  *Registry
	generator *Generator
	cfg       config.GameConfig
	clock     Clock
	logger    *zap.Logger
}

func NewRunner(registry *Registry, generator *Generator, cfg config.GameConfig, logger *zap.Logger) *Runner {
	return &Runner{registry: registry, generator: generator, cfg: cfg, clock: realClock{}, logger: logger}
}

func (r *Runner) WithClock(clock Clock) {
	r.clock = clock
}

func (r *Runner) Registry() *Registry {
	return r.registry
}

// Start claims the channel and runs the game on its own goroutine.
// done, when non-nil, is called after the session is released.
func (r *Runner) Start(ctx context.Context, kind Kind, channelID string, table Table, done func()) (*Session, error) {
	rules, ok := RulesFor(kind, r.cfg)
	if !ok {
		return nil, fmt.Errorf("unknown game %q", kind)
	}
	session, err := r.registry.claim(rules, channelID)
	if err != nil {
		return nil, err
	}
	metrics.GamesActive.Inc()
	go func() {
		defer func() {
			r.registry.release(session)
			metrics.GamesActive.Dec()
			if done != nil {
				done()
			}
		}()
		r.run(ctx, session, table)
	}()
	return session, nil
}

func (r *Runner) run(ctx context.Context, session *Session, table Table) {
	rules := session.Rules
	if rules.Group {
		messageID, err := table.JoinPrompt(ctx, session)
		if err != nil {
			r.logger.Warn("game join prompt failed", zap.String("channel_id", session.ChannelID), zap.Error(err))
			return
		}
		if !r.wait(ctx, rules.JoinWindow, nil) {
			return
		}
		joined, err := table.Joined(ctx, session, messageID)
		if err != nil {
			r.logger.Warn("game participants fetch failed", zap.String("channel_id", session.ChannelID), zap.Error(err))
		}
		if len(joined) == 0 {
			table.NoPlayers(ctx, session)
			return
		}
		session.setParticipants(joined)
	}

	for round := 1; round <= rules.Rounds; round++ {
		question := r.next(rules.Kind)
		session.startRound(round, question, r.clock.Now().Add(rules.RoundTimeout))
		table.RoundStart(ctx, session, round, question)

		var solved <-chan struct{}
		if !rules.Group {
			solved = session.solvedChan()
		}
		finished := r.wait(ctx, rules.RoundTimeout, solved)
		session.closeRound()
		if !finished {
			return
		}
		table.RoundEnd(ctx, session, RoundResult{Round: round, Question: question, Winners: session.Answered()})

		if round < rules.Rounds && !r.wait(ctx, rules.Pause, nil) {
			return
		}
	}
	table.GameOver(ctx, session, session.Standings())
}

// wait blocks for d, an early solve, or cancellation. False means cancelled.
func (r *Runner) wait(ctx context.Context, d time.Duration, solved <-chan struct{}) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-solved:
		return true
	case <-r.clock.After(d):
		return true
	}
}

func (r *Runner) next(kind Kind) Question {
	switch kind {
	case KindMath, KindGroupMath:
		return r.generator.Math()
	case KindGroupScramble:
		return r.generator.Scramble()
	case KindGroupWordBomb:
		return r.generator.WordBomb()
	default:
		return r.generator.Country()
	}
}
