package games

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gsbot/internal/config"
)

var ErrAlreadyActive = errors.New("a game is already active in this channel")

type Kind string

const (
	KindCountry       Kind = "countryguess"
	KindMath          Kind = "mathquestions"
	KindGroupMath     Kind = "groupmath"
	KindGroupCountry  Kind = "groupcountry"
	KindGroupScramble Kind = "groupscramble"
	KindGroupWordBomb Kind = "groupwordbomb"
)

// Rules fixes the shape of one game kind.
type Rules struct {
	Kind         Kind
	Title        string
	Group        bool
	Rounds       int
	JoinWindow   time.Duration
	RoundTimeout time.Duration
	Pause        time.Duration
	Unit         string
}

func RulesFor(kind Kind, cfg config.GameConfig) (Rules, bool) {
	seconds := func(n int) time.Duration { return time.Duration(n) * time.Second }
	group := Rules{
		Kind:         kind,
		Group:        true,
		Rounds:       cfg.Rounds,
		JoinWindow:   seconds(cfg.JoinSeconds),
		RoundTimeout: seconds(cfg.RoundSeconds),
		Pause:        seconds(cfg.PauseSeconds),
		Unit:         "points",
	}
	solo := Rules{
		Kind:         kind,
		Rounds:       cfg.SoloRounds,
		RoundTimeout: seconds(cfg.SoloRoundSeconds),
		Pause:        seconds(cfg.PauseSeconds),
		Unit:         "points",
	}
	switch kind {
	case KindCountry:
		solo.Title = "🌍 Country Guessing Game"
		return solo, true
	case KindMath:
		solo.Title = "🧮 Math Questions"
		return solo, true
	case KindGroupMath:
		group.Title = "🧮 Group Math Game"
		return group, true
	case KindGroupCountry:
		group.Title = "🌍 Group Countries Quiz"
		return group, true
	case KindGroupScramble:
		group.Title = "🔤 Group Word Scramble"
		return group, true
	case KindGroupWordBomb:
		group.Title = "💣 Group Word Bomb"
		group.RoundTimeout = seconds(cfg.WordBombSeconds)
		group.Unit = "words found"
		return group, true
	}
	return Rules{}, false
}

type Standing struct {
	UserID string
	Score  int
}

// Session is one running game. Solo games credit only the first correct
// answer per round; group games credit each user once per round.
type Session struct {
	mu           sync.Mutex
	Rules        Rules
	ChannelID    string
	round        int
	question     Question
	deadline     time.Time
	players      map[string]int
	creditOrder  []string
	participants map[string]bool
	answered     []string
	usedWords    map[string]bool
	open         bool
	solved       chan struct{}
}

func newSession(rules Rules, channelID string) *Session {
	return &Session{
		Rules:        rules,
		ChannelID:    channelID,
		players:      make(map[string]int),
		participants: make(map[string]bool),
		usedWords:    make(map[string]bool),
	}
}

func (s *Session) startRound(round int, question Question, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round = round
	s.question = question
	s.deadline = deadline
	s.answered = nil
	s.usedWords = make(map[string]bool)
	s.open = true
	s.solved = make(chan struct{})
}

func (s *Session) closeRound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
}

func (s *Session) setParticipants(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.participants[id] = true
	}
}

// Answer checks content against the live round and credits userID when correct.
func (s *Session) Answer(userID, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return false
	}
	if !s.Rules.Group && len(s.answered) > 0 {
		return false
	}
	for _, id := range s.answered {
		if id == userID {
			return false
		}
	}

	switch s.Rules.Kind {
	case KindMath, KindGroupMath:
		if !CheckMath(content, s.question.Answer) {
			return false
		}
	case KindGroupWordBomb:
		word := strings.ToLower(strings.TrimSpace(content))
		if s.usedWords[word] || !ValidWord(word, s.question.Sequence) {
			return false
		}
		s.usedWords[word] = true
	default:
		if !CheckText(content, s.question.Answer) {
			return false
		}
	}

	if _, ok := s.players[userID]; !ok {
		s.creditOrder = append(s.creditOrder, userID)
	}
	s.players[userID]++
	s.answered = append(s.answered, userID)
	if !s.Rules.Group {
		close(s.solved)
	}
	return true
}

func (s *Session) Round() (int, Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round, s.question
}

func (s *Session) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}

func (s *Session) Answered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.answered...)
}

func (s *Session) UsedWords() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.usedWords)
}

func (s *Session) Participants() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

func (s *Session) solvedChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solved
}

// Standings sorts by score, ties broken by who scored first.
func (s *Session) Standings() []Standing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Standing, 0, len(s.creditOrder))
	for _, id := range s.creditOrder {
		out = append(out, Standing{UserID: id, Score: s.players[id]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Leaderboard renders standings with medals and score/max percentages.
func Leaderboard(standings []Standing, rounds int) string {
	var b strings.Builder
	for i, standing := range standings {
		rank := fmt.Sprintf("%d.", i+1)
		switch i {
		case 0:
			rank = "🥇"
		case 1:
			rank = "🥈"
		case 2:
			rank = "🥉"
		}
		pct := 0
		if rounds > 0 {
			pct = standing.Score * 100 / rounds
		}
		fmt.Fprintf(&b, "%s <@%s>: **%d/%d** (%d%%)\n", rank, standing.UserID, standing.Score, rounds, pct)
	}
	return b.String()
}

// Registry allows one live game per channel.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) claim(rules Rules, channelID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[channelID]; ok {
		return nil, ErrAlreadyActive
	}
	session := newSession(rules, channelID)
	r.sessions[channelID] = session
	return session, nil
}

func (r *Registry) release(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[session.ChannelID] == session {
		delete(r.sessions, session.ChannelID)
	}
}

func (r *Registry) Get(channelID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[channelID]
	return session, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Answer routes a chat message to the channel's live game, if any.
func (r *Registry) Answer(channelID, userID, content string) bool {
	session, ok := r.Get(channelID)
	if !ok {
		return false
	}
	return session.Answer(userID, content)
}
