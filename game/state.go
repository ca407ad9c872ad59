package game

import "time"

// State is the serialized form of a game broadcast to its room. Kind
// specific fields are present only for the matching kind.
type State struct {
	ID        int64            `json:"id"`
	Type      Kind             `json:"type"`
	Players   []Player         `json:"players"`
	Round     int              `json:"round"`
	MaxRounds int              `json:"maxRounds"`
	Status    Status           `json:"status"`
	TimeLeft  int              `json:"timeLeft"`
	StartTime int64            `json:"startTime"`
	CreatedAt time.Time        `json:"createdAt"`
	Policy    CompletionPolicy `json:"policy"`
	Target    int              `json:"targetScore,omitempty"`

	Letters []string `json:"letters,omitempty"`

	Problem string   `json:"problem,omitempty"`
	Answer  *float64 `json:"answer,omitempty"`

	Question      string     `json:"question,omitempty"`
	Options       []string   `json:"options,omitempty"`
	CorrectOption *int       `json:"correctOption,omitempty"`
	Category      Category   `json:"category,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`

	Submissions          []Submission `json:"submissions"`
	FirstCorrectPlayerID *int64       `json:"firstCorrectPlayerId,omitempty"`
	Winner               *int64       `json:"winner,omitempty"`
}

// WinnerPlayer returns the winning player of a finished state.
func (s State) WinnerPlayer() (Player, bool) {
	if s.Winner == nil {
		return Player{}, false
	}
	for _, p := range s.Players {
		if p.ID == *s.Winner {
			return p, true
		}
	}
	return Player{}, false
}

type PlayerRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Summary is the lobby listing entry of a game.
type Summary struct {
	ID        int64       `json:"id"`
	Type      Kind        `json:"type"`
	Status    Status      `json:"status"`
	Players   []PlayerRef `json:"players"`
	CreatedAt time.Time   `json:"createdAt"`
}

// stateLocked copies the game so the result can leave the lock.
func (g *Game) stateLocked() State {
	s := State{
		ID:          g.id,
		Type:        g.kind,
		Players:     append([]Player(nil), g.players...),
		Round:       g.round,
		MaxRounds:   g.cfg.MaxRounds,
		Status:      g.status,
		TimeLeft:    g.timeLeft,
		CreatedAt:   g.createdAt,
		Policy:      g.cfg.Policy,
		Submissions: append([]Submission{}, g.submissions...),
	}
	if g.cfg.Policy == PolicyTargetScore {
		s.Target = g.cfg.TargetScore
	}
	if !g.roundStart.IsZero() {
		s.StartTime = g.roundStart.UnixMilli()
	}
	if g.firstCorrect != nil {
		id := *g.firstCorrect
		s.FirstCorrectPlayerID = &id
	}
	if g.status == StatusFinished && g.winner != nil {
		id := *g.winner
		s.Winner = &id
	}
	if g.status == StatusWaiting {
		return s
	}

	switch g.kind {
	case KindWord:
		s.Letters = append([]string(nil), g.content.Letters...)
	case KindMath:
		answer := g.content.Answer
		s.Problem = g.content.Problem
		s.Answer = &answer
	case KindQuiz:
		correct := g.content.CorrectOption
		s.Question = g.content.Question
		s.Options = append([]string(nil), g.content.Options...)
		s.CorrectOption = &correct
		s.Category = g.content.Category
		s.Difficulty = g.content.Difficulty
	}
	return s
}
