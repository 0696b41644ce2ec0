// Package offline estimates the progress made while no session was ticking.
// The estimate holds the enemy and derived stats constant for the whole
// window; it does not simulate stage advancement or drops.
package offline

import (
	"fmt"
	"math"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/game/stats"
)

// Defaults for Estimator.
const (
	DefaultCap = 6 * time.Hour
	DefaultMin = 5 * time.Second
)

// Summary describes one applied offline reward.
type Summary struct {
	Kills     int     `json:"kills"`
	Gold      float64 `json:"gold"`
	Exp       float64 `json:"exp"`
	StartedAt int64   `json:"startedAt"`
	EndedAt   int64   `json:"endedAt"`
}

// Estimator converts elapsed wall-clock time into kills and rewards.
type Estimator struct {
	// Cap bounds the credited window.
	Cap time.Duration
	// Min is the window that must be exceeded before anything is credited.
	Min time.Duration
}

// Elapsed returns the credited window between the last save stamp s.T and now.
//
// Postcondition: result in [0, Cap]; a zero stamp credits nothing.
func (e Estimator) Elapsed(s *state.GameState, now time.Time) time.Duration {
	if s.T <= 0 {
		return 0
	}
	dt := now.Sub(time.UnixMilli(s.T))
	return max(0, min(e.Cap, dt))
}

// Apply credits the offline window ending at now to s and restamps s.T.
// Gold and the kill counter are awarded immediately; experience is stored in
// s.PendingExp for the session to grant once it starts.
//
// Postcondition: returns ok == false and awards nothing when the window does
// not exceed Min or yields no kill. kills == floor(elapsed / max(1s, hpMax / max(0.1, DPSTotal))).
func (e Estimator) Apply(s *state.GameState, d stats.Derived, now time.Time) (Summary, bool) {
	started := s.T
	dt := e.Elapsed(s, now).Seconds()
	s.T = now.UnixMilli()
	if dt <= e.Min.Seconds() {
		return Summary{}, false
	}

	timePerKill := s.Enemy.HPMax / max(0.1, d.DPSTotal)
	kills := int(math.Floor(dt / max(1.0, timePerKill)))
	if kills <= 0 {
		return Summary{}, false
	}
	gold := float64(kills) * s.Enemy.Gold * (1 + d.GoldBonus)
	exp := float64(kills) * s.Enemy.Exp

	s.Gold += gold
	s.Kills += kills
	s.PendingExp += exp
	s.LogPush(now, state.CatSys, "", fmt.Sprintf("Offline reward: %d kills, +%.0fG", kills, math.Floor(gold)))

	return Summary{
		Kills:     kills,
		Gold:      math.Floor(gold),
		Exp:       exp,
		StartedAt: started,
		EndedAt:   now.UnixMilli(),
	}, true
}
