package galaxy

import (
	"testing"
	"time"
)

func TestDominationVictorySetsWinner(t *testing.T) {
	gs := twoFactionState()
	gs.Planets["b1"].Owner = "alpha"
	gs.Factions["alpha"].Planets = []string{"a1", "b1"}
	gs.Factions["beta"].Planets = nil
	e := testEngine(gs)

	e.checkVictory()

	if !gs.GameOver {
		t.Fatal("expected game over by domination")
	}
	if gs.Winner != "alpha" {
		t.Errorf("winner = %q, want alpha", gs.Winner)
	}
	if gs.EndReason != "domination" {
		t.Errorf("end reason = %q", gs.EndReason)
	}
	if len(gs.FinalScores) != 2 {
		t.Errorf("final scores = %v", gs.FinalScores)
	}
}

func TestUnownedPlanetsDoNotBlockDomination(t *testing.T) {
	gs := twoFactionState() // mid stays unowned
	gs.Planets["b1"].Owner = "alpha"
	gs.Factions["alpha"].Planets = []string{"a1", "b1"}
	gs.Factions["beta"].Planets = nil
	e := testEngine(gs)

	e.checkVictory()

	if !gs.GameOver {
		t.Error("unowned planets must not block domination")
	}
}

func TestTurnLimitVictoryHighestPower(t *testing.T) {
	gs := twoFactionState()
	gs.Rules.MaxTurns = 10
	gs.Turn = 10
	gs.Factions["beta"].Resources = Resources{Research: 10000}
	e := testEngine(gs)

	e.checkVictory()

	if !gs.GameOver || gs.Winner != "beta" {
		t.Errorf("winner = %q (over=%v), want beta", gs.Winner, gs.GameOver)
	}
	if gs.EndReason != "turn_limit" {
		t.Errorf("end reason = %q", gs.EndReason)
	}
}

func TestTurnLimitTieBreaksOnFactionID(t *testing.T) {
	gs := twoFactionState()
	gs.Rules.MaxTurns = 10
	gs.Turn = 10
	// Identical holdings: identical scores.
	gs.Planets["a1"].Population = 50
	gs.Planets["b1"].Population = 50
	e := testEngine(gs)

	e.checkVictory()

	if !gs.GameOver {
		t.Fatal("expected game over at the turn limit")
	}
	if gs.Winner != "alpha" {
		t.Errorf("tie winner = %q, want alpha (first in ID order)", gs.Winner)
	}
}

func TestNoVictoryDuringTruce(t *testing.T) {
	gs := twoFactionState()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	gs.TruceUntil = now.Add(time.Minute)
	gs.Planets["b1"].Owner = "alpha"
	gs.Factions["alpha"].Planets = []string{"a1", "b1"}
	gs.Factions["beta"].Planets = nil

	e := NewEngine(gs, WithRand(quietRand()), WithClock(func() time.Time { return now }))
	e.checkVictory()

	if gs.GameOver {
		t.Error("victory conditions must not fire during the truce")
	}
}

func TestTechVictoryByRequiredSet(t *testing.T) {
	gs := twoFactionState()
	gs.Victory.TechVictoryEnabled = true
	gs.Victory.TechRequiredIDs = []string{TechLaser, TechFTL}
	gs.Factions["alpha"].Technologies = []string{TechLaser, TechFTL}
	e := testEngine(gs)

	e.checkTechVictoryGlobal()

	if !gs.GameOver || gs.Winner != "alpha" {
		t.Errorf("winner = %q (over=%v), want alpha", gs.Winner, gs.GameOver)
	}
	if gs.EndReason != "tech_victory" {
		t.Errorf("end reason = %q", gs.EndReason)
	}
}

func TestTechVictoryByCostThreshold(t *testing.T) {
	gs := twoFactionState()
	gs.Victory.TechVictoryEnabled = true
	gs.Victory.TechScoreThreshold = 300
	gs.Factions["beta"].Technologies = []string{TechFTL, TechColonization} // 200 + 120
	e := testEngine(gs)

	e.checkTechVictoryGlobal()

	if !gs.GameOver || gs.Winner != "beta" {
		t.Errorf("winner = %q (over=%v), want beta", gs.Winner, gs.GameOver)
	}
}

func TestTechVictoryDisabledByDefault(t *testing.T) {
	gs := twoFactionState()
	gs.Factions["alpha"].Technologies = []string{
		TechLaser, TechShields, TechFTL, TechColonization, TechMining, TechPower,
	}
	e := testEngine(gs)

	e.checkTechVictoryGlobal()

	if gs.GameOver {
		t.Error("tech victory fired while disabled")
	}
}

func TestEconomicVictoryNeedsSustainedLead(t *testing.T) {
	gs := twoFactionState()
	gs.Victory.EconVictoryEnabled = true
	gs.Victory.EconWindow = 3
	gs.Victory.EconThreshold = 100
	gs.Turn = 5
	gs.EconHistory["alpha"] = []float64{150, 160, 170}
	gs.EconHistory["beta"] = []float64{80, 90, 100}
	e := testEngine(gs)

	e.checkVictory()

	if !gs.GameOver || gs.Winner != "alpha" {
		t.Errorf("winner = %q (over=%v), want alpha", gs.Winner, gs.GameOver)
	}
	if gs.EndReason != "economic_victory" {
		t.Errorf("end reason = %q", gs.EndReason)
	}
}

func TestEconomicVictoryBrokenStreak(t *testing.T) {
	gs := twoFactionState()
	gs.Victory.EconVictoryEnabled = true
	gs.Victory.EconWindow = 3
	gs.Victory.EconThreshold = 100
	gs.Turn = 5
	gs.EconHistory["alpha"] = []float64{150, 90, 170} // dips below threshold
	gs.EconHistory["beta"] = []float64{80, 95, 100}
	e := testEngine(gs)

	e.checkVictory()

	if gs.GameOver {
		t.Error("a broken streak must not win")
	}
}
