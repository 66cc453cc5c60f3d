package galaxy

import (
	"math"
	"testing"
	"time"
)

func addFleet(gs *GameState, id, owner, position string, ships map[ShipType]int) *Fleet {
	fl := &Fleet{ID: id, Owner: owner, Position: position, Ships: ships}
	gs.Fleets[id] = fl
	if f := gs.Factions[owner]; f != nil {
		f.Fleets = append(f.Fleets, id)
	}
	return fl
}

func TestCaptureOddsFollowPowerRatio(t *testing.T) {
	gs := twoFactionState()
	addFleet(gs, "atk", "alpha", "b1", map[ShipType]int{Scout: 100})
	addFleet(gs, "def", "beta", "b1", map[ShipType]int{Scout: 50})
	e := testEngine(gs)

	atk, def, prob := e.CaptureOdds(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"])
	if atk != 100 || def != 50 {
		t.Fatalf("effective powers = %.1f/%.1f, want 100/50", atk, def)
	}
	a := math.Pow(100, 1.1)
	d := math.Pow(50, 1.1)
	want := a / (a + d)
	if math.Abs(prob-want) > 1e-9 {
		t.Errorf("prob = %.6f, want %.6f", prob, want)
	}
	if prob <= 0.5 || prob >= 1 {
		t.Errorf("prob = %.6f, expected a reduced advantage in (0.5, 1)", prob)
	}
}

func TestCaptureSuccess(t *testing.T) {
	gs := twoFactionState()
	gs.Turn = 5
	gs.Planets["b1"].Population = 100
	addFleet(gs, "atk", "alpha", "b1", map[ShipType]int{Corvette: 30})
	gs.Siege["b1"] = map[string]int{"alpha": 2}

	e := NewEngine(gs, WithRand(&fixedRand{floats: []float64{0.0}}))
	ok := e.AttemptCapture(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"])
	if !ok {
		t.Fatal("capture should succeed on a zero roll")
	}
	if gs.Planets["b1"].Owner != "alpha" {
		t.Error("ownership did not transfer")
	}
	if gs.Factions["beta"].OwnsPlanet("b1") {
		t.Error("defender still lists the planet")
	}
	if got := gs.Planets["b1"].Population; got != 70 {
		t.Errorf("population after capture = %d, want 70", got)
	}
	if got := gs.Planets["b1"].ProtectedUntilTurn; got != 7 {
		t.Errorf("beachhead protection until turn %d, want 7", got)
	}
	if _, ok := gs.Siege["b1"]; ok {
		t.Error("siege entry should clear on capture")
	}
	if gs.Factions["alpha"].Diplomacy["beta"] != War || gs.Factions["beta"].Diplomacy["alpha"] != War {
		t.Error("capture should force mutual war")
	}
	if _, ok := lastEventOfType(gs, EvPlanetConquered); !ok {
		t.Error("expected planet_conquered event")
	}
}

func TestCaptureFailureAccumulatesSiege(t *testing.T) {
	gs := twoFactionState()
	addFleet(gs, "atk", "alpha", "b1", map[ShipType]int{Scout: 10})
	addFleet(gs, "def", "beta", "b1", map[ShipType]int{Scout: 10})

	e := NewEngine(gs, WithRand(&fixedRand{floats: []float64{0.99}}))
	if e.AttemptCapture(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"]) {
		t.Fatal("capture should fail on a high roll")
	}
	if got := gs.Siege["b1"]["alpha"]; got != 1 {
		t.Errorf("siege points = %d, want 1", got)
	}
	ev, ok := lastEventOfType(gs, EvDefenseSuccess)
	if !ok {
		t.Fatal("expected defense_success event")
	}
	if ev.Data["planet"] != "b1" {
		t.Errorf("defense_success planet = %v", ev.Data["planet"])
	}
}

func TestSiegeWearsDownDefense(t *testing.T) {
	gs := twoFactionState()
	addFleet(gs, "atk", "alpha", "b1", map[ShipType]int{Scout: 50})
	addFleet(gs, "def", "beta", "b1", map[ShipType]int{Scout: 50})
	e := testEngine(gs)

	_, fresh, _ := e.CaptureOdds(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"])
	gs.Siege["b1"] = map[string]int{"alpha": 5}
	_, worn, _ := e.CaptureOdds(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"])

	want := fresh / 1.5 // 1/(1+0.1*5)
	if math.Abs(worn-want) > 1e-9 {
		t.Errorf("worn defense = %.4f, want %.4f", worn, want)
	}
}

func TestBeachheadProtectionBoostsDefense(t *testing.T) {
	gs := twoFactionState()
	gs.Turn = 10
	gs.Planets["b1"].ProtectedUntilTurn = 12
	addFleet(gs, "atk", "alpha", "b1", map[ShipType]int{Scout: 50})
	addFleet(gs, "def", "beta", "b1", map[ShipType]int{Scout: 50})
	e := testEngine(gs)

	_, def, _ := e.CaptureOdds(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"])
	if math.Abs(def-60) > 1e-9 {
		t.Errorf("protected defense = %.2f, want 60 (50 x 1.2)", def)
	}

	gs.Turn = 12 // window closed
	_, def, _ = e.CaptureOdds(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"])
	if math.Abs(def-50) > 1e-9 {
		t.Errorf("post-window defense = %.2f, want 50", def)
	}
}

func TestDesperateCaptureBypassesDefense(t *testing.T) {
	gs := twoFactionState()
	gs.Planets["a1"].Owner = "beta"
	gs.Factions["alpha"].Planets = nil
	gs.Factions["beta"].Planets = append(gs.Factions["beta"].Planets, "a1")
	addFleet(gs, "atk", "alpha", "b1", map[ShipType]int{Scout: 11})
	addFleet(gs, "def", "beta", "b1", map[ShipType]int{Battleship: 100})

	// No roll consumed: the desperate path skips the probability check.
	e := NewEngine(gs, WithRand(&fixedRand{floats: []float64{0.99}}))
	if !e.AttemptCapture(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"]) {
		t.Fatal("desperate capture should succeed above the ship threshold")
	}
	if gs.Planets["b1"].Owner != "alpha" {
		t.Error("ownership did not transfer")
	}
	ev, ok := lastEventOfType(gs, EvPlanetConquered)
	if !ok {
		t.Fatal("expected planet_conquered event")
	}
	if ev.Data["desperate"] != true {
		t.Errorf("event data = %v, want desperate true", ev.Data)
	}
}

func TestEnergyShieldStopsDesperateCapture(t *testing.T) {
	gs := twoFactionState()
	gs.GameStartTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	gs.Factions["alpha"].Planets = nil
	gs.Planets["a1"].Owner = ""
	gs.Factions["beta"].Technologies = []string{TechShields}
	addFleet(gs, "atk", "alpha", "b1", map[ShipType]int{Scout: 20})

	e := NewEngine(gs,
		WithRand(&fixedRand{floats: []float64{0.0}}),
		WithClock(func() time.Time {
			return gs.GameStartTime.Add(11 * time.Minute)
		}),
	)
	if e.AttemptCapture(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"]) {
		t.Fatal("energy shield should block the desperate capture")
	}
	if _, ok := lastEventOfType(gs, EvShieldDefense); !ok {
		t.Error("expected shield_defense event")
	}
}

func TestTruceBlocksCapture(t *testing.T) {
	gs := twoFactionState()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	gs.TruceUntil = now.Add(5 * time.Minute)
	addFleet(gs, "atk", "alpha", "b1", map[ShipType]int{Battleship: 10})

	e := NewEngine(gs,
		WithRand(&fixedRand{floats: []float64{0.0}}),
		WithClock(func() time.Time { return now }),
	)
	if e.AttemptCapture(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"]) {
		t.Fatal("captures must not resolve during the truce")
	}
	if len(gs.Events) != 0 {
		t.Errorf("truce-blocked capture emitted events: %v", gs.Events)
	}
}

func TestDefenseChargeInterceptsAssault(t *testing.T) {
	gs := twoFactionState()
	gs.Factions["beta"].StrategyMode = ModeDefend
	gs.Factions["beta"].DefenseCharges = 1
	addFleet(gs, "atk", "alpha", "b1", map[ShipType]int{Battleship: 10})

	e := NewEngine(gs, WithRand(&fixedRand{floats: []float64{0.0}}))
	if e.AttemptCapture(gs.Factions["alpha"], gs.Factions["beta"], gs.Planets["b1"]) {
		t.Fatal("defense charge should intercept the assault")
	}
	if got := gs.Factions["beta"].DefenseCharges; got != 0 {
		t.Errorf("defense charges = %d, want 0", got)
	}
}

func TestMilitaryCapacityClamped(t *testing.T) {
	gs := twoFactionState()
	gs.Turn = 100 // base alone would exceed the cap
	gs.Factions["alpha"].Resources = Resources{Research: 100000}
	e := testEngine(gs)
	e.refreshMilitaryCapacity()

	if got := gs.Factions["alpha"].AttackCharges; got != 6 {
		t.Errorf("attack charges = %d, want clamp at 6", got)
	}
	if got := gs.Factions["beta"].DefenseCharges; got != 6 {
		t.Errorf("defense charges = %d, want clamp at 6", got)
	}
}

func TestWarPlanEmitsDefenseSuccessOnFailure(t *testing.T) {
	gs := twoFactionState()
	gs.Connections = append(gs.Connections, NewEdge("a1", "b1"))
	gs.Factions["alpha"].StrategyMode = ModeAttack
	gs.Factions["alpha"].WarTarget = "beta"
	gs.Factions["alpha"].AttackCharges = 1
	addFleet(gs, "def", "beta", "b1", map[ShipType]int{Battleship: 50})

	e := NewEngine(gs, WithRand(&fixedRand{floats: []float64{0.99, 0.99}}))
	e.resolveWarPlans()

	if gs.Planets["b1"].Owner != "beta" {
		t.Fatal("planet should hold")
	}
	if got := countEvents(gs, EvDefenseSuccess); got != 2 {
		t.Errorf("defense_success events = %d, want 2 (capture detail + war-plan summary)", got)
	}
	if got := gs.Factions["alpha"].AttackCharges; got != 0 {
		t.Errorf("attack charges = %d, want 0", got)
	}
}

func TestSelectAttackTargetPrefersUndefendedPopulation(t *testing.T) {
	gs := twoFactionState()
	gs.Planets["b2"] = &Planet{ID: "b2", Name: "b2", Owner: "beta", Population: 90,
		Buildings: []BuildingType{DefenseStation}}
	gs.Planets["b3"] = &Planet{ID: "b3", Name: "b3", Owner: "beta", Population: 80}
	gs.Factions["beta"].Planets = append(gs.Factions["beta"].Planets, "b2", "b3")
	e := testEngine(gs)

	got := e.selectAttackTarget(gs.Factions["beta"], []string{"b2", "b3"})
	if got != "b3" {
		t.Errorf("target = %q, want b3 (90-25 < 80)", got)
	}
}
