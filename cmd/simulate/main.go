// Command simulate runs headless self-play games against the turn engine.
// Useful for balance checks and for exercising the full resolution pipeline
// without a server, database, or clients.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/starlane-games/expanse/pkg/galaxy"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		numGames int
		planets  int
		factions int
		maxTurns int
		seed     int64
		jsonOut  bool
		verbose  bool
	)
	flag.IntVar(&numGames, "n", 1, "Number of games to run")
	flag.IntVar(&planets, "planets", 12, "Planets per galaxy")
	flag.IntVar(&factions, "factions", 3, "Factions per game")
	flag.IntVar(&maxTurns, "max-turns", 200, "Turn limit")
	flag.Int64Var(&seed, "seed", 0, "Base seed (0 = random)")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")
	flag.BoolVar(&verbose, "v", false, "Log every turn")
	flag.Parse()

	if factions < 2 || planets < factions {
		log.Fatal().Msg("Need at least 2 factions and one planet per faction")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	type result struct {
		Game      int     `json:"game"`
		Winner    string  `json:"winner"`
		EndReason string  `json:"end_reason"`
		Turns     int     `json:"turns"`
		Score     float64 `json:"score"`
	}
	wins := map[string]int{}
	var results []result

	for i := 0; i < numGames; i++ {
		rng := rand.New(rand.NewSource(seed + int64(i)))
		gs := runGame(rng, planets, factions, maxTurns, verbose)
		wins[gs.Winner]++
		results = append(results, result{
			Game:      i + 1,
			Winner:    gs.Winner,
			EndReason: gs.EndReason,
			Turns:     gs.Turn,
			Score:     gs.FinalScores[gs.Winner],
		})
		log.Info().Int("game", i+1).Str("winner", gs.Winner).
			Str("reason", gs.EndReason).Int("turns", gs.Turn).Msg("Game finished")
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(results)
		return
	}
	fmt.Printf("seed=%d games=%d\n", seed, numGames)
	for id, n := range wins {
		fmt.Printf("  %-12s %d\n", id, n)
	}
}

// runGame builds a random galaxy, seeds the factions, and resolves turns with
// a simple expansion policy until the game ends or hits the turn limit.
func runGame(rng *rand.Rand, planets, factions, maxTurns int, verbose bool) *galaxy.GameState {
	cfg := buildWorld(rng, planets, factions, maxTurns)
	gs, err := galaxy.NewGame(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("World generation failed")
	}

	engine := galaxy.NewEngine(gs, galaxy.WithRand(rng))
	for !gs.GameOver {
		var commands []galaxy.Command
		for _, fid := range gs.FactionIDs() {
			commands = append(commands, policy(rng, engine, fid)...)
		}
		if err := engine.ProcessTurn(commands); err != nil {
			log.Fatal().Err(err).Int("turn", gs.Turn).Msg("Turn resolution failed")
		}
		if verbose {
			log.Info().Int("turn", gs.Turn).Int("events", len(gs.Events)).Msg("Turn resolved")
		}
	}
	return gs
}

// buildWorld generates a ring of planets with random chords, so every galaxy
// is connected but no two look alike.
func buildWorld(rng *rand.Rand, planets, factions, maxTurns int) galaxy.GameConfig {
	types := []galaxy.PlanetType{galaxy.Tropical, galaxy.Arctic, galaxy.Barren}

	cfg := galaxy.GameConfig{
		Planets:  make(map[string]*galaxy.Planet, planets),
		MaxTurns: maxTurns,
	}
	ids := make([]string, planets)
	for i := 0; i < planets; i++ {
		id := fmt.Sprintf("p%02d", i)
		ids[i] = id
		cfg.Planets[id] = &galaxy.Planet{
			ID:   id,
			Name: fmt.Sprintf("Planet %02d", i),
			Type: types[rng.Intn(len(types))],
		}
	}

	for i := range ids {
		cfg.Connections = append(cfg.Connections, galaxy.NewEdge(ids[i], ids[(i+1)%len(ids)]))
	}
	for i := 0; i < planets/3; i++ {
		a, b := ids[rng.Intn(planets)], ids[rng.Intn(planets)]
		if a != b {
			cfg.Connections = append(cfg.Connections, galaxy.NewEdge(a, b))
		}
	}

	// Home worlds spread evenly around the ring.
	stride := planets / factions
	for f := 0; f < factions; f++ {
		cfg.Factions = append(cfg.Factions, galaxy.FactionSeed{
			ID:         fmt.Sprintf("faction_%d", f),
			Name:       fmt.Sprintf("Faction %d", f),
			IsAI:       true,
			HomePlanet: ids[f*stride],
		})
	}
	return cfg
}

var buildOptions = []galaxy.BuildingType{
	galaxy.EnergyPlant,
	galaxy.MiningStation,
	galaxy.ResearchLab,
	galaxy.DefenseStation,
	galaxy.Shipyard,
}

// policy issues a greedy turn for one faction: colonize any adjacent unowned
// planet, keep home industry growing, and push research.
func policy(rng *rand.Rand, engine *galaxy.Engine, factionID string) []galaxy.Command {
	gs := engine.State()
	faction := gs.Factions[factionID]
	var commands []galaxy.Command

	for _, pid := range faction.Planets {
		for _, n := range engine.Topology().ConnectedPlanets(gs, pid) {
			if gs.Planets[n].Owner == "" {
				commands = append(commands, galaxy.Command{
					Faction:  factionID,
					Type:     galaxy.CmdColonize,
					Colonize: &galaxy.ColonizeParams{FromPlanet: pid, ToPlanet: n},
				})
			}
		}
	}

	if len(faction.Planets) > 0 && rng.Float64() < 0.5 {
		pid := faction.Planets[rng.Intn(len(faction.Planets))]
		commands = append(commands, galaxy.Command{
			Faction: factionID,
			Type:    galaxy.CmdBuild,
			Build: &galaxy.BuildParams{
				Planet:   pid,
				Building: buildOptions[rng.Intn(len(buildOptions))],
			},
		})
	}

	techIDs := make([]string, 0, len(gs.Technologies))
	for tid := range gs.Technologies {
		techIDs = append(techIDs, tid)
	}
	sort.Strings(techIDs)
	for _, tid := range techIDs {
		if !faction.HasTech(tid) {
			commands = append(commands, galaxy.Command{
				Faction:  factionID,
				Type:     galaxy.CmdResearch,
				Research: &galaxy.ResearchParams{Technology: tid},
			})
			break
		}
	}

	return commands
}
