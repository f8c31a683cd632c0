// Package rankings computes per-team season averages and league-wide
// ordinal ranks from full-season play records.
package rankings

import (
	"sort"

	"github.com/okian/huddle/internal/domain/stats"
)

// TeamSeasonAverage holds one team's per-game averages and its rank in each
// of the six yardage categories. Rank 1 is best: most yards gained on
// offense, fewest yards allowed on defense.
type TeamSeasonAverage struct {
	AvgOffYards     float64 `json:"avg_off_yards"`
	AvgPassYards    float64 `json:"avg_pass_yards"`
	AvgRushYards    float64 `json:"avg_rush_yards"`
	AvgDefYards     float64 `json:"avg_def_yards"`
	AvgDefPassYards float64 `json:"avg_def_pass_yards"`
	AvgDefRushYards float64 `json:"avg_def_rush_yards"`

	RankOffenseYards     int `json:"rank_offense_yards"`
	RankPassOffenseYards int `json:"rank_pass_offense_yards"`
	RankRushOffenseYards int `json:"rank_rush_offense_yards"`
	RankDefenseYards     int `json:"rank_defense_yards"`
	RankPassDefenseYards int `json:"rank_pass_defense_yards"`
	RankRushDefenseYards int `json:"rank_rush_defense_yards"`
}

// gameTotals accumulates yardage for one (game, team) pairing.
type gameTotals struct {
	total float64
	pass  float64
	rush  float64
}

// sideKey identifies one team's side of one game.
type sideKey struct {
	game string
	team string
}

// Rank computes season averages and competition ranks for every team that
// appears in the records on either side of the ball. A team present only on
// one side keeps zeros for the other side's averages; the zeros participate
// in ranking like any other value. Empty input yields an empty map, not an
// error.
func Rank(records []stats.PlayRecord) map[string]TeamSeasonAverage {
	out := make(map[string]TeamSeasonAverage)
	if len(records) == 0 {
		return out
	}

	offense := perGameTotals(records, func(r stats.PlayRecord) string { return r.Posteam })
	defense := perGameTotals(records, func(r stats.PlayRecord) string { return r.Defteam })

	offAvg := averageByTeam(offense)
	defAvg := averageByTeam(defense)

	for team, avg := range offAvg {
		entry := out[team]
		entry.AvgOffYards = avg.total
		entry.AvgPassYards = avg.pass
		entry.AvgRushYards = avg.rush
		out[team] = entry
	}
	for team, avg := range defAvg {
		entry := out[team]
		entry.AvgDefYards = avg.total
		entry.AvgDefPassYards = avg.pass
		entry.AvgDefRushYards = avg.rush
		out[team] = entry
	}

	assign(out, func(e TeamSeasonAverage) float64 { return e.AvgOffYards }, false,
		func(e *TeamSeasonAverage, rank int) { e.RankOffenseYards = rank })
	assign(out, func(e TeamSeasonAverage) float64 { return e.AvgPassYards }, false,
		func(e *TeamSeasonAverage, rank int) { e.RankPassOffenseYards = rank })
	assign(out, func(e TeamSeasonAverage) float64 { return e.AvgRushYards }, false,
		func(e *TeamSeasonAverage, rank int) { e.RankRushOffenseYards = rank })
	assign(out, func(e TeamSeasonAverage) float64 { return e.AvgDefYards }, true,
		func(e *TeamSeasonAverage, rank int) { e.RankDefenseYards = rank })
	assign(out, func(e TeamSeasonAverage) float64 { return e.AvgDefPassYards }, true,
		func(e *TeamSeasonAverage, rank int) { e.RankPassDefenseYards = rank })
	assign(out, func(e TeamSeasonAverage) float64 { return e.AvgDefRushYards }, true,
		func(e *TeamSeasonAverage, rank int) { e.RankRushDefenseYards = rank })

	return out
}

// perGameTotals sums yardage per (game, side team).
func perGameTotals(records []stats.PlayRecord, side func(stats.PlayRecord) string) map[sideKey]gameTotals {
	totals := make(map[sideKey]gameTotals)
	for _, r := range records {
		team := side(r)
		if team == "" || r.GameID == "" {
			continue
		}
		key := sideKey{game: r.GameID, team: team}
		t := totals[key]
		t.total += r.YardsGained
		t.pass += r.PassingYards
		t.rush += r.RushingYards
		totals[key] = t
	}
	return totals
}

// averageByTeam averages per-game totals across each team's games.
func averageByTeam(perGame map[sideKey]gameTotals) map[string]gameTotals {
	sums := make(map[string]gameTotals)
	games := make(map[string]int)
	for key, t := range perGame {
		s := sums[key.team]
		s.total += t.total
		s.pass += t.pass
		s.rush += t.rush
		sums[key.team] = s
		games[key.team]++
	}

	avgs := make(map[string]gameTotals, len(sums))
	for team, s := range sums {
		n := float64(games[team])
		avgs[team] = gameTotals{total: s.total / n, pass: s.pass / n, rush: s.rush / n}
	}
	return avgs
}

// assign writes competition ranks ("min" method) for one metric: ties share
// the lowest eligible rank and the next distinct value skips past the tied
// block, e.g. 1,1,3.
func assign(out map[string]TeamSeasonAverage, metric func(TeamSeasonAverage) float64, ascending bool, set func(*TeamSeasonAverage, int)) {
	teams := make([]string, 0, len(out))
	for team := range out {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool {
		vi, vj := metric(out[teams[i]]), metric(out[teams[j]])
		if vi != vj {
			if ascending {
				return vi < vj
			}
			return vi > vj
		}
		return teams[i] < teams[j]
	})

	rank := 0
	var prev float64
	for i, team := range teams {
		value := metric(out[team])
		if i == 0 || value != prev {
			rank = i + 1
			prev = value
		}
		entry := out[team]
		set(&entry, rank)
		out[team] = entry
	}
}
