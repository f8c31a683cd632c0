package stats

import (
	"github.com/okian/huddle/internal/domain/identity"
)

// roleField names one summed stat and how to read it off a play.
type roleField struct {
	stat  string
	value func(PlayRecord) float64
}

// roleConfig describes one player role: how to find the player on a play,
// which fields to sum, and whether a scoring flag is derived.
type roleConfig struct {
	name       string
	playerName func(PlayRecord) string
	fields     []roleField
	anytimeTD  bool // rusher/receiver set <role>_anytime_td when tds > 0
}

// roleConfigs is the fixed role -> stat mapping. Stat keys are prefixed by
// role before they land in a line, so the three roles never produce the same
// key; a recurring key would make the merge ambiguous.
var roleConfigs = []roleConfig{
	{
		name:       "passer",
		playerName: func(r PlayRecord) string { return r.PasserName },
		fields: []roleField{
			{stat: "yards", value: func(r PlayRecord) float64 { return r.PassingYards }},
			{stat: "tds", value: func(r PlayRecord) float64 { return r.PassTouchdown }},
			{stat: "attempts", value: func(r PlayRecord) float64 { return r.PassAttempt }},
			{stat: "completions", value: func(r PlayRecord) float64 { return r.CompletePass }},
		},
	},
	{
		name:       "rusher",
		playerName: func(r PlayRecord) string { return r.RusherName },
		fields: []roleField{
			{stat: "yards", value: func(r PlayRecord) float64 { return r.RushingYards }},
			{stat: "tds", value: func(r PlayRecord) float64 { return r.RushTouchdown }},
			{stat: "attempts", value: func(r PlayRecord) float64 { return r.RushAttempt }},
		},
		anytimeTD: true,
	},
	{
		name:       "receiver",
		playerName: func(r PlayRecord) string { return r.ReceiverName },
		fields: []roleField{
			{stat: "yards", value: func(r PlayRecord) float64 { return r.ReceivingYards }},
			{stat: "tds", value: func(r PlayRecord) float64 { return r.PassTouchdown }},
			{stat: "receptions", value: func(r PlayRecord) float64 { return r.CompletePass }},
		},
		anytimeTD: true,
	},
}

// Aggregator folds play records into per-player weekly lines.
type Aggregator struct {
	norm *identity.Normalizer
}

// NewAggregator creates an aggregator that keys lines by the given
// normalizer's canonical identities.
func NewAggregator(norm *identity.Normalizer) *Aggregator {
	return &Aggregator{norm: norm}
}

// groupKey identifies one (week, raw player name) aggregation group.
type groupKey struct {
	week int
	name string
}

// Aggregate builds the team's game logs from a season's play records.
//
// Plays are first restricted to games the team took part in, then per role
// to plays where the team had possession and the role's player is named.
// Summed fields land in the (identity, week) line under role-prefixed keys;
// roles union into the same line rather than overwriting each other.
// A team with no qualifying plays yields an empty, valid result.
func (a *Aggregator) Aggregate(records []PlayRecord, team string) GameLogs {
	logs := make(GameLogs)
	if team == "" {
		return logs
	}

	var teamGames []PlayRecord
	for _, r := range records {
		if r.InvolvesTeam(team) {
			teamGames = append(teamGames, r)
		}
	}
	if len(teamGames) == 0 {
		return logs
	}

	for _, role := range roleConfigs {
		sums := make(map[groupKey]map[string]float64)
		var order []groupKey // first-seen order keeps display names deterministic

		for _, r := range teamGames {
			name := role.playerName(r)
			if name == "" || r.Posteam != team {
				continue
			}
			key := groupKey{week: r.Week, name: name}
			group, ok := sums[key]
			if !ok {
				group = make(map[string]float64, len(role.fields))
				sums[key] = group
				order = append(order, key)
			}
			for _, f := range role.fields {
				group[f.stat] += f.value(r)
			}
		}

		for _, key := range order {
			a.merge(logs, role, key, sums[key])
		}
	}
	return logs
}

// merge folds one role's summed group into the (identity, week) line,
// creating it on first contact and never deleting it.
func (a *Aggregator) merge(logs GameLogs, role roleConfig, key groupKey, summed map[string]float64) {
	id := a.norm.Normalize(key.name)
	weeks, ok := logs[id]
	if !ok {
		weeks = make(map[int]StatLine)
		logs[id] = weeks
	}
	line, ok := weeks[key.week]
	if !ok {
		line = StatLine{
			Week:        key.week,
			DisplayName: key.name,
			Stats:       make(map[string]int),
		}
	}
	for stat, value := range summed {
		line.Stats[role.name+"_"+stat] = int(value)
	}
	if role.anytimeTD && summed["tds"] > 0 {
		line.Stats[role.name+"_anytime_td"] = 1
	}
	weeks[key.week] = line
}
