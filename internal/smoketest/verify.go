package smoketest

import (
	"fmt"

	"github.com/okian/huddle/internal/domain/snapshot"
)

// VerifySnapshot checks the structural invariants of an assembled document
// and returns one problem string per violation.
func VerifySnapshot(doc *snapshot.Document) []string {
	var problems []string

	if doc.RunID == "" {
		problems = append(problems, "snapshot has no run id")
	}
	if doc.LastUpdated.IsZero() {
		problems = append(problems, "snapshot has no last_updated stamp")
	}
	if len(doc.Stages) == 0 {
		problems = append(problems, "snapshot reports no stages")
	}

	for _, stage := range doc.Stages {
		switch stage.Status {
		case snapshot.StatusOK, snapshot.StatusEmpty, snapshot.StatusFailed:
		default:
			problems = append(problems, fmt.Sprintf("stage %s has unknown status %q", stage.Name, stage.Status))
		}
		if stage.Status == snapshot.StatusFailed && stage.Error == "" {
			problems = append(problems, fmt.Sprintf("failed stage %s carries no error", stage.Name))
		}
	}

	problems = append(problems, verifyLogs("nfl_stats", doc.NFLStats)...)
	problems = append(problems, verifyLogs("opponent_nfl_stats", doc.OpponentNFLStats)...)

	for team, avg := range doc.TeamRankings {
		if avg.RankOffenseYards < 0 || avg.RankDefenseYards < 0 {
			problems = append(problems, fmt.Sprintf("team %s has a negative rank", team))
		}
	}

	return problems
}

// verifyLogs checks that weekly lines sit under their own week key.
func verifyLogs(label string, ts snapshot.TeamStats) []string {
	var problems []string
	for _, season := range []*snapshot.SeasonStats{ts.CurrentSeason, ts.PreviousSeason} {
		if season == nil {
			continue
		}
		for player, weeks := range season.PlayerGameLogs {
			for week, line := range weeks {
				if line.Week != week {
					problems = append(problems, fmt.Sprintf(
						"%s: player %s week %d line claims week %d", label, player, week, line.Week))
				}
				if line.DisplayName == "" {
					problems = append(problems, fmt.Sprintf(
						"%s: player %s week %d has no display name", label, player, week))
				}
			}
		}
	}
	return problems
}
