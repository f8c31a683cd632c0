// Package stats folds raw play-by-play records into per-player weekly
// statistical lines keyed by canonical identity.
package stats

// PlayRecord is one flat row of a play-by-play feed. Numeric outcome fields
// arrive as floats (the feed encodes indicators as 0.0/1.0) and are coerced
// to integers during aggregation. A play belongs to exactly one game and
// exactly one week.
type PlayRecord struct {
	GameID   string
	Week     int
	HomeTeam string
	AwayTeam string
	Posteam  string
	Defteam  string

	PasserName   string
	RusherName   string
	ReceiverName string

	YardsGained    float64
	PassingYards   float64
	RushingYards   float64
	ReceivingYards float64
	PassTouchdown  float64
	RushTouchdown  float64
	PassAttempt    float64
	RushAttempt    float64
	CompletePass   float64
}

// InvolvesTeam reports whether the team took part in the play's game,
// on either side of the ball.
func (r PlayRecord) InvolvesTeam(team string) bool {
	return r.HomeTeam == team || r.AwayTeam == team
}
