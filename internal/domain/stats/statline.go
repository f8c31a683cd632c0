package stats

import "encoding/json"

// StatLine is one player's aggregated line for one week. Stats carries
// role-prefixed keys (passer_yards, rusher_tds, receiver_anytime_td, ...);
// contributions from different roles are unioned into the same line.
type StatLine struct {
	Week        int
	DisplayName string
	Stats       map[string]int
}

// GameLogs maps canonical identity -> week -> stat line. Weeks are sparse:
// a player with no qualifying play in a week has no entry for that week.
type GameLogs map[string]map[int]StatLine

// MarshalJSON flattens the stat map into the line object so the snapshot
// document reads {"week":1,"display_name":"J.Allen","passer_yards":300,...}.
func (l StatLine) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(l.Stats)+2)
	flat["week"] = l.Week
	flat["display_name"] = l.DisplayName
	for key, value := range l.Stats {
		flat[key] = value
	}
	return json.Marshal(flat)
}

// UnmarshalJSON restores a flattened line.
func (l *StatLine) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	l.Stats = make(map[string]int)
	for key, raw := range flat {
		switch key {
		case "week":
			if err := json.Unmarshal(raw, &l.Week); err != nil {
				return err
			}
		case "display_name":
			if err := json.Unmarshal(raw, &l.DisplayName); err != nil {
				return err
			}
		default:
			var v int
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			l.Stats[key] = v
		}
	}
	return nil
}
