// Package levels maps a congestion percentage to one of ten severity tiers.
package levels

// Level is a single congestion tier
type Level struct {
	Threshold   float64 `json:"threshold"`
	Rank        int     `json:"rank"`
	Icon        string  `json:"icon"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

// OverflowThreshold marks the last tier, which catches everything above 225%
const OverflowThreshold = 9999

// table is ordered ascending by threshold
var table = []Level{
	{32, 1, "😌", "Bliss", "Plenty of seats. Sit wherever you like and relax."},
	{50, 2, "🙂", "Comfortable", "All seats taken and about 30 passengers standing."},
	{75, 3, "😐", "Moderate", "More standing passengers; most handles are taken."},
	{100, 4, "😑", "Dense", "Rated capacity reached. No free space left."},
	{125, 5, "😒", "Uncomfortable", "Passengers start touching. Moving your arms is awkward."},
	{150, 6, "😖", "Pressed", "Packed train. Hard to look at a phone; your body is pinned."},
	{175, 7, "😫", "Painful", "Strong pressure from every side; hard to keep balance."},
	{200, 8, "🥵", "Dangerous", "Stuffy and short of air. Risk of fainting."},
	{225, 9, "😵", "Terrifying", "Movement impossible. Severe fear and crush risk."},
	{OverflowThreshold, 10, "😱", "Disaster", "Beyond physical limits. Immediate crowd control is required."},
}

// Lookup returns the first tier whose threshold is >= pct, else the overflow tier
func Lookup(pct float64) Level {
	for _, l := range table {
		if pct <= l.Threshold {
			return l
		}
	}
	return table[len(table)-1]
}

// All returns a copy of the level table
func All() []Level {
	out := make([]Level, len(table))
	copy(out, table)
	return out
}
