package history

import (
	"encoding/json"
	"sort"
)

// Minutes is an ascending list of departure minutes within an hour
type Minutes []int

// UnmarshalJSON accepts plain numbers or {"minute": n} objects
func (m *Minutes) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Minutes, 0, len(raw))
	for _, item := range raw {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			out = append(out, n)
			continue
		}
		var obj struct {
			Minute int `json:"minute"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		out = append(out, obj.Minute)
	}
	sort.Ints(out)
	*m = out
	return nil
}
