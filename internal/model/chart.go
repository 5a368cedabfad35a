package model

import (
	"encoding/json"
	"fmt"
)

// NormalizedRow holds every series value observed for one calendar day.
// A series with no sample that day has no key in Values.
type NormalizedRow struct {
	Date   string
	Values map[string]float64
}

// MarshalJSON flattens Values next to the date, e.g. {"date":"2023-01-01","bitcoin":1000}.
func (r NormalizedRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		out[k] = v
	}
	out["date"] = r.Date
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *NormalizedRow) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Date = ""
	r.Values = make(map[string]float64, len(raw))
	for k, v := range raw {
		if k == "date" {
			if err := json.Unmarshal(v, &r.Date); err != nil {
				return fmt.Errorf("row date: %w", err)
			}
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return fmt.Errorf("row value %q: %w", k, err)
		}
		r.Values[k] = f
	}
	return nil
}
