package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// looseFloat decodes a JSON number, a numeric string such as "8.5", or null.
type looseFloat struct {
	value *float64
}

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		f.value = nil
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
		if s == "" {
			f.value = nil
			return nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid number %s", data)
	}
	f.value = &v
	return nil
}

// UnmarshalJSON accepts rating and ratio as numbers or numeric strings.
// Prices already decode both ways through decimal.
func (w *WineItem) UnmarshalJSON(data []byte) error {
	type plain WineItem
	aux := struct {
		*plain
		Rating looseFloat `json:"rating"`
		Ratio  looseFloat `json:"ratio"`
	}{plain: (*plain)(w)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.Rating = 0
	if aux.Rating.value != nil {
		w.Rating = *aux.Rating.value
	}
	w.Ratio = aux.Ratio.value
	return nil
}
