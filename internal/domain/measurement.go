package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Measurement struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"user_id"`
	WeightKg   float64   `json:"weight_kg"`
	HeightCm   float64   `json:"height_cm"`
	Gender     string    `json:"gender"`
	BMI        float64   `json:"bmi"`
	Category   string    `json:"category"`
	MeasuredAt time.Time `json:"measured_at"`
}

// AssessRequest keeps the raw form strings so that validation can reject
// anything that is not a plain decimal number. JSON clients may send weight
// and height either as strings or as numbers.
type AssessRequest struct {
	Weight string `json:"weight"`
	Height string `json:"height"`
	Gender string `json:"gender"`
}

func (a *AssessRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Weight json.RawMessage `json:"weight"`
		Height json.RawMessage `json:"height"`
		Gender string          `json:"gender"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	weight, err := numericField("weight", raw.Weight)
	if err != nil {
		return err
	}
	height, err := numericField("height", raw.Height)
	if err != nil {
		return err
	}
	*a = AssessRequest{Weight: weight, Height: height, Gender: raw.Gender}
	return nil
}

// numericField returns a string or number value as its literal text.
func numericField(name string, raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%s must be a string or a number", name)
	}
	return n.String(), nil
}
