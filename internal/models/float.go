package models

import "encoding/json"

// Float is an optional float64. Derived features that cannot be computed
// (no prior history, division by zero) carry Valid=false instead of NaN,
// and marshal as JSON null.
type Float struct {
	Val   float64
	Valid bool
}

// F wraps a concrete value.
func F(v float64) Float {
	return Float{Val: v, Valid: true}
}

// NoFloat is the missing value.
var NoFloat = Float{}

// Div returns num/den, missing when den is zero.
func Div(num, den float64) Float {
	if den == 0 {
		return NoFloat
	}
	return F(num / den)
}

// MeanValid averages the valid entries of vs. Missing when none are valid.
func MeanValid(vs []Float) Float {
	var sum float64
	var n int
	for _, v := range vs {
		if v.Valid {
			sum += v.Val
			n++
		}
	}
	if n == 0 {
		return NoFloat
	}
	return F(sum / float64(n))
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Val)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NoFloat
		return nil
	}
	if err := json.Unmarshal(data, &f.Val); err != nil {
		return err
	}
	f.Valid = true
	return nil
}
