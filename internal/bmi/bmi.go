// Package bmi implements the body mass index assessment shown on the
// assessment page: input parsing, the formula, WHO category thresholds and
// the advice attached to each category.
package bmi

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrMissingFields = errors.New("Please fill in all fields")
	ErrInvalidInput  = errors.New("Please enter valid numbers for weight and height.")
	ErrInvalidGender = errors.New("gender must be male or female")
)

var numericPattern = regexp.MustCompile(`^\d*\.?\d*$`)

type Category string

const (
	Underweight  Category = "Underweight"
	NormalWeight Category = "Normal weight"
	Overweight   Category = "Overweight"
	Obese        Category = "Obese"
)

var colors = map[Category]string{
	Underweight:  "#3B82F6",
	NormalWeight: "#10B981",
	Overweight:   "#F59E0B",
	Obese:        "#EF4444",
}

// Color is the display color used for the category badge.
func (c Category) Color() string {
	return colors[c]
}

type Assessment struct {
	WeightKg float64  `json:"weight_kg"`
	HeightCm float64  `json:"height_cm"`
	Gender   string   `json:"gender"`
	BMI      float64  `json:"bmi"`
	Category Category `json:"category"`
	Color    string   `json:"color"`
	Tips     Tips     `json:"tips"`
}

// Calculate returns weight / (height in meters)^2.
func Calculate(weightKg, heightCm float64) (float64, error) {
	if !positive(weightKg) || !positive(heightCm) {
		return 0, ErrInvalidInput
	}
	m := heightCm / 100
	v := weightKg / (m * m)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrInvalidInput
	}
	return v, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func Classify(bmi float64) Category {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return NormalWeight
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}

// ParseNumeric accepts only unsigned decimal literals such as "70", "70.5"
// or ".5". Signs, exponents and whitespace are rejected.
func ParseNumeric(s string) (float64, error) {
	if s == "" || !numericPattern.MatchString(s) {
		return 0, ErrInvalidInput
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidInput
	}
	return v, nil
}

func ParseGender(s string) (string, error) {
	g := strings.ToLower(strings.TrimSpace(s))
	if g != "male" && g != "female" {
		return "", ErrInvalidGender
	}
	return g, nil
}

// Assess validates raw form values and produces the full assessment.
func Assess(weight, height, gender string) (Assessment, error) {
	weight = strings.TrimSpace(weight)
	height = strings.TrimSpace(height)
	if weight == "" || height == "" || strings.TrimSpace(gender) == "" {
		return Assessment{}, ErrMissingFields
	}

	w, err := ParseNumeric(weight)
	if err != nil {
		return Assessment{}, err
	}
	h, err := ParseNumeric(height)
	if err != nil {
		return Assessment{}, err
	}
	g, err := ParseGender(gender)
	if err != nil {
		return Assessment{}, err
	}

	v, err := Calculate(w, h)
	if err != nil {
		return Assessment{}, err
	}

	// Category is taken from the unrounded value, as the form always did.
	cat := Classify(v)
	return Assessment{
		WeightKg: w,
		HeightCm: h,
		Gender:   g,
		BMI:      Round1(v),
		Category: cat,
		Color:    cat.Color(),
		Tips:     TipsFor(cat),
	}, nil
}
