package models

import (
	"fmt"
	"strings"
)

// Course is one entry of the course catalog.
type Course struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	ShortDescription string   `json:"short_description" yaml:"short_description"`
	Description      string   `json:"description" yaml:"description"`
	Level            string   `json:"level" yaml:"level"`
	Modality         string   `json:"modality" yaml:"modality"`
	Price            float64  `json:"price" yaml:"price"`
	Currency         string   `json:"currency" yaml:"currency"`
	Sessions         int      `json:"sessions" yaml:"sessions"`
	DurationHours    int      `json:"duration_hours" yaml:"duration_hours"`
	Topics           []string `json:"topics,omitempty" yaml:"topics"`
}

// PriceLabel formats the price for chat messages, e.g. "$4,500 MXN".
func (c Course) PriceLabel() string {
	if c.Price <= 0 {
		return "consultar"
	}
	whole := int64(c.Price)
	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	label := "$" + b.String()
	if c.Currency != "" {
		label += " " + c.Currency
	}
	return label
}

// Bonus is an extra resource offered together with the bank transfer details.
type Bonus struct {
	ID          string   `json:"id" yaml:"id"`
	CourseID    string   `json:"course_id,omitempty" yaml:"course_id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Personas    []string `json:"personas,omitempty" yaml:"personas"`
	ResourceURL string   `json:"resource_url,omitempty" yaml:"resource_url"`
}

// MatchesPersona reports whether the bonus targets the given buyer persona.
func (b Bonus) MatchesPersona(persona string) bool {
	persona = strings.ToLower(strings.TrimSpace(persona))
	if persona == "" {
		return false
	}
	for _, p := range b.Personas {
		p = strings.ToLower(p)
		if p == persona || strings.Contains(persona, p) {
			return true
		}
	}
	return false
}

// BankDetails are the transfer instructions sent with a purchase bonus.
type BankDetails struct {
	Bank          string `json:"bank" yaml:"bank"`
	AccountHolder string `json:"account_holder" yaml:"account_holder"`
	CLABE         string `json:"clabe" yaml:"clabe"`
	Reference     string `json:"reference" yaml:"reference"`
}
