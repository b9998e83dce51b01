// Package model defines firms and raw assessments as the backend sends them.
package model

import "strings"

// Address holds the nested address block some firm records carry.
type Address struct {
	Location string `json:"location,omitempty"`
	Street   string `json:"street,omitempty"`
	City     string `json:"city,omitempty"`
}

// Firm is a company whose ESG assessments are scored. It is owned by the
// backend and consumed read-only; its fields are used purely as grouping keys.
type Firm struct {
	ID           string   `json:"id"`
	Name         string   `json:"firm"`
	Email        string   `json:"email,omitempty"`
	Sector       string   `json:"sector,omitempty"`
	BusinessSize string   `json:"business_size,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	LocationName string   `json:"location,omitempty"`
	Address      *Address `json:"address,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// Location returns the firm's location, falling back to address.location.
func (f *Firm) Location() string {
	if strings.TrimSpace(f.LocationName) != "" {
		return f.LocationName
	}
	if f.Address != nil {
		return f.Address.Location
	}
	return ""
}

// IndustryCategory returns the main category of a compound
// "Category: Subcategory" industry string. Industries without a colon are
// their own category.
func (f *Firm) IndustryCategory() string {
	main, _, _ := strings.Cut(f.Industry, ":")
	return strings.TrimSpace(main)
}
