package models

import "strings"

// Address is a postal address embedded in users and clients.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Lines formats the address for printing, skipping empty parts.
func (a Address) Lines() []string {
	var lines []string
	if a.Street != "" {
		lines = append(lines, a.Street)
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(a.City, a.State, a.ZipCode), " "))
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	return lines
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Client is a billable contact owned by a user.
type Client struct {
	Base
	UserID  string  `gorm:"type:uuid;not null;index" json:"userId"`
	Name    string  `gorm:"not null" json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address Address `gorm:"embedded;embeddedPrefix:address_" json:"address"`
}
