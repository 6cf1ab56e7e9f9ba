package models

import (
	"errors"
	"strings"
)

// ErrValidation is the base class for user-correctable input problems.
var ErrValidation = errors.New("validation failed")

// AddressParts is the structured form users fill in at registration.
type AddressParts struct {
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
	Block        string `json:"block"`
	Entrance     string `json:"entrance"`
}

func (p AddressParts) trimmed() AddressParts {
	return AddressParts{
		City:         strings.TrimSpace(p.City),
		Neighborhood: strings.TrimSpace(p.Neighborhood),
		Street:       strings.TrimSpace(p.Street),
		StreetNumber: strings.TrimSpace(p.StreetNumber),
		Block:        strings.TrimSpace(p.Block),
		Entrance:     strings.TrimSpace(p.Entrance),
	}
}

// Validate enforces the address invariant: city is mandatory, at least one of
// neighborhood/street, and at least one of street number/block. All problems
// are reported together so a form can surface them in one round trip.
func (p AddressParts) Validate() error {
	t := p.trimmed()
	var errs []error
	if t.City == "" {
		errs = append(errs, errors.New("city is mandatory"))
	}
	if t.Neighborhood == "" && t.Street == "" {
		errs = append(errs, errors.New("provide either a neighborhood or a street name"))
	}
	if t.StreetNumber == "" && t.Block == "" {
		errs = append(errs, errors.New("provide either a street number or a block number"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrValidation}, errs...)...)
	}
	return nil
}

// ComposeAddress assembles the canonical geocodable string:
// street (+ number), neighborhood, блок N (+ entrance), city, comma-joined.
// The ordering feeds directly into geocoding accuracy and must not change.
func (p AddressParts) ComposeAddress() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	t := p.trimmed()
	var parts []string
	if t.Street != "" {
		line := t.Street
		if t.StreetNumber != "" {
			line += " " + t.StreetNumber
		}
		parts = append(parts, line)
	}
	if t.Neighborhood != "" {
		parts = append(parts, t.Neighborhood)
	}
	if t.Block != "" {
		parts = append(parts, "блок "+t.Block)
		if t.Entrance != "" {
			parts = append(parts, t.Entrance)
		}
	}
	parts = append(parts, t.City)
	return strings.Join(parts, ", "), nil
}
