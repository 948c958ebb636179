package domain

import "strings"

// Bucket names for tickets whose location is missing or not in the
// province table.
const (
	NoLocation         = "No Location"
	UnassignedLocation = "Unassigned"
)

// Province holds the canonical location names for one province. The
// declaration order of Provinces is part of the grouping contract: the
// province view renders in this order.
type Province struct {
	Name      string
	Locations []string
}

// Provinces is the static province -> locations table used for the
// grouped ticket view.
var Provinces = []Province{
	{Name: "Nova Scotia", Locations: []string{"Bedford", "Dartmouth", "Halifax", "Bayers Lake", "Truro"}},
	{Name: "Prince Edward Island", Locations: []string{"Stratford"}},
	{Name: "New Brunswick", Locations: []string{"River Oaks"}},
}

// CanonicalLocation resolves a free-form location string against the
// province table, case-insensitively. It returns the canonical spelling
// and true on a match, or ("", false) when the location is empty or
// unknown.
func CanonicalLocation(location string) (string, bool) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return "", false
	}
	for _, province := range Provinces {
		for _, name := range province.Locations {
			if strings.EqualFold(name, trimmed) {
				return name, true
			}
		}
	}
	return "", false
}

// ProvinceOf returns the province a canonical location belongs to.
func ProvinceOf(canonical string) (string, bool) {
	for _, province := range Provinces {
		for _, name := range province.Locations {
			if name == canonical {
				return province.Name, true
			}
		}
	}
	return "", false
}

// AllLocations returns every canonical location in table order.
func AllLocations() []string {
	var out []string
	for _, province := range Provinces {
		out = append(out, province.Locations...)
	}
	return out
}
