package domain

import "strings"

// DefaultCitizenshipAlpha3 is preselected on new customer forms.
const DefaultCitizenshipAlpha3 = "TWN"

// Citizenship is read-only reference data.
type Citizenship struct {
	ID     int    `json:"Id"`
	Nation string `json:"Nation"`
	Alpha3 string `json:"Alpha3"`
}

// Citizenships is the session's reference set.
type Citizenships []Citizenship

// Contains reports whether id exists in the set.
func (cs Citizenships) Contains(id int) bool {
	_, ok := cs.Find(id)
	return ok
}

// Find returns the entry with the given id.
func (cs Citizenships) Find(id int) (Citizenship, bool) {
	for _, c := range cs {
		if c.ID == id {
			return c, true
		}
	}
	return Citizenship{}, false
}

// NationName returns the display name for id, or "Unknown".
func (cs Citizenships) NationName(id int) string {
	if c, ok := cs.Find(id); ok {
		return c.Nation
	}
	return "Unknown"
}

// DefaultID picks the TWN entry, else the first entry, else 0.
func (cs Citizenships) DefaultID() int {
	for _, c := range cs {
		if strings.EqualFold(c.Alpha3, DefaultCitizenshipAlpha3) {
			return c.ID
		}
	}
	if len(cs) > 0 {
		return cs[0].ID
	}
	return 0
}
