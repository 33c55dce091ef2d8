package validation

// messages maps "field.tag" to the text shown beside the field.
// A field-level "field" entry is the fallback for unlisted tags.
type messages map[string]string

func (m messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}
	return "Invalid value"
}

var customerMessages = messages{
	"name.notblank":             "Name is required",
	"name.max":                  "Name must be less than 100 characters",
	"gender.required":           "Gender is required",
	"gender.oneof":              `Gender must be "Male" or "Female"`,
	"birthday.required":         "Birthday is required",
	"birthday.isodate":          "Invalid date format",
	"birthday.notfuture":        "Birthday cannot be in the future",
	"birthday.since1900":        "Birthday year must be after 1900",
	"nationalId.notblank":       "National ID is required",
	"nationalId.max":            "National ID must be less than 100 characters",
	"nationalId.nationalid":     "National ID can only contain letters, numbers, hyphens, and underscores",
	"address.max":               "Address must be less than 500 characters",
	"phoneNumber.phone":         "Invalid phone number format",
	"carNumber.carnumber":       "Car number can only contain letters, numbers, and hyphens (max 20 chars)",
	"citizenshipId.gt":          "Please select a valid citizenship",
	"citizenshipId.citizenship": "Selected citizenship does not exist",
	"note.max":                  "Note must be less than 1000 characters",
}

var historyMessages = messages{
	"customerId":         "Please choose a customer",
	"date.required":      "Date is required",
	"date.isodate":       "Invalid date format",
	"numberOfPeople.min": "Number of people must be at least 1",
	"price.gte":          "Price cannot be negative",
	"room.notblank":      "Room is required",
	"note.max":           "Note must be less than 1000 characters",
}
