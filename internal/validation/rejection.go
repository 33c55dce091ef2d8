package validation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/envelope"
)

// DuplicateNationalID is shown when the backend refuses a second customer
// with the same national ID.
const DuplicateNationalID = "This National ID already exists"

const codeDuplicate = "duplicate"

// bodyCarrier is implemented by transport errors that kept the response
// body of a non-success status.
type bodyCarrier interface {
	ResponseBody() []byte
}

// FromRejection maps a backend rejection of a create or update onto the
// same field-keyed shape that local validation produces.
//
// A structured field error in the response is preferred:
//
//	{"errors": {"NationalId": "..."}}
//	{"field": "NationalId", "code": "duplicate"}
//
// Failing that, rejection text mentioning the national ID or the
// backend's "already existed" wording is attributed to nationalId.
// FromRejection returns nil when the response was not a rejection or
// names no field.
func FromRejection(op string, err error, env envelope.Envelope) *domain.ValidationError {
	var bodies [][]byte
	var texts []string

	var bc bodyCarrier
	if errors.As(err, &bc) {
		body := bc.ResponseBody()
		bodies = append(bodies, body)
		texts = append(texts, envelope.Normalize(body).Message)
	}
	if msg, ok := env.Rejection(); ok {
		bodies = append(bodies, env.Raw)
		texts = append(texts, msg)
	}
	if len(bodies) == 0 {
		return nil
	}

	for _, body := range bodies {
		if fields := structuredFields(body); len(fields) > 0 {
			return &domain.ValidationError{Op: op, Fields: fields}
		}
	}

	for _, text := range texts {
		lower := strings.ToLower(text)
		if strings.Contains(lower, "nationalid") || strings.Contains(lower, "already existed") {
			return domain.NewValidationError(op, "nationalId", DuplicateNationalID)
		}
	}
	return nil
}

func structuredFields(body []byte) map[string]string {
	if !gjson.ValidBytes(body) {
		return nil
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil
	}

	fields := make(map[string]string)
	if errs := root.Get("errors"); errs.IsObject() {
		errs.ForEach(func(k, v gjson.Result) bool {
			if name := formName(k.String()); name != "" && v.String() != "" {
				fields[name] = v.String()
			}
			return true
		})
		return fields
	}

	field := root.Get("field").String()
	name := formName(field)
	if name == "" {
		return nil
	}
	switch {
	case root.Get("code").String() == codeDuplicate:
		fields[name] = duplicateMessage(name, field)
	case root.Get("message").String() != "":
		fields[name] = root.Get("message").String()
	case root.Get("Message").String() != "":
		fields[name] = root.Get("Message").String()
	default:
		fields[name] = "Invalid value"
	}
	return fields
}

func duplicateMessage(name, wire string) string {
	if name == "nationalId" {
		return DuplicateNationalID
	}
	return "This " + wire + " already exists"
}

// formName converts a wire field name ("NationalId") to the form field
// name used in validation results ("nationalId").
func formName(wire string) string {
	wire = strings.TrimSpace(wire)
	if wire == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(wire)
	return string(unicode.ToLower(r)) + wire[size:]
}
