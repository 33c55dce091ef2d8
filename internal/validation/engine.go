// Package validation guards entity mutations before they reach the network.
//
// Rules live in the validate struct tags of the domain parameter types.
// The Engine registers the custom tags those rules need and turns
// validator failures into the field-keyed domain.ValidationError that the
// CLI renders beside each input. Every failing field contributes exactly
// one message; the first failing rule for a field wins.
package validation

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/DukeRupert/crmsclient/internal/domain"
)

var (
	nationalIDPattern = regexp.MustCompile(`^[A-Za-z0-9\-_]+$`)
	phonePattern      = regexp.MustCompile(`^\+?[0-9()\-\s]{7,20}$`)
	carNumberPattern  = regexp.MustCompile(`^[A-Za-z0-9\-]{1,20}$`)
)

const minBirthYear = 1900

type refsKey struct{}

// Engine validates customer and history parameters.
// It is safe for concurrent use.
type Engine struct {
	validate *validator.Validate
	now      func() time.Time
}

// New creates an Engine. now supplies "today" for date rules; nil means
// time.Now.
func New(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}

	// Report fields under their form names.
	e.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	must(e.validate.RegisterValidation("notblank", notBlank))
	must(e.validate.RegisterValidation("isodate", isoDate))
	must(e.validate.RegisterValidation("notfuture", e.notFuture))
	must(e.validate.RegisterValidation("since1900", since1900))
	must(e.validate.RegisterValidation("nationalid", matches(nationalIDPattern, false)))
	must(e.validate.RegisterValidation("phone", matches(phonePattern, true)))
	must(e.validate.RegisterValidation("carnumber", matches(carNumberPattern, true)))
	must(e.validate.RegisterValidationCtx("citizenship", inReferenceSet))

	return e
}

// ValidateCustomer checks a customer submission against the rule set and
// the session's citizenship reference data. It returns nil when the
// customer is valid.
func (e *Engine) ValidateCustomer(p domain.CustomerParams, refs domain.Citizenships) *domain.ValidationError {
	const op = "customer.validate"
	ctx := context.WithValue(context.Background(), refsKey{}, refs)
	return e.check(ctx, op, customerMessages, p)
}

// ValidateHistory checks a history submission. It returns nil when the
// record is valid.
func (e *Engine) ValidateHistory(p domain.HistoryParams) *domain.ValidationError {
	const op = "history.validate"
	return e.check(context.Background(), op, historyMessages, p)
}

func (e *Engine) check(ctx context.Context, op string, msgs messages, s any) *domain.ValidationError {
	err := e.validate.StructCtx(ctx, s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: a programming error, not user input.
		return domain.NewValidationError(op, "", err.Error())
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, seen := ve.Fields[fe.Field()]; seen {
			continue
		}
		ve.Fields[fe.Field()] = msgs.lookup(fe.Field(), fe.Tag())
	}
	return ve
}

// =============================================================================
// Custom rules
// =============================================================================

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func isoDate(fl validator.FieldLevel) bool {
	_, ok := parseDate(fl.Field().String())
	return ok
}

func (e *Engine) notFuture(fl validator.FieldLevel) bool {
	d, ok := parseDate(fl.Field().String())
	if !ok {
		return true
	}
	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !d.After(today)
}

func since1900(fl validator.FieldLevel) bool {
	d, ok := parseDate(fl.Field().String())
	if !ok {
		return true
	}
	return d.Year() >= minBirthYear
}

// matches checks the trimmed value against re. Optional fields pass
// when blank.
func matches(re *regexp.Regexp, optional bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := strings.TrimSpace(fl.Field().String())
		if v == "" {
			return optional
		}
		return re.MatchString(v)
	}
}

func inReferenceSet(ctx context.Context, fl validator.FieldLevel) bool {
	refs, _ := ctx.Value(refsKey{}).(domain.Citizenships)
	return refs.Contains(int(fl.Field().Int()))
}

// parseDate accepts a plain ISO date or an RFC 3339 timestamp and returns
// the calendar date at UTC midnight.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
