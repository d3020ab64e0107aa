package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"retail-insights/internal/analysis"
	"retail-insights/internal/errors"
	"retail-insights/internal/services"
)

const dateLayout = "2006-01-02"

// reportParams is the filter and clustering input shared by the JSON API
// (query string) and the dashboard (datastar signals).
type reportParams struct {
	From      string   `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string   `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Countries []string `json:"countries" validate:"max=100,dive,required,max=100"`
	K         int      `json:"k" validate:"omitempty,min=1,max=20"`
	Seed      *uint64  `json:"seed"`
	Limit     int      `json:"limit" validate:"omitempty,min=1,max=5000"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var paramValidator = newParamValidator()

func newParamValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// paramsFromQuery reads from, to, country (repeatable), k, seed and limit.
func paramsFromQuery(r *http.Request) (reportParams, error) {
	q := r.URL.Query()
	p := reportParams{
		From:      q.Get("from"),
		To:        q.Get("to"),
		Countries: q["country"],
	}

	var err error
	if p.K, err = intParam(q.Get("k"), "k"); err != nil {
		return p, err
	}
	if p.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return p, err
	}
	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return p, errors.BadRequest(fmt.Sprintf("invalid seed %q", raw))
		}
		p.Seed = &seed
	}
	return p, nil
}

// paramsFromSignals reads the dashboard filter signals.
func paramsFromSignals(r *http.Request) (reportParams, error) {
	var p reportParams
	if err := datastar.ReadSignals(r, &p); err != nil {
		return p, errors.Wrap(err, errors.CodeBadRequest, "invalid dashboard signals")
	}
	return p, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.BadRequest(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return n, nil
}

// query validates p and converts it to a service query.
func (p reportParams) query() (services.Query, error) {
	if err := paramValidator.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return services.Query{}, errors.InternalWrap(err, "parameter validation failed")
		}
		details := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		return services.Query{}, errors.Validation("invalid query parameters").WithDetails(details)
	}

	var filter analysis.Filter
	if p.From != "" {
		filter.From, _ = time.Parse(dateLayout, p.From)
	}
	if p.To != "" {
		filter.To, _ = time.Parse(dateLayout, p.To)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return services.Query{}, errors.Unprocessable(fmt.Sprintf("from %s is after to %s", p.From, p.To))
	}
	for _, c := range p.Countries {
		if c = strings.TrimSpace(c); c != "" {
			filter.Countries = append(filter.Countries, c)
		}
	}

	return services.Query{Filter: filter, Clusters: p.K, Seed: p.Seed}, nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "required":
		return "must not be empty"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
