package config

import (
	"reflect"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the environment variable that sets them.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate checks cfg and reports every problem at once, naming the
// environment variables involved.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "failed to validate configuration")
	}

	var missing, invalid []string
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "required_if":
			missing = append(missing, fe.Field())
		case "oneof":
			invalid = append(invalid, fe.Field()+" must be one of: "+strings.ReplaceAll(fe.Param(), " ", ", "))
		case "gt":
			invalid = append(invalid, fe.Field()+" must be greater than "+fe.Param())
		case "gte":
			invalid = append(invalid, fe.Field()+" must be at least "+fe.Param())
		default:
			invalid = append(invalid, fe.Field()+" is invalid ("+fe.Tag()+")")
		}
	}
	sort.Strings(missing)
	sort.Strings(invalid)

	var msgs []string
	if len(missing) > 0 {
		msgs = append(msgs, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	msgs = append(msgs, invalid...)
	return errors.New(strings.Join(msgs, "; "))
}
