// Package validate holds the process-wide go-playground validator with english messages
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	perr "apiloader/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldError aliases validator.FieldError
type FieldError = validator.FieldError

// Svc holds the singleton validator and translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Svc
)

// Init builds the singleton. Field names in messages come from the env, yaml or json tag, in that order
func Init() *Svc {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(tagName)

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerShort(v, trans, "min", "{0} must be at least {1}")
		registerShort(v, trans, "max", "{0} must be at most {1}")
		registerShort(v, trans, "gte", "{0} must be at least {1}")
		registerShort(v, trans, "lte", "{0} must be at most {1}")
		registerShort(v, trans, "oneof", "{0} must be one of [{1}]")

		svc = &Svc{Validator: v, Translator: trans}
	})
	return svc
}

// Get returns the singleton, initializing on first use
func Get() *Svc { return Init() }

func tagName(fld reflect.StructField) string {
	for _, key := range []string{"env", "yaml", "json"} {
		tag := fld.Tag.Get(key)
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag != "" && tag != "-" {
			return tag
		}
	}
	return fld.Name
}

// Struct validates v and returns a perr validation error naming every failed field
func Struct(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return perr.Wrap(inv, perr.ErrorCodeInvalidArgument, "validator misuse")
	}
	msgs := Messages(err)
	out := perr.Newf(perr.ErrorCodeValidation, "%s", strings.Join(msgs, "; "))
	if field, _ := FieldAndMessage(err); field != "" {
		out = perr.WithField(out, field)
	}
	return out
}

// Var checks a single value against tag and reports the translated message on failure.
// field is substituted into the message since a bare value has no name
func Var(field string, value any, tag string) (string, bool) {
	s := Get()
	err := s.Validator.Var(value, tag)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return field + ": " + err.Error(), false
	}
	fe := verrs[0]
	if msg, terr := s.Translator.T(fe.Tag(), field, fe.Param()); terr == nil && msg != "" {
		return msg, false
	}
	return field + ": " + strings.TrimSpace(fe.Translate(s.Translator)), false
}

// FieldAndMessage returns the first failed field and its translated message
func FieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			return fe.Field(), fe.Translate(Get().Translator)
		}
	}
	return "", err.Error()
}

// Messages returns every translated message in err
func Messages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Translate(Get().Translator))
	}
	return out
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
