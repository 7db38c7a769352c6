package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Amounts beyond these bounds are refused before anything formats or
// rescales them.
const (
	maxAmountExponent = 18
	minAmountExponent = -18
	maxAmountDigits   = 36
)

// FieldError is one rejected form field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists rejected form fields in declaration order
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return strings.Join(parts, ", ")
}

// First returns the first field message, which is what single-message toasts show.
func (e *ValidationError) First() string {
	if len(e.Fields) == 0 {
		return "Validation failed"
	}
	return e.Fields[0].Message
}

// Messages returns field name to message
func (e *ValidationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}

// Validator checks form structs and renders English messages
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewValidator() (*Validator, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("positive_decimal", isPositiveDecimal); err != nil {
		return nil, err
	}
	if err := validate.RegisterValidation("bounded_decimal", isBoundedDecimal); err != nil {
		return nil, err
	}
	if err := validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	translator := en.New()
	uni := ut.New(translator, translator)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, errors.New("translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	messages := map[string]string{
		"required":         "{0} is required",
		"email":            "Invalid email address",
		"min":              "{0} must be at least {1} characters",
		"oneof":            "{0} must be one of: {1}",
		"positive_decimal": "{0} must be positive",
		"bounded_decimal":  "{0} is out of range",
		"slug":             "{0} must be lowercase letters, numbers, and hyphens only",
	}
	for tag, text := range messages {
		if err := registerMessage(validate, trans, tag, text); err != nil {
			return nil, err
		}
	}

	return &Validator{validate: validate, trans: trans}, nil
}

func registerMessage(validate *validator.Validate, trans ut.Translator, tag, text string) error {
	return validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
		return ut.Add(tag, text, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, err := ut.T(tag, humanize(fe.Field()), fe.Param())
		if err != nil {
			return fe.Error()
		}
		return t
	})
}

// Struct validates form and returns a *ValidationError for rejected fields.
func (v *Validator) Struct(form interface{}) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fe.Translate(v.trans)})
	}
	return out
}

func isPositiveDecimal(fl validator.FieldLevel) bool {
	value, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return value.IsPositive()
}

// isBoundedDecimal rejects decimals whose exponent or digit count would make
// formatting them expensive, such as "1e20000000".
func isBoundedDecimal(fl validator.FieldLevel) bool {
	value, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	exp := value.Exponent()
	if exp > maxAmountExponent || exp < minAmountExponent {
		return false
	}
	return value.NumDigits() <= maxAmountDigits
}

// humanize turns a form field name such as "apiKey" into "API key".
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && i > 0:
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	if len(words) == 0 {
		return field
	}
	if strings.EqualFold(words[0], "api") {
		words[0] = "API"
	} else {
		runes := []rune(words[0])
		runes[0] = unicode.ToUpper(runes[0])
		words[0] = string(runes)
	}
	return strings.Join(words, " ")
}
