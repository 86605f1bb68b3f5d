// Package validation checks operator form input and turns failures into
// per-field messages for re-rendering the form.
package validation

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag = "notblank"
	amountTag   = "amount"

	// MaxAmount is the largest value a DECIMAL(10,2) column holds
	MaxAmount = decimal.RequireFromString("99999999.99")
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report form field names instead of Go struct names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(amountTag, amountValidation)
	registerCustomTranslation(notBlankTag, "this field cannot be blank")
	registerCustomTranslation(amountTag, "enter an amount from 0 to 99999999.99 with at most two decimals")
}

// registerCustomTranslation attaches a fixed message to a custom tag
func registerCustomTranslation(tag, text string) {
	registerFn := func(ut.Translator) error { return nil }
	translateFn := func(ut.Translator, validator.FieldError) string { return text }
	_ = validate.RegisterTranslation(tag, translator, registerFn, translateFn)
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func amountValidation(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	str = strings.TrimSpace(str)
	// Plain digits only, no exponent notation
	if strings.ContainsAny(str, "eE") {
		return false
	}
	d, err := decimal.NewFromString(str)
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Exponent() >= -2 && !d.GreaterThan(MaxAmount)
}

// Errors maps form field names to a message about what is wrong with them
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has an error
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Field returns a single-field error
func Field(field, message string) Errors {
	return Errors{field: message}
}

// Struct validates v's tags. It returns nil or an Errors value.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	errs := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = fe.Translate(translator)
		}
	}
	return errs
}
