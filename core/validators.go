package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

// DateLayout is the ISO calendar date used across the API and the snapshots.
const DateLayout = "2006-01-02"

var (
	// custom validation tags & texts
	isoDateTag  = "isodate"
	ISODateText = Texts{"en": "must be a date formatted as YYYY-MM-DD", "es": "debe ser una fecha con formato AAAA-MM-DD"}

	hhmmTag   = "hhmm"
	hhmmText  = Texts{"en": "must be a time formatted as HH:MM", "es": "debe ser una hora con formato HH:MM"}
	hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = Texts{"en": "this field is required", "es": "este campo es obligatorio"}
)

// Texts holds a message per locale; "en" is the fallback.
type Texts map[string]string

func (t Texts) For(locale string) string {
	if s, ok := t[locale]; ok {
		return s
	}
	if i := strings.IndexAny(locale, "_-"); i > 0 {
		if s, ok := t[locale[:i]]; ok {
			return s
		}
	}
	return t["en"]
}

// InitValidators instantiates the validator for use.
// Every translator gets the default messages of its locale (when available) plus the custom ones.
func InitValidators(validate *validator.Validate, translators ...ut.Translator) {
	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(isoDateTag, isoDateValidation)
	_ = validate.RegisterValidation(hhmmTag, hhmmValidation)

	for _, translator := range translators {
		switch translator.Locale() {
		case "es":
			_ = es_translations.RegisterDefaultTranslations(validate, translator)
		default:
			_ = en_translations.RegisterDefaultTranslations(validate, translator)
		}
		RegisterCustomTranslation(validate, translator, isoDateTag, ISODateText.For(translator.Locale()))
		RegisterCustomTranslation(validate, translator, hhmmTag, hhmmText.For(translator.Locale()))
		RegisterCustomTranslation(validate, translator, requiredTag, requiredText.For(translator.Locale()), true)
		RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText.For(translator.Locale()), true)
	}
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateValidationErrors turns validator errors into {field: message} using translator.
func TranslateValidationErrors(errs validator.ValidationErrors, translator ut.Translator) map[string]string {
	fldErrs := make(map[string]string, len(errs))
	for _, vErr := range errs {
		if translator != nil {
			fldErrs[vErr.Field()] = vErr.Translate(translator)
		} else {
			fldErrs[vErr.Field()] = vErr.Error()
		}
	}
	return fldErrs
}

// Custom Global Validators

// isoDateValidation accepts an empty string (use `required` to forbid it) or a YYYY-MM-DD date.
func isoDateValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// hhmmValidation accepts an empty string or a 24h HH:MM time.
func hhmmValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || hhmmRegex.MatchString(s)
}
