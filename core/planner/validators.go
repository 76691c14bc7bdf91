package planner

import (
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/cuaderno/core"
)

var (
	activityTypeTag  = "activitytype"
	activityTypeText = core.Texts{"en": "must be one of: class, general", "es": "debe ser class o general"}

	weekdayTag  = "weekday"
	weekdayText = core.Texts{
		"en": "must be one of: " + strings.Join(Days, ", "),
		"es": "debe ser uno de: " + strings.Join(Days, ", "),
	}

	slotLabelTag    = "slotlabel"
	slotLabelMaxLen = 64
	slotLabelText   = core.Texts{"en": "must be a single line of at most 64 characters", "es": "debe ser una sola línea de 64 caracteres como máximo"}

	dateOrderText = core.Texts{"en": "must not be before the start date", "es": "no puede ser anterior a la fecha de inicio"}
)

// InitValidators registers the planner validation tags and their messages.
func InitValidators(validate *validator.Validate, translators ...ut.Translator) {
	_ = validate.RegisterValidation(activityTypeTag, activityTypeValidation)
	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	_ = validate.RegisterValidation(slotLabelTag, slotLabelValidation)

	for _, translator := range translators {
		core.RegisterCustomTranslation(validate, translator, activityTypeTag, activityTypeText.For(translator.Locale()))
		core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText.For(translator.Locale()))
		core.RegisterCustomTranslation(validate, translator, slotLabelTag, slotLabelText.For(translator.Locale()))
	}
}

// Custom Validators

func activityTypeValidation(fl validator.FieldLevel) bool {
	t := fl.Field().String()
	return t == TypeClass || t == TypeGeneral
}

func weekdayValidation(fl validator.FieldLevel) bool {
	return IsDay(fl.Field().String())
}

func slotLabelValidation(fl validator.FieldLevel) bool {
	label := fl.Field().String()
	if len([]rune(label)) > slotLabelMaxLen {
		return false
	}
	for _, r := range label {
		if r == '\n' || r == '\r' || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// checkDateOrder reports a field error on endField when end is before start.
func checkDateOrder(start, end, endField string) error {
	if start == "" || end == "" {
		return nil
	}
	if end < start { // ISO dates sort lexically
		return core.NewValidationError(nil, core.NewFieldError(endField, dateOrderText))
	}
	return nil
}
