package validator

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalidPhone is returned by ValidatePhone.
var ErrInvalidPhone = errors.New("phone number must be in international format, e.g. +15551234567")

// CustomValidator wraps the validator instance for Echo.
type CustomValidator struct {
	validator  *validator.Validate
	translator ut.Translator
}

func New() *CustomValidator {
	validate := validator.New()

	// Name fields after their json tag, or their form tag for form-only structs.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(key), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")

	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic("failed to register validator default translations: " + err.Error())
	}

	err := validate.RegisterTranslation("e164", trans,
		func(ut ut.Translator) error {
			return ut.Add("e164", "{0} must be in international format, e.g. +15551234567", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("e164", fe.Field())
			return t
		},
	)
	if err != nil {
		panic("failed to register e164 translation: " + err.Error())
	}

	return &CustomValidator{
		validator:  validate,
		translator: trans,
	}
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return &ValidationError{
				Errors: cv.translateErrors(validationErrors),
			}
		}
		return err
	}
	return nil
}

func (cv *CustomValidator) translateErrors(errs validator.ValidationErrors) map[string]string {
	errors := make(map[string]string)
	for _, err := range errs {
		errors[err.Field()] = err.Translate(cv.translator)
	}
	return errors
}

var phoneValidator = validator.New()

// ValidatePhone checks that phone is in E.164 form (+5511999999999).
func ValidatePhone(phone string) error {
	if err := phoneValidator.Var(phone, "required,e164"); err != nil {
		return ErrInvalidPhone
	}
	return nil
}

type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error lists the field messages in field order.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, e.Errors[field])
	}
	return strings.Join(messages, "; ")
}
