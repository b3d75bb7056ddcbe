package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"taskmanagement/internal/core/port"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	ProblemTitle = "One or more validation errors occurred."

	// BodyKey is the error key used when the payload itself is unusable.
	BodyKey            = "*"
	BodyInvalidMessage = "The request body is empty or not in the expected format."
)

var (
	Validator  *validator.Validate
	Translator ut.Translator
)

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())

	Validator.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]

		if name == "-" {
			return ""
		}

		if name == "" {
			return field.Name
		}

		return name
	})

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}

	addCustomTranslations()
}

func addCustomTranslations() {
	Validator.RegisterTranslation("required", Translator, func(ut ut.Translator) error {
		return ut.Add("required", "The {0} field is required.", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("required", fe.Field())
		return t
	})

	Validator.RegisterTranslation("max", Translator, func(ut ut.Translator) error {
		return ut.Add("max", "The field {0} must be a string with a maximum length of {1}.", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("max", fe.Field(), fe.Param())
		return t
	})

	Validator.RegisterTranslation("gt", Translator, func(ut ut.Translator) error {
		return ut.Add("gt", "The field {0} must be greater than {1}.", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("gt", fe.Field(), fe.Param())
		return t
	})
}

// FormatValidationErrors groups translated messages by JSON field name.
// Errors that are not field errors end up under BodyKey.
func FormatValidationErrors(err error) map[string][]string {
	return formatWithPrefix(err, "")
}

// FormatIndexedValidationErrors is used for array payloads, keying each
// message by element position, e.g. "[1].id".
func FormatIndexedValidationErrors(index int, err error) map[string][]string {
	return formatWithPrefix(err, "["+strconv.Itoa(index)+"].")
}

func formatWithPrefix(err error, prefix string) map[string][]string {
	errs := make(map[string][]string)

	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		errs[BodyKey] = append(errs[BodyKey], BodyInvalidMessage)
		return errs
	}

	for _, fieldError := range validationErrors {
		key := prefix + fieldError.Field()
		errs[key] = append(errs[key], fieldError.Translate(Translator))
	}

	return errs
}

// Merge copies every entry of src into dst.
func Merge(dst, src map[string][]string) map[string][]string {
	for key, messages := range src {
		dst[key] = append(dst[key], messages...)
	}

	return dst
}

// StructValidator adapts the package validator to port.Validator.
type StructValidator struct{}

func NewStructValidator() port.Validator {
	return &StructValidator{}
}

func (v *StructValidator) ValidateStruct(s interface{}) error {
	return Validator.Struct(s)
}

func (v *StructValidator) FormatValidationErrors(err error) map[string][]string {
	return FormatValidationErrors(err)
}
