// Package validator checks struct tags with go-playground/validator and
// renders failures as English field messages.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator wraps a validate engine with its English translator.
type Validator struct {
	v     *govalidator.Validate
	trans ut.Translator
}

// New returns a validator that names fields by their json tag.
func New() *Validator {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	return &Validator{v: v, trans: trans}
}

// Struct validates s and returns nil or a map of field name to message.
func (val *Validator) Struct(s any) map[string]string {
	if err := val.v.Struct(s); err != nil {
		return val.TranslateErrors(err)
	}
	return nil
}

// TranslateErrors turns a validation error into field → message. Any other
// error is returned under "detail".
func (val *Validator) TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(val.trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}
