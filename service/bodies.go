package service

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"

	"github.com/letterbox/mailbox-data-api/types"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strcase.ToSnake(field.Name)
	})

	uni := ut.New(en.New(), en.New())
	trans, _ = uni.GetTranslator("en")

	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	_ = validate.RegisterTranslation("required", trans, func(ut ut.Translator) error {
		return ut.Add("required", "{0} is a required field", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("required", fe.Field())
		return t
	})

	_ = validate.RegisterTranslation("min", trans, func(ut ut.Translator) error {
		return ut.Add("min", "{0} must not be empty", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("min", fe.Field())
		return t
	})
}

type createBody struct {
	Payload map[string]interface{} `mapstructure:"payload" validate:"required"`
}

type updateBody struct {
	Payload   map[string]interface{} `mapstructure:"payload" validate:"required,min=1"`
	FilterSet map[string]interface{} `mapstructure:"filter_set"`
}

type deleteBody struct {
	FilterSet map[string]interface{} `mapstructure:"filter_set"`
}

// decodeBody decodes a raw JSON object into one of the body shapes and validates it
func decodeBody(body map[string]interface{}, target interface{}) error {
	if err := mapstructure.Decode(body, target); err != nil {
		return types.NewMalformedBodyError(decodeMessage(err))
	}
	if err := validate.Struct(target); err != nil {
		return types.NewMalformedBodyError(translateValidatorError(err))
	}
	return nil
}

// translateValidatorError turns validation errors into a readable sentence
func translateValidatorError(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	translated := errs.Translate(trans)
	messages := make([]string, 0, len(translated))
	for _, message := range translated {
		messages = append(messages, message)
	}
	sort.Strings(messages)
	return strings.Join(messages, " ")
}

func decodeMessage(err error) string {
	if merr, ok := err.(*mapstructure.Error); ok {
		messages := append([]string(nil), merr.Errors...)
		sort.Strings(messages)
		return strings.Join(messages, ", ")
	}
	return err.Error()
}
