package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fhuszti/uploads-ms-go/internal/usecase/upload"
	"github.com/fhuszti/uploads-ms-go/internal/uuid"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Tell the validator to use the JSON tag as the “field name”
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// UUIDs are validated through their textual form
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if id, ok := v.Interface().(uuid.UUID); ok {
			return id.String()
		}
		return nil
	}, uuid.UUID{})

	_ = validate.RegisterValidation("mimetype", func(fl validator.FieldLevel) bool {
		return upload.IsMimeTypeAllowed(fl.Field().String())
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ErrorsToMap flattens validation errors into a {field: failed tag} map.
func ErrorsToMap(validationErrs error) map[string]string {
	errsMap := make(map[string]string)
	var fieldErrs validator.ValidationErrors
	if !errors.As(validationErrs, &fieldErrs) {
		errsMap["_"] = validationErrs.Error()
		return errsMap
	}
	for _, fieldErr := range fieldErrs {
		errsMap[fieldErr.Field()] = fieldErr.Tag()
	}
	return errsMap
}

func ErrorsToJson(validationErrs error) (string, error) {
	errsJson, err := json.Marshal(ErrorsToMap(validationErrs))
	if err != nil {
		return "", err
	}
	return string(errsJson), nil
}
