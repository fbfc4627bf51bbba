// Package validation содержит проверку входных данных HTTP-запросов.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// decimal.Decimal проверяется как число: gte, gt, lte работают над его значением.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// Struct проверяет структуру по тегам validate.
func Struct(s any) error {
	return validate.Struct(s)
}

// FormatValidationError превращает ошибку валидации в набор сообщений по полям.
func FormatValidationError(err error) map[string]string {
	res := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res["request"] = err.Error()
		return res
	}

	for _, fe := range verrs {
		field := fieldPath(fe)

		switch fe.Tag() {
		case "required":
			res[field] = fmt.Sprintf("%s is required", field)
		case "email":
			res[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			res[field] = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "max":
			res[field] = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "gt":
			res[field] = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
		case "gte":
			res[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
		case "lte":
			res[field] = fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
		default:
			res[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return res
}

// fieldPath возвращает путь поля без имени корневой структуры, например items[0].unit_price.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return strings.ToLower(fe.Field())
}
