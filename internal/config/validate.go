package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their configuration key.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRanges checks the `validate` struct tags and reports the first
// failing key as an INVALID_ARGUMENT error.
func validateRanges(c *Config) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid(err.Error())
	}
	return invalid(fieldMessage(verrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	key := configKey(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return key + " 不能为空"
	case "gt":
		return fmt.Sprintf("%s 必须大于 %s", key, fe.Param())
	case "url":
		return key + " 必须是合法的 URL"
	case "nefield":
		return fmt.Sprintf("%s 不能与 %s 相同", key, siblingKey(key, fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s 必须是 [%s] 之一", key, fe.Param())
	default:
		return fmt.Sprintf("%s 校验失败（%s）", key, fe.Tag())
	}
}

// configKey turns "Config.fetch.timeout" into "fetch.timeout".
func configKey(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// siblingKey names the field param next to key: ("output.html", "Path")
// gives "output.path".
func siblingKey(key, param string) string {
	name := strings.ToLower(param)
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[:i+1] + name
	}
	return name
}
