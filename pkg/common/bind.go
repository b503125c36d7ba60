package common

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/codec"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	bindCodec    = codec.NewJSONCodec()
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON name so messages match the wire format.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Bind decodes the request body into dst and validates it using the
// `validate` struct tags. JSON and form bodies are supported; an empty body
// binds as an empty object.
//
// Failures are returned as *HTTPError values: 415 for unsupported content
// types, 400 for undecodable bodies and validation failures.
func (r *Request) Bind(dst any) error {
	var data []byte
	switch r.BodyKind {
	case codec.KindJSON:
		data = r.RawBody
		if len(strings.TrimSpace(string(data))) == 0 {
			data = []byte("{}")
		}
	case codec.KindForm:
		var err error
		if data, err = bindCodec.Marshal(r.Body); err != nil {
			return NewHTTPError(http.StatusBadRequest, "Invalid request body")
		}
	default:
		return NewHTTPError(http.StatusUnsupportedMediaType, http.StatusText(http.StatusUnsupportedMediaType))
	}

	if err := bindCodec.DecodeInto(data, dst); err != nil {
		return NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return Validate(dst)
}

// Validate checks v against its `validate` struct tags. Values that are not
// structs or pointers to structs are accepted as is.
func Validate(v any) error {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return NewHTTPError(http.StatusBadRequest, validationMessage(fe.Field(), fe.Tag(), fe.Param()))
	}
	return NewHTTPError(http.StatusBadRequest, err.Error())
}

func validationMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
