package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	// Lets numeric tags such as gte=0 apply to decimal amounts.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// DecodeJSONBody decodes a JSON body into dest and validates its struct tags. Every
// violated field is reported in one VALIDATION_ERROR.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
			WithDetails([]pkgerrors.FieldError{{Field: "body", Message: decodeMessage(err)}})
	}
	return Struct(dest)
}

// DecodeLenientJSONBody is DecodeJSONBody without the unknown-field check, for
// payloads that carry legacy aliases.
func DecodeLenientJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
			WithDetails([]pkgerrors.FieldError{{Field: "body", Message: decodeMessage(err)}})
	}
	return nil
}

// Struct validates dest's tags.
func Struct(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := make([]pkgerrors.FieldError, 0, len(errs))
		for _, fieldErr := range errs {
			details = append(details, pkgerrors.FieldError{
				Field:   fieldPath(fieldErr),
				Message: validationMessage(fieldErr),
			})
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

// fieldPath drops the root struct name: "req.orderItems[0].quantity" -> "orderItems[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}

func decodeMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "body is empty"
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q has the wrong type", typeErr.Field)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return strings.TrimPrefix(err.Error(), "json: ")
	}
	return "body could not be decoded"
}

// Summary joins the first few validation messages for admin-facing responses.
func Summary(err error, limit int) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return ""
	}
	details, ok := typed.Details().([]pkgerrors.FieldError)
	if !ok || len(details) == 0 {
		return typed.Message()
	}
	if limit <= 0 || limit > len(details) {
		limit = len(details)
	}
	parts := make([]string, 0, limit)
	for _, d := range details[:limit] {
		parts = append(parts, d.Field+" "+d.Message)
	}
	return strings.Join(parts, "; ")
}

const adminSummaryLimit = 3

// ForAdmin rewrites a validation failure so its message lists the first few
// field errors. Other errors are returned unchanged.
func ForAdmin(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, Summary(err, adminSummaryLimit)).WithDetails(typed.Details())
}
