package repository

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrNotFound = errors.New("record not found")

// ValidationError lists the fields a record was refused for, keyed by column.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid record: " + strings.Join(parts, ", ")
}

var validate = validator.New()

// check runs the struct's validate tags. Column names in the error come from
// the field names (CompanyName -> company_name).
func check(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	fields := map[string]string{}
	for _, fe := range ve {
		field := snake(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[field] = "is required"
		case "gte":
			fields[field] = "must be >= " + fe.Param()
		default:
			fields[field] = "is invalid"
		}
	}
	return &ValidationError{Fields: fields}
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
