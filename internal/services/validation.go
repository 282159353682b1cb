package services

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/ugel06/registry/types"
)

// validate checks the `validate` tags of types.Institution. Field errors
// are reported under the JSON name of the field.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var requiredMessages = map[string]string{
	"name":          "institution name is required",
	"director_name": "director name is required",
	"national_id":   "director national id is required",
	"appointment":   "appointment status is required",
	"classroom":     "classroom status is required",
	"phone":         "phone is required",
	"email":         "email is required",
}

var formatMessages = map[string]string{
	"national_id": "national id must have 8 digits",
	"phone":       "phone must have 9 digits",
	"email":       "email is not valid",
	"appointment": fmt.Sprintf("appointment must be %q or %q", types.AppointmentInCharge, types.AppointmentDesignated),
	"classroom":   fmt.Sprintf("classroom must be %q or %q", types.ClassroomAssigned, types.ClassroomUnassigned),
}

// ValidationError lists the fields of an institution that are missing or
// malformed, keyed by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid institution: " + strings.Join(parts, "; ")
}

// normalizeInstitution trims text fields and drops whitespace inside the
// digit-only fields.
func normalizeInstitution(in types.Institution) types.Institution {
	in.Name = strings.TrimSpace(in.Name)
	in.DirectorName = strings.TrimSpace(in.DirectorName)
	in.NationalID = stripSpaces(in.NationalID)
	in.Appointment = types.AppointmentStatus(strings.TrimSpace(string(in.Appointment)))
	in.Classroom = types.ClassroomStatus(strings.TrimSpace(string(in.Classroom)))
	in.Phone = stripSpaces(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

func validateInstitution(in types.Institution) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	messages := formatMessages
	if fe.Tag() == "required" {
		messages = requiredMessages
	}
	if msg, ok := messages[fe.Field()]; ok {
		return msg
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}

func stripSpaces(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
}
