package finance

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// finite rejects NaN and infinite amounts, which gte lets through.
	if err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		switch field.Kind() {
		case reflect.Float32, reflect.Float64:
			return isFinite(field.Float())
		default:
			return true
		}
	}); err != nil {
		panic(err)
	}
	return v
}

func validateRecords(in Input) error {
	for i := range in.Payments {
		if err := validateRecord("payments", i, &in.Payments[i]); err != nil {
			return err
		}
	}
	for i := range in.Bookings {
		if err := validateRecord("bookings", i, &in.Bookings[i]); err != nil {
			return err
		}
	}
	for i := range in.Subscriptions {
		if err := validateRecord("subscriptions", i, &in.Subscriptions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateRecord(kind string, index int, record any) error {
	err := recordValidator.Struct(record)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s[%d]: %s", ErrInvalidRecord, kind, index, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %s[%d]: %v", ErrInvalidRecord, kind, index, err)
}
