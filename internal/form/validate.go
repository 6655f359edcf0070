package form

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	contactRe = regexp.MustCompile(`^\d{10}$`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var (
	errContact = errors.New("Customer Contact must be a valid 10-digit number")
	errEmail   = errors.New("Please enter a valid email address")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate сначала проверяет заполненность обязательных полей в порядке объявления,
// затем проверки отдельных полей. Возвращает первую ошибку.
func Validate(v Variant, s State) error {
	for _, f := range v.Fields {
		if f.Required && strings.TrimSpace(s.Get(f.Name)) == "" {
			return &ValidationError{Field: f.Name, Message: "Please fill the " + SplitCamel(f.Name)}
		}
	}

	for _, f := range v.Fields {
		if f.Validate == nil {
			continue
		}
		value := s.Get(f.Name)
		if !f.Required && value == "" {
			continue
		}
		if err := f.Validate(value); err != nil {
			return &ValidationError{Field: f.Name, Message: err.Error()}
		}
	}
	return nil
}

func Contact(value string) error {
	if !contactRe.MatchString(value) {
		return errContact
	}
	return nil
}

func Email(value string) error {
	if !emailRe.MatchString(value) {
		return errEmail
	}
	return nil
}

// NonNegative число >= 0. Сообщение называет поле в верхнем регистре: mfSif -> MFSIF.
func NonNegative(name string) func(string) error {
	msg := strings.ToUpper(name) + " must be a valid positive number"
	return func(value string) error {
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
			return errors.New(msg)
		}
		return nil
	}
}

func OneOf(options ...string) func(string) error {
	return func(value string) error {
		for _, o := range options {
			if value == o {
				return nil
			}
		}
		return fmt.Errorf("Please choose one of: %s", strings.Join(options, ", "))
	}
}
