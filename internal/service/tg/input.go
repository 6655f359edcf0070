package tg

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"field_visits/internal/form"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	inputDateTimeLayout = "2006-01-02 15:04"
	formDateTimeLayout  = "2006-01-02T15:04"
	skipWord            = "skip"
)

// acceptText приводит ответ пользователя к значению поля. Вторым значением
// возвращается сообщение об ошибке для пользователя.
func acceptText(field form.Field, text string) (string, string) {
	value := strings.TrimSpace(text)

	if !field.Required && (value == "-" || strings.EqualFold(value, skipWord)) {
		return "", ""
	}
	if value == "" {
		return "", "Please fill the " + form.SplitCamel(field.Name)
	}

	switch field.Kind {
	case form.KindImage:
		return "", "Please send a photo."
	case form.KindDateTime:
		t, err := time.Parse(inputDateTimeLayout, strings.Join(strings.Fields(value), " "))
		if err != nil {
			return "", "Send the date and time as YYYY-MM-DD HH:MM, for example 2024-01-15 10:30"
		}
		value = t.Format(formDateTimeLayout)
	case form.KindChoice:
		opt, ok := matchOption(field.Options, value)
		if !ok {
			return "", "Please choose one of the buttons."
		}
		value = opt
	}

	if field.Name == "customerContact" {
		value = normalizeContact(value)
	}

	if field.Validate != nil {
		if err := field.Validate(value); err != nil {
			return "", err.Error()
		}
	}
	return value, ""
}

// matchOption без учета регистра, возвращает значение в исходном написании.
func matchOption(options []string, text string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o, text) {
			return o, true
		}
	}
	return "", false
}

// contactPrefixes коды, которые можно отбросить перед 10-значным номером.
var contactPrefixes = []string{"+91", "91", "0"}

// normalizeContact отбрасывает код страны или ведущий ноль: "+91 9876543210" -> "9876543210".
// Префикс убирается, только если после него остаются ровно 10 цифр. Иначе значение
// возвращается как есть и его отклонит проверка поля.
func normalizeContact(raw string) string {
	for _, prefix := range contactPrefixes {
		rest, ok := strings.CutPrefix(raw, prefix)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if len(rest) == 10 && extractDigits(rest) == rest {
			return rest
		}
	}
	return raw
}

func extractDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func optionLabel(option string) string {
	runes := []rune(option)
	if len(runes) == 0 {
		return option
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// promptText текст вопроса для шага step из total.
func promptText(field form.Field, step, total int) string {
	var text string
	switch field.Kind {
	case form.KindImage:
		text = "Send a photo: " + field.Label
	case form.KindDateTime:
		text = fmt.Sprintf("Enter %s as YYYY-MM-DD HH:MM", field.Label)
	case form.KindChoice:
		text = "Choose " + field.Label
	default:
		text = "Enter " + field.Label
	}
	if !field.Required {
		text += " or press Skip"
	}
	return fmt.Sprintf("(%d/%d) %s", step+1, total, text)
}

func promptKeyboard(field form.Field) interface{} {
	var buttons []tgbotapi.KeyboardButton
	for _, o := range field.Options {
		buttons = append(buttons, tgbotapi.NewKeyboardButton(optionLabel(o)))
	}
	if !field.Required {
		buttons = append(buttons, tgbotapi.NewKeyboardButton(optionLabel(skipWord)))
	}
	if len(buttons) == 0 {
		return tgbotapi.NewRemoveKeyboard(true)
	}
	kb := tgbotapi.NewReplyKeyboard(buttons)
	kb.OneTimeKeyboard = true
	return kb
}

// summary значения формы перед сохранением.
func summary(v form.Variant, s form.State) string {
	var b strings.Builder
	b.WriteString(v.Title)
	b.WriteString("\n\n")
	for _, f := range v.Fields {
		value := s.Get(f.Name)
		switch {
		case value == "":
			value = "(empty)"
		case f.Kind == form.KindImage:
			value = "attached"
		case f.Kind == form.KindChoice:
			value = optionLabel(value)
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Label, value)
	}
	return b.String()
}

// largestPhoto Telegram присылает несколько размеров одного снимка.
func largestPhoto(photos []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := photos[0]
	for _, p := range photos[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}
