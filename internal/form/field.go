package form

import (
	"fmt"
	"strings"
	"unicode"
)

type Kind int

const (
	KindText Kind = iota
	KindDateTime
	KindChoice
	KindImage
)

// Имя поля со ссылкой на снимок, заполняется только через CaptureImage.
const ImageField = "customerImage"

const (
	VariantPartner     = "partner"
	VariantRealFincorp = "realfincorp"
)

// Field описывает одно поле формы.
type Field struct {
	Name     string
	Label    string
	Required bool
	Kind     Kind
	Options  []string

	// Проверка после прохода по обязательным полям. Текст ошибки показывается пользователю.
	Validate func(value string) error
}

// Variant набор полей и путь создания записи на сервере.
type Variant struct {
	Name   string
	Title  string
	Path   string
	Fields []Field
}

func (v Variant) Field(name string) (Field, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Partner вариант A.
func Partner() Variant {
	return Variant{
		Name:  VariantPartner,
		Title: "Customer Data Form",
		Path:  "/api/partner-visits",
		Fields: []Field{
			{Name: "employeeName", Label: "Employee Name", Required: true},
			{Name: "customerName", Label: "Customer Name", Required: true},
			{Name: "customerContact", Label: "Customer Contact Number", Required: true, Validate: Contact},
			{Name: "customerEmail", Label: "Customer Email ID", Required: true, Validate: Email},
			{Name: "cityVillage", Label: "City/Village", Required: true},
			{Name: "tehsil", Label: "Tehsil (Optional)"},
			{Name: "district", Label: "District", Required: true},
			{Name: "state", Label: "State", Required: true},
			{Name: "visitingDateTime", Label: "Visiting Date & Time", Required: true, Kind: KindDateTime},
			{Name: "insurance", Label: "Insurance / day", Required: true, Validate: NonNegative("insurance")},
			{Name: "mfSif", Label: "MF / SIF", Required: true, Validate: NonNegative("mfSif")},
			{
				Name: "statusOfConversation", Label: "Status of Conversation", Required: true,
				Kind: KindChoice, Options: []string{"yes", "No"}, Validate: OneOf("yes", "No"),
			},
			{Name: ImageField, Label: "Capture Image", Required: true, Kind: KindImage},
		},
	}
}

// RealFincorp вариант B, его схему хранит /api/customers.
func RealFincorp() Variant {
	return Variant{
		Name:  VariantRealFincorp,
		Title: "Customer Visit Form",
		Path:  "/api/customers",
		Fields: []Field{
			{Name: "name", Label: "Name", Required: true},
			{Name: "arn", Label: "ARN", Required: true},
			{Name: "sip", Label: "SIP", Required: true},
			{Name: "health", Label: "Health", Required: true},
			{Name: "motor", Label: "Motor", Required: true},
			{Name: "mf", Label: "Mutual Fund", Required: true},
			{Name: "life", Label: "Life", Required: true},
			{Name: "visitingDateTime", Label: "Visiting Date & Time", Required: true, Kind: KindDateTime},
			{Name: ImageField, Label: "Capture Image", Required: true, Kind: KindImage},
		},
	}
}

func VariantByName(name string) (Variant, error) {
	switch strings.ToLower(name) {
	case VariantPartner:
		return Partner(), nil
	case VariantRealFincorp:
		return RealFincorp(), nil
	default:
		return Variant{}, fmt.Errorf("unknown form variant %q", name)
	}
}

// SplitCamel вставляет пробел перед каждой заглавной буквой: employeeName -> "employee Name".
func SplitCamel(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
