package export

import (
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"field_visits/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// LocaleTimeLayout повторяет toLocaleString() браузера в en-US.
	LocaleTimeLayout = "1/2/2006, 3:04:05 PM"

	widthPadding = 2
	defaultSheet = "Sheet1"
)

// Column описывает колонку выгрузки: заголовок и значение ячейки для строки.
// Value возвращает string, float64 или nil (пустая ячейка).
type Column[T any] struct {
	Header string
	Value  func(T) any
}

type Sheet[T any] struct {
	Name     string
	FileName string
	Columns  []Column[T]
}

// Build собирает книгу с одним листом: строка заголовков, строки данных, ширины колонок.
func (s Sheet[T]) Build(rows []T) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
		f.Close()
		return nil, err
	}

	widths := make([]int, len(s.Columns))
	for i, col := range s.Columns {
		widths[i] = utf8.RuneCountInString(col.Header)
	}

	header := make([]interface{}, len(s.Columns))
	for i, col := range s.Columns {
		header[i] = col.Header
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for r, row := range rows {
		values := make([]interface{}, len(s.Columns))
		for i, col := range s.Columns {
			v := col.Value(row)
			values[i] = v
			if n := utf8.RuneCountInString(CellText(v)); n > widths[i] {
				widths[i] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(s.Name, name, name, columnWidth(w)); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

// columnWidth длина самой длинной ячейки плюс отступ, не шире предела Excel.
func columnWidth(longest int) float64 {
	return min(float64(longest+widthPadding), excelize.MaxColumnWidth)
}

// Write сериализует книгу в w.
func (s Sheet[T]) Write(w io.Writer, rows []T) error {
	f, err := s.Build(rows)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// CellText строковое представление ячейки, по нему считается ширина колонки.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// CustomerSheet колонки выгрузки RealFincorp. Время визита форматируется в loc.
func CustomerSheet(loc *time.Location) Sheet[model.Customer] {
	return Sheet[model.Customer]{
		Name:     "Customers",
		FileName: "customers_data.xlsx",
		Columns: []Column[model.Customer]{
			{"Name", func(c model.Customer) any { return c.Name }},
			{"ARN", func(c model.Customer) any { return c.ARN }},
			{"SIP", func(c model.Customer) any { return c.SIP }},
			{"Health", func(c model.Customer) any { return c.Health }},
			{"Motor", func(c model.Customer) any { return c.Motor }},
			{"Mutual Fund", func(c model.Customer) any { return c.MF }},
			{"Life", func(c model.Customer) any { return c.Life }},
			{"Visiting Date & Time", func(c model.Customer) any { return localeTime(c.VisitingDateTime, loc) }},
			{"Customer Image", func(c model.Customer) any { return c.CustomerImage }},
			{"Latitude", func(c model.Customer) any { return number(c.Latitude) }},
			{"Longitude", func(c model.Customer) any { return number(c.Longitude) }},
		},
	}
}

// PartnerVisitSheet колонки выгрузки Partner.
func PartnerVisitSheet(loc *time.Location) Sheet[model.PartnerVisit] {
	return Sheet[model.PartnerVisit]{
		Name:     "Partner Visits",
		FileName: "partner_visits_data.xlsx",
		Columns: []Column[model.PartnerVisit]{
			{"Employee Name", func(v model.PartnerVisit) any { return v.EmployeeName }},
			{"Customer Name", func(v model.PartnerVisit) any { return v.CustomerName }},
			{"Customer Contact", func(v model.PartnerVisit) any { return v.CustomerContact }},
			{"Customer Email", func(v model.PartnerVisit) any { return v.CustomerEmail }},
			{"City/Village", func(v model.PartnerVisit) any { return v.CityVillage }},
			{"Tehsil", func(v model.PartnerVisit) any { return v.Tehsil }},
			{"District", func(v model.PartnerVisit) any { return v.District }},
			{"State", func(v model.PartnerVisit) any { return v.State }},
			{"Visiting Date & Time", func(v model.PartnerVisit) any { return localeTime(v.VisitingDateTime, loc) }},
			{"Insurance", func(v model.PartnerVisit) any { return v.Insurance }},
			{"MF / SIF", func(v model.PartnerVisit) any { return v.MFSIF }},
			{"Status of Conversation", func(v model.PartnerVisit) any { return v.StatusOfConversation }},
			{"Customer Image", func(v model.PartnerVisit) any { return v.CustomerImage }},
			{"Latitude", func(v model.PartnerVisit) any { return number(v.Latitude) }},
			{"Longitude", func(v model.PartnerVisit) any { return number(v.Longitude) }},
		},
	}
}

func localeTime(t *time.Time, loc *time.Location) any {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format(LocaleTimeLayout)
}

func number(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
