package sheet

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"field_visits/internal/model"
	"field_visits/internal/service/export"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type SheetService struct {
	SpreadsheetID string
	SheetID       string
	SheetName     string
	PauseMs       int // пауза между запросами в миллисекундах
	srv           *sheets.Service
	limiterMu     sync.Mutex
	lastCall      time.Time
	colMap        ColumnMap
	loc           *time.Location
}

type ColumnMap map[string]int // например: "N": 0, "Name": 1, ...

// Порядок колонок по умолчанию совпадает с выгрузкой Customers.
func NewDefaultColumnMap() ColumnMap {
	return CreateColumnMapFromOrder("N,Name,ARN,SIP,Health,Motor,MF,Life,VisitingDateTime,CustomerImage,Latitude,Longitude")
}

// Создает ColumnMap из строки порядка (например: "N,Name,ARN,VisitingDateTime")
func CreateColumnMapFromOrder(order string) ColumnMap {
	if strings.TrimSpace(order) == "" {
		return NewDefaultColumnMap()
	}
	fields := strings.Split(order, ",")
	m := make(ColumnMap)
	for idx, field := range fields {
		m[strings.TrimSpace(field)] = idx
	}
	return m
}

func NewSheetService(ctx context.Context, base64Creds, spreadsheetID, sheetID string, pauseMs int, colMap ColumnMap, loc *time.Location) (*SheetService, error) {
	credBytes, err := base64.StdEncoding.DecodeString(base64Creds)
	if err != nil {
		return nil, fmt.Errorf("не удается декодировать credentials из base64: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, credBytes, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("не удается создать credentials из JSON: %w", err)
	}
	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("не удается инициализировать сервис Google Sheets: %w", err)
	}

	s := &SheetService{
		SpreadsheetID: spreadsheetID,
		SheetID:       sheetID,
		PauseMs:       pauseMs,
		srv:           srv,
		lastCall:      time.Now(),
		colMap:        colMap,
		loc:           loc,
	}

	if err := s.fetchSheetName(ctx); err != nil {
		return nil, fmt.Errorf("не удается получить имя листа: %w", err)
	}

	return s, nil
}

func (s *SheetService) fetchSheetName(ctx context.Context) error {
	s.Wait()

	resp, err := s.srv.Spreadsheets.Get(s.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ошибка получения информации о таблице: %w", err)
	}

	for _, sheet := range resp.Sheets {
		if fmt.Sprint(sheet.Properties.SheetId) == s.SheetID {
			s.SheetName = sheet.Properties.Title
			return nil
		}
	}

	return fmt.Errorf("лист с ID %s не найден", s.SheetID)
}

// Лимитер: вызывает паузу между запросами
func (s *SheetService) Wait() {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	elapsed := time.Since(s.lastCall)
	pause := time.Duration(s.PauseMs) * time.Millisecond
	if elapsed < pause {
		time.Sleep(pause - elapsed)
	}
	s.lastCall = time.Now()
}

// AppendCustomer дописывает визит после последней заполненной строки листа.
func (s *SheetService) AppendCustomer(ctx context.Context, customer model.Customer) error {
	s.Wait()

	vr := &sheets.ValueRange{
		Values: [][]interface{}{Row(s.colMap, customer, s.loc)},
	}

	rangeStr := fmt.Sprintf("%s!A1", s.SheetName)
	_, err := s.srv.Spreadsheets.Values.Append(s.SpreadsheetID, rangeStr, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("ошибка вставки в таблицу: %w", err)
	}
	return nil
}

// Row раскладывает визит по колонкам. Неизвестные имена колонок остаются пустыми.
func Row(colMap ColumnMap, c model.Customer, loc *time.Location) []interface{} {
	width := 0
	for _, idx := range colMap {
		if idx+1 > width {
			width = idx + 1
		}
	}

	values := make([]interface{}, width)
	for i := range values {
		values[i] = ""
	}
	for field, idx := range colMap {
		switch field {
		case "N":
			values[idx] = c.ID
		case "Name":
			values[idx] = c.Name
		case "ARN":
			values[idx] = c.ARN
		case "SIP":
			values[idx] = c.SIP
		case "Health":
			values[idx] = c.Health
		case "Motor":
			values[idx] = c.Motor
		case "MF":
			values[idx] = c.MF
		case "Life":
			values[idx] = c.Life
		case "VisitingDateTime":
			if c.VisitingDateTime != nil {
				values[idx] = c.VisitingDateTime.In(loc).Format(export.LocaleTimeLayout)
			}
		case "CustomerImage":
			values[idx] = c.CustomerImage
		case "Latitude":
			if c.Latitude != nil {
				values[idx] = *c.Latitude
			}
		case "Longitude":
			if c.Longitude != nil {
				values[idx] = *c.Longitude
			}
		}
	}
	return values
}
