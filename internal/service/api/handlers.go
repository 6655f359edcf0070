package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"field_visits/internal/model"
	"field_visits/internal/service/export"
	"field_visits/internal/service/visits"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgCustomerSaved = "Customer saved successfully"
	msgPartnerSaved  = "Partner visit saved successfully"
	msgServerError   = "Server error"
	msgExcelError    = "Error generating Excel"
	msgNoData        = "No data found for given filters"
	msgBadBody       = "Invalid request body"
	msgBadVisitTime  = "Invalid visitingDateTime"
	msgBadFilter     = "Invalid date filter"

	healthTimeout = 2 * time.Second
)

type customerRequest struct {
	Name             textValue   `json:"name"`
	ARN              textValue   `json:"arn"`
	SIP              textValue   `json:"sip"`
	Health           textValue   `json:"health"`
	Motor            textValue   `json:"motor"`
	MF               textValue   `json:"mf"`
	Life             textValue   `json:"life"`
	VisitingDateTime textValue   `json:"visitingDateTime"`
	CustomerImage    textValue   `json:"customerImage"`
	Latitude         numberValue `json:"latitude"`
	Longitude        numberValue `json:"longitude"`
}

type partnerVisitRequest struct {
	EmployeeName         textValue   `json:"employeeName"`
	CustomerName         textValue   `json:"customerName"`
	CustomerContact      textValue   `json:"customerContact"`
	CustomerEmail        textValue   `json:"customerEmail"`
	CityVillage          textValue   `json:"cityVillage"`
	Tehsil               textValue   `json:"tehsil"`
	District             textValue   `json:"district"`
	State                textValue   `json:"state"`
	VisitingDateTime     textValue   `json:"visitingDateTime"`
	Insurance            textValue   `json:"insurance"`
	MFSIF                textValue   `json:"mfSif"`
	StatusOfConversation textValue   `json:"statusOfConversation"`
	CustomerImage        textValue   `json:"customerImage"`
	Latitude             numberValue `json:"latitude"`
	Longitude            numberValue `json:"longitude"`
}

// CreateCustomer сохраняет визит RealFincorp. Данные не валидируются, кроме даты визита;
// числа и строки приводятся к типам полей так же, как это делает схема хранилища.
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadBody})
		return
	}

	at, err := h.visits.ParseVisitTime(string(req.VisitingDateTime))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadVisitTime})
		return
	}

	customer := model.Customer{
		Name:             string(req.Name),
		ARN:              string(req.ARN),
		SIP:              string(req.SIP),
		Health:           string(req.Health),
		Motor:            string(req.Motor),
		MF:               string(req.MF),
		Life:             string(req.Life),
		VisitingDateTime: at,
		CustomerImage:    string(req.CustomerImage),
		Latitude:         req.Latitude.Value,
		Longitude:        req.Longitude.Value,
	}
	if err := h.visits.CreateCustomer(c.Request.Context(), &customer); err != nil {
		h.logger.Error("save error", zap.Error(err), zap.String("request_id", c.GetString(requestIDHeader)))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgServerError})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msgCustomerSaved})
}

func (h *Handler) CreatePartnerVisit(c *gin.Context) {
	var req partnerVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadBody})
		return
	}

	at, err := h.visits.ParseVisitTime(string(req.VisitingDateTime))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadVisitTime})
		return
	}

	visit := model.PartnerVisit{
		EmployeeName:         string(req.EmployeeName),
		CustomerName:         string(req.CustomerName),
		CustomerContact:      string(req.CustomerContact),
		CustomerEmail:        string(req.CustomerEmail),
		CityVillage:          string(req.CityVillage),
		Tehsil:               string(req.Tehsil),
		District:             string(req.District),
		State:                string(req.State),
		VisitingDateTime:     at,
		Insurance:            string(req.Insurance),
		MFSIF:                string(req.MFSIF),
		StatusOfConversation: string(req.StatusOfConversation),
		CustomerImage:        string(req.CustomerImage),
		Latitude:             req.Latitude.Value,
		Longitude:            req.Longitude.Value,
	}
	if err := h.visits.CreatePartnerVisit(c.Request.Context(), &visit); err != nil {
		h.logger.Error("save error", zap.Error(err), zap.String("request_id", c.GetString(requestIDHeader)))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgServerError})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msgPartnerSaved})
}

func (h *Handler) ExportCustomers(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	customers, err := h.visits.FindCustomers(c.Request.Context(), filter)
	if !h.checkFind(c, err) {
		return
	}
	writeWorkbook(c, h.logger, h.visits.CustomerSheet(), customers)
}

func (h *Handler) ExportPartnerVisits(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	partnerVisits, err := h.visits.FindPartnerVisits(c.Request.Context(), filter)
	if !h.checkFind(c, err) {
		return
	}
	writeWorkbook(c, h.logger, h.visits.PartnerVisitSheet(), partnerVisits)
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		h.logger.Warn("store ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) bindFilter(c *gin.Context) (model.VisitFilter, bool) {
	filter, err := h.visits.ParseFilter(c.Query("startDate"), c.Query("endDate"), c.Query("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgBadFilter})
		return filter, false
	}
	return filter, true
}

func (h *Handler) checkFind(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, visits.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"message": msgNoData})
	default:
		h.logger.Error("excel error", zap.Error(err), zap.String("request_id", c.GetString(requestIDHeader)))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgExcelError})
	}
	return false
}

// writeWorkbook собирает книгу в буфер до отправки заголовков.
func writeWorkbook[T any](c *gin.Context, logger *zap.Logger, sheet export.Sheet[T], rows []T) {
	var buf bytes.Buffer
	if err := sheet.Write(&buf, rows); err != nil {
		logger.Error("excel error", zap.Error(err), zap.String("request_id", c.GetString(requestIDHeader)))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgExcelError})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+sheet.FileName)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
