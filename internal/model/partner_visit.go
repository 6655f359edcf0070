package model

import (
	"time"

	"gorm.io/gorm"
)

// PartnerVisit запись визита формы Partner. Хранится отдельно от Customer.
type PartnerVisit struct {
	gorm.Model
	EmployeeName         string     `json:"employeeName" gorm:"type:varchar(255);index"`
	CustomerName         string     `json:"customerName" gorm:"type:varchar(255)"`
	CustomerContact      string     `json:"customerContact" gorm:"type:varchar(32)"`
	CustomerEmail        string     `json:"customerEmail" gorm:"type:varchar(255)"`
	CityVillage          string     `json:"cityVillage" gorm:"type:varchar(255)"`
	Tehsil               string     `json:"tehsil" gorm:"type:varchar(255)"`
	District             string     `json:"district" gorm:"type:varchar(255)"`
	State                string     `json:"state" gorm:"type:varchar(255)"`
	VisitingDateTime     *time.Time `json:"visitingDateTime" gorm:"index"`
	Insurance            string     `json:"insurance" gorm:"type:varchar(64)"`
	MFSIF                string     `json:"mfSif" gorm:"column:mf_sif;type:varchar(64)"`
	StatusOfConversation string     `json:"statusOfConversation" gorm:"type:varchar(8)"`
	CustomerImage        string     `json:"customerImage" gorm:"type:text"`
	Latitude             *float64   `json:"latitude"`
	Longitude            *float64   `json:"longitude"`
}

func (PartnerVisit) TableName() string {
	return "partner_visits"
}
