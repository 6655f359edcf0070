package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer запись визита формы RealFincorp.
type Customer struct {
	gorm.Model
	Name             string     `json:"name" gorm:"type:varchar(255);index"`
	ARN              string     `json:"arn" gorm:"column:arn;type:varchar(255)"`
	SIP              string     `json:"sip" gorm:"column:sip;type:varchar(255)"`
	Health           string     `json:"health" gorm:"type:varchar(255)"`
	Motor            string     `json:"motor" gorm:"type:varchar(255)"`
	MF               string     `json:"mf" gorm:"column:mf;type:varchar(255)"`
	Life             string     `json:"life" gorm:"type:varchar(255)"`
	VisitingDateTime *time.Time `json:"visitingDateTime" gorm:"index"`
	CustomerImage    string     `json:"customerImage" gorm:"type:text"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	SheetIsSynced    bool       `json:"-" gorm:"default:false"`

	// DocumentID идентификатор документа в MongoDB, в postgres не используется
	DocumentID string `json:"-" gorm:"-"`
}

func (Customer) TableName() string {
	return "customers"
}
