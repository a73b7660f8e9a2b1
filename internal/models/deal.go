package models

import (
	"encoding/json"
	"time"
)

type DealStatus string

const (
	DealStatusPending  DealStatus = "pending"
	DealStatusApproved DealStatus = "approved"
	DealStatusRejected DealStatus = "rejected"
)

// Valid reports whether s is one of the known statuses
func (s DealStatus) Valid() bool {
	switch s {
	case DealStatusPending, DealStatusApproved, DealStatusRejected:
		return true
	}
	return false
}

// Email is a raw deal email handed to the pipeline.
type Email struct {
	ID         string    `json:"id" binding:"required"`
	Subject    string    `json:"subject"`
	Sender     string    `json:"sender"`
	Body       string    `json:"body" binding:"required"`
	ReceivedAt time.Time `json:"received_at"`
}

// Deal is a classified and appraised email awaiting review.
type Deal struct {
	ID             string          `gorm:"primaryKey;type:text" json:"id"`
	EmailID        string          `gorm:"uniqueIndex;not null" json:"email_id"`
	Subject        string          `json:"subject"`
	Sender         string          `json:"sender"`
	ReceivedAt     time.Time       `json:"received_at"`
	DealType       string          `gorm:"index" json:"deal_type"`
	Confidence     int             `json:"confidence"`
	Status         DealStatus      `gorm:"index;not null;default:pending" json:"status"`
	Classification *Classification `gorm:"serializer:json" json:"classification"`
	Appraisal      json.RawMessage `gorm:"type:text" json:"appraisal"`
	GDV            *float64        `json:"gdv"`
	NetProfit      *float64        `json:"net_profit"`
	Latitude       *float64        `json:"latitude"`
	Longitude      *float64        `json:"longitude"`
	ReportPath     string          `json:"report_path"`
	Notes          string          `json:"notes"`
	ApprovedBy     string          `json:"approved_by"`
	ApprovedAt     *time.Time      `json:"approved_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type DealStats struct {
	TotalDeals        int64   `json:"total_deals"`
	PendingDeals      int64   `json:"pending_deals"`
	ApprovedDeals     int64   `json:"approved_deals"`
	RejectedDeals     int64   `json:"rejected_deals"`
	TotalGDV          float64 `json:"total_gdv"`
	AverageNetProfit  float64 `json:"average_net_profit"`
	AverageConfidence float64 `json:"average_confidence"`
}
