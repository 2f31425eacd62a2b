package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pimsync/backend/internal/domain/integration"
)

// ConnectionModel is the persistence model for the Connection domain entity.
type ConnectionModel struct {
	ID             uuid.UUID                `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID                `gorm:"type:uuid;not null;index:idx_connection_tenant;index:idx_connection_tenant_platform,priority:1"`
	PlatformCode   integration.PlatformCode `gorm:"type:varchar(20);not null;index:idx_connection_tenant_platform,priority:2"`
	BaseURL        string                   `gorm:"type:varchar(512);not null"`
	ConsumerKey    string                   `gorm:"type:varchar(255);not null"`
	ConsumerSecret string                   `gorm:"type:varchar(255);not null"`
	IsActive       bool                     `gorm:"not null;default:true"`
	IsDefault      bool                     `gorm:"not null;default:false"`
	LastSyncedAt   *time.Time               `gorm:"index"`
	CreatedAt      time.Time                `gorm:"not null"`
	UpdatedAt      time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConnectionModel) TableName() string {
	return "platform_connections"
}

// ToDomain converts the persistence model to a domain Connection entity.
func (m *ConnectionModel) ToDomain() *integration.Connection {
	return &integration.Connection{
		ID:             m.ID,
		TenantID:       m.TenantID,
		PlatformCode:   m.PlatformCode,
		BaseURL:        m.BaseURL,
		ConsumerKey:    m.ConsumerKey,
		ConsumerSecret: m.ConsumerSecret,
		IsActive:       m.IsActive,
		IsDefault:      m.IsDefault,
		LastSyncedAt:   m.LastSyncedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Connection entity.
func (m *ConnectionModel) FromDomain(c *integration.Connection) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.PlatformCode = c.PlatformCode
	m.BaseURL = c.BaseURL
	m.ConsumerKey = c.ConsumerKey
	m.ConsumerSecret = c.ConsumerSecret
	m.IsActive = c.IsActive
	m.IsDefault = c.IsDefault
	m.LastSyncedAt = c.LastSyncedAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// ConnectionModelFromDomain creates a new persistence model from a domain Connection entity.
func ConnectionModelFromDomain(c *integration.Connection) *ConnectionModel {
	m := &ConnectionModel{}
	m.FromDomain(c)
	return m
}

// FieldMappingModel is the persistence model for the FieldMapping domain entity.
type FieldMappingModel struct {
	ID                          uuid.UUID                    `gorm:"type:uuid;primary_key"`
	TenantID                    uuid.UUID                    `gorm:"type:uuid;not null;index:idx_field_mapping_tenant,priority:1"`
	ConnectionID                uuid.UUID                    `gorm:"type:uuid;not null;index:idx_field_mapping_connection,priority:1;index:idx_field_mapping_conn_direction,priority:1"`
	Direction                   integration.MappingDirection `gorm:"type:varchar(10);not null;index:idx_field_mapping_conn_direction,priority:2"`
	SelectedFieldsJSON          string                       `gorm:"type:jsonb;column:selected_fields"`
	FieldCorrespondenceJSON     string                       `gorm:"type:jsonb;column:field_correspondence"`
	AttributeCorrespondenceJSON string                       `gorm:"type:jsonb;column:attribute_correspondence"`
	IsActive                    bool                         `gorm:"not null;default:false"`
	CreatedAt                   time.Time                    `gorm:"not null"`
	UpdatedAt                   time.Time                    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FieldMappingModel) TableName() string {
	return "field_mappings"
}

// ToDomain converts the persistence model to a domain FieldMapping entity.
func (m *FieldMappingModel) ToDomain() *integration.FieldMapping {
	mapping := &integration.FieldMapping{
		ID:                      m.ID,
		TenantID:                m.TenantID,
		ConnectionID:            m.ConnectionID,
		Direction:               m.Direction,
		SelectedFields:          make([]string, 0),
		FieldCorrespondence:     make(map[string]string),
		AttributeCorrespondence: make(map[string]string),
		IsActive:                m.IsActive,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}

	if m.SelectedFieldsJSON != "" {
		var fields []string
		if err := json.Unmarshal([]byte(m.SelectedFieldsJSON), &fields); err == nil {
			mapping.SelectedFields = fields
		}
	}
	if m.FieldCorrespondenceJSON != "" {
		var corr map[string]string
		if err := json.Unmarshal([]byte(m.FieldCorrespondenceJSON), &corr); err == nil {
			mapping.FieldCorrespondence = corr
		}
	}
	if m.AttributeCorrespondenceJSON != "" {
		var corr map[string]string
		if err := json.Unmarshal([]byte(m.AttributeCorrespondenceJSON), &corr); err == nil {
			mapping.AttributeCorrespondence = corr
		}
	}

	return mapping
}

// FromDomain populates the persistence model from a domain FieldMapping entity.
func (m *FieldMappingModel) FromDomain(fm *integration.FieldMapping) {
	m.ID = fm.ID
	m.TenantID = fm.TenantID
	m.ConnectionID = fm.ConnectionID
	m.Direction = fm.Direction
	m.IsActive = fm.IsActive
	m.CreatedAt = fm.CreatedAt
	m.UpdatedAt = fm.UpdatedAt

	m.SelectedFieldsJSON = marshalOrEmptyList(fm.SelectedFields)
	m.FieldCorrespondenceJSON = marshalOrEmptyObject(fm.FieldCorrespondence)
	m.AttributeCorrespondenceJSON = marshalOrEmptyObject(fm.AttributeCorrespondence)
}

// FieldMappingModelFromDomain creates a new persistence model from a domain FieldMapping entity.
func FieldMappingModelFromDomain(fm *integration.FieldMapping) *FieldMappingModel {
	m := &FieldMappingModel{}
	m.FromDomain(fm)
	return m
}

// SyncRecordModel is the persistence model for the SyncRecord domain entity.
type SyncRecordModel struct {
	ID             uuid.UUID              `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID              `gorm:"type:uuid;not null;index:idx_sync_record_tenant,priority:1"`
	ConnectionID   uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_sync_record_conn_product,priority:1;index:idx_sync_record_conn_external,priority:1"`
	ProductID      uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_sync_record_conn_product,priority:2"`
	ExternalID     string                 `gorm:"type:varchar(100);index:idx_sync_record_conn_external,priority:2"`
	LastExportedAt *time.Time             ``
	LastImportedAt *time.Time             ``
	LastFieldSet   string                 `gorm:"type:jsonb;column:last_field_set"`
	LastImageURLs  string                 `gorm:"type:jsonb;column:last_image_urls"`
	LastAssetURLs  string                 `gorm:"type:jsonb;column:last_asset_urls"`
	Status         integration.SyncStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	ErrorMessage   string                 `gorm:"type:text"`
	CreatedAt      time.Time              `gorm:"not null"`
	UpdatedAt      time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncRecordModel) TableName() string {
	return "sync_records"
}

// ToDomain converts the persistence model to a domain SyncRecord entity.
func (m *SyncRecordModel) ToDomain() *integration.SyncRecord {
	record := &integration.SyncRecord{
		ID:             m.ID,
		TenantID:       m.TenantID,
		ConnectionID:   m.ConnectionID,
		ProductID:      m.ProductID,
		ExternalID:     m.ExternalID,
		LastExportedAt: m.LastExportedAt,
		LastImportedAt: m.LastImportedAt,
		Status:         m.Status,
		ErrorMessage:   m.ErrorMessage,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if m.LastFieldSet != "" {
		var fields []string
		if err := json.Unmarshal([]byte(m.LastFieldSet), &fields); err == nil {
			record.LastFieldSet = fields
		}
	}
	if m.LastImageURLs != "" {
		var urls []string
		if err := json.Unmarshal([]byte(m.LastImageURLs), &urls); err == nil {
			record.LastImageURLs = urls
		}
	}
	if m.LastAssetURLs != "" {
		var urls []string
		if err := json.Unmarshal([]byte(m.LastAssetURLs), &urls); err == nil {
			record.LastAssetURLs = urls
		}
	}

	return record
}

// FromDomain populates the persistence model from a domain SyncRecord entity.
func (m *SyncRecordModel) FromDomain(r *integration.SyncRecord) {
	m.ID = r.ID
	m.TenantID = r.TenantID
	m.ConnectionID = r.ConnectionID
	m.ProductID = r.ProductID
	m.ExternalID = r.ExternalID
	m.LastExportedAt = r.LastExportedAt
	m.LastImportedAt = r.LastImportedAt
	m.Status = r.Status
	m.ErrorMessage = r.ErrorMessage
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt

	m.LastFieldSet = marshalOrEmptyList(r.LastFieldSet)
	m.LastImageURLs = marshalOrEmptyList(r.LastImageURLs)
	m.LastAssetURLs = marshalOrEmptyList(r.LastAssetURLs)
}

// SyncRecordModelFromDomain creates a new persistence model from a domain SyncRecord entity.
func SyncRecordModelFromDomain(r *integration.SyncRecord) *SyncRecordModel {
	m := &SyncRecordModel{}
	m.FromDomain(r)
	return m
}

// WorkItemModel is the persistence model for the WorkItem domain entity.
type WorkItemModel struct {
	ID                uuid.UUID                  `gorm:"type:uuid;primary_key"`
	TenantID          uuid.UUID                  `gorm:"type:uuid;not null;index:idx_work_item_tenant,priority:1"`
	ConnectionID      uuid.UUID                  `gorm:"type:uuid;not null;index:idx_work_item_connection,priority:1"`
	ExternalWorkID    string                     `gorm:"type:varchar(100);not null;index:idx_work_item_external"`
	ProductID         *uuid.UUID                 `gorm:"type:uuid"`
	Kind              integration.WorkItemKind   `gorm:"type:varchar(20);not null"`
	Status            integration.WorkItemStatus `gorm:"type:varchar(20);not null;index"`
	RequestPayload    string                     `gorm:"type:jsonb"`
	ResponsePayload   string                     `gorm:"type:jsonb"`
	ErrorMessage      string                     `gorm:"type:text"`
	ExternalProductID string                     `gorm:"type:varchar(100)"`
	ExternalSKU       string                     `gorm:"type:varchar(100)"`
	CompletedAt       *time.Time                 ``
	CreatedAt         time.Time                  `gorm:"not null;index"`
	UpdatedAt         time.Time                  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WorkItemModel) TableName() string {
	return "work_items"
}

// ToDomain converts the persistence model to a domain WorkItem entity.
func (m *WorkItemModel) ToDomain() *integration.WorkItem {
	item := &integration.WorkItem{
		ID:                m.ID,
		TenantID:          m.TenantID,
		ConnectionID:      m.ConnectionID,
		ExternalWorkID:    m.ExternalWorkID,
		ProductID:         m.ProductID,
		Kind:              m.Kind,
		Status:            m.Status,
		ErrorMessage:      m.ErrorMessage,
		ExternalProductID: m.ExternalProductID,
		ExternalSKU:       m.ExternalSKU,
		CompletedAt:       m.CompletedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.RequestPayload != "" {
		item.RequestPayload = json.RawMessage(m.RequestPayload)
	}
	if m.ResponsePayload != "" {
		item.ResponsePayload = json.RawMessage(m.ResponsePayload)
	}
	return item
}

// FromDomain populates the persistence model from a domain WorkItem entity.
func (m *WorkItemModel) FromDomain(w *integration.WorkItem) {
	m.ID = w.ID
	m.TenantID = w.TenantID
	m.ConnectionID = w.ConnectionID
	m.ExternalWorkID = w.ExternalWorkID
	m.ProductID = w.ProductID
	m.Kind = w.Kind
	m.Status = w.Status
	m.RequestPayload = string(w.RequestPayload)
	m.ResponsePayload = string(w.ResponsePayload)
	m.ErrorMessage = w.ErrorMessage
	m.ExternalProductID = w.ExternalProductID
	m.ExternalSKU = w.ExternalSKU
	m.CompletedAt = w.CompletedAt
	m.CreatedAt = w.CreatedAt
	m.UpdatedAt = w.UpdatedAt
}

// WorkItemModelFromDomain creates a new persistence model from a domain WorkItem entity.
func WorkItemModelFromDomain(w *integration.WorkItem) *WorkItemModel {
	m := &WorkItemModel{}
	m.FromDomain(w)
	return m
}

func marshalOrEmptyList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return "[]"
}

func marshalOrEmptyObject(v map[string]string) string {
	if len(v) == 0 {
		return "{}"
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return "{}"
}
