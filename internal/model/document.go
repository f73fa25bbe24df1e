// Package model 定义了与数据库表对应的 Go 结构体以及 HTTP 接口的数据传输对象。
package model

import "time"

// Document 对应于数据库中的 'documents' 表，记录每个已完成入库的文档。
type Document struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	DocumentID string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"document_id"`
	FileName   string    `gorm:"type:varchar(255);not null" json:"filename"`
	ObjectName string    `gorm:"type:varchar(512);not null" json:"-"`
	TotalSize  int64     `gorm:"not null" json:"-"`
	ChunkCount int       `gorm:"not null;default:0" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

// DocumentInfo 是 GET /documents 与 POST /upload 返回的文档描述。
type DocumentInfo struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"filename"`
}

// Info 转换为对外的 DocumentInfo。
func (d Document) Info() DocumentInfo {
	return DocumentInfo{DocumentID: d.DocumentID, FileName: d.FileName}
}

// DocumentListResponse 是 GET /documents 的响应体。
type DocumentListResponse struct {
	Documents []DocumentInfo `json:"documents"`
}

// UploadResponse 是 POST /upload 成功时的响应体。
type UploadResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id"`
	FileName   string `json:"filename"`
	Message    string `json:"message"`
}
