// Package models defines the gorm schema for the build cache.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// FileCheck records one validated source file. A file whose digest still
// matches is skipped on the next build; its stored diagnostics and symbols
// are replayed instead.
type FileCheck struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	SessionID string `gorm:"type:varchar(36);index"`

	// Identity
	Path   string `gorm:"type:varchar(512);index:idx_path_digest"`
	Digest string `gorm:"type:varchar(64);index:idx_path_digest"` // SHA256 of source

	// Replay payload
	Diagnostics datatypes.JSON `gorm:"type:jsonb"`
	Symbols     datatypes.JSON `gorm:"type:jsonb"`
	ErrorCount  int            `gorm:"default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Session groups the checks of one CLI run.
type Session struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Tool      string    `gorm:"type:varchar(20)"` // e.g. build
	StartedAt time.Time `gorm:"autoCreateTime"`
	EndedAt   *time.Time

	// Statistics
	ChecksCount int `gorm:"default:0"`
	CacheHits   int `gorm:"default:0"`
}
