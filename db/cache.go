package db

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quadrate-lang/quadrate/diag"
	"github.com/quadrate-lang/quadrate/models"
)

// Symbol is a cached document symbol.
type Symbol struct {
	Name      string `json:"name"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
}

// Cache wraps the database with the digest-keyed check store.
type Cache struct {
	conn    *gorm.DB
	session models.Session
}

// NewCache opens a cache session for the named tool.
func NewCache(conn *gorm.DB, tool string) (*Cache, error) {
	c := &Cache{
		conn:    conn,
		session: models.Session{ID: uuid.NewString(), Tool: tool},
	}
	if err := conn.Create(&c.session).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// Digest returns the hex SHA-256 of a source buffer.
func Digest(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Store records the outcome of checking one file.
func (c *Cache) Store(path, digest string, diags []diag.Diagnostic, symbols []Symbol) error {
	diagJSON, err := json.Marshal(diags)
	if err != nil {
		return err
	}
	symJSON, err := json.Marshal(symbols)
	if err != nil {
		return err
	}

	errorCount := 0
	for _, d := range diags {
		if d.Severity == diag.Error {
			errorCount++
		}
	}

	check := models.FileCheck{
		ID:          uuid.NewString(),
		SessionID:   c.session.ID,
		Path:        path,
		Digest:      digest,
		Diagnostics: datatypes.JSON(diagJSON),
		Symbols:     datatypes.JSON(symJSON),
		ErrorCount:  errorCount,
	}

	// One row per (path, digest); a changed file gets a fresh row and the
	// stale one is dropped.
	if err := c.conn.Where("path = ?", path).
		Delete(&models.FileCheck{}).Error; err != nil {
		return err
	}
	if err := c.conn.Create(&check).Error; err != nil {
		return err
	}

	c.session.ChecksCount++
	return c.conn.Model(&c.session).Update("checks_count", c.session.ChecksCount).Error
}

// Lookup returns the cached outcome for path at digest, or ok=false.
func (c *Cache) Lookup(path, digest string) (diags []diag.Diagnostic, symbols []Symbol, ok bool, err error) {
	var check models.FileCheck
	res := c.conn.Where("path = ? AND digest = ?", path, digest).
		Order("created_at DESC").First(&check)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, nil, false, nil
	}
	if res.Error != nil {
		return nil, nil, false, res.Error
	}

	if len(check.Diagnostics) > 0 {
		if err := json.Unmarshal(check.Diagnostics, &diags); err != nil {
			return nil, nil, false, err
		}
	}
	if len(check.Symbols) > 0 {
		if err := json.Unmarshal(check.Symbols, &symbols); err != nil {
			return nil, nil, false, err
		}
	}

	c.session.CacheHits++
	if err := c.conn.Model(&c.session).Update("cache_hits", c.session.CacheHits).Error; err != nil {
		return nil, nil, false, err
	}
	return diags, symbols, true, nil
}

// Close stamps the session end time.
func (c *Cache) Close() error {
	now := time.Now()
	return c.conn.Model(&c.session).Update("ended_at", &now).Error
}
