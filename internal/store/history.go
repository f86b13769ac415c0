package store

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vijaynimmakayala9/techsterker-mentor-sub000/internal/chat"
)

// Snapshot is the last committed message sequence for one conversation,
// serialized as JSON. One row per conversation.
type Snapshot struct {
	ConversationID string `gorm:"primaryKey;type:text"`
	Payload        string `gorm:"type:text;not null"`
	UpdatedAt      time.Time
}

// History is the local write-through cache of committed snapshots. It exists
// so a reopened client can show last-known messages before the first fetch
// resolves; the server snapshot always replaces it.
type History struct {
	db *gorm.DB
}

func Open(path string) (*History, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, err
	}
	return &History{db: db}, nil
}

func (h *History) SaveSnapshot(conversationID string, msgs []chat.Message) error {
	payload, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return h.db.Save(&Snapshot{
		ConversationID: conversationID,
		Payload:        string(payload),
		UpdatedAt:      time.Now(),
	}).Error
}

func (h *History) LoadSnapshot(conversationID string) ([]chat.Message, error) {
	var s Snapshot
	err := h.db.First(&s, "conversation_id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []chat.Message
	if err := json.Unmarshal([]byte(s.Payload), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (h *History) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
