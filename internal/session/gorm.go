package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/forPelevin/vidsub/internal/types"
)

// sessionRecord is the SQL row. Structured fields are stored as JSON text so
// the same schema works on sqlite and postgres.
type sessionRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Video          string `gorm:"type:text"`
	Audio          string `gorm:"type:text"`
	Segments       string `gorm:"type:text"`
	TranscriptText *string
	Subtitles      *string
	Translated     *string
	Summary        *string
	View           string `gorm:"column:display_view;size:16"`
}

func (sessionRecord) TableName() string { return "sessions" }

// OpenDB connects to driver "sqlite" or "postgres".
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = "vidsub.db"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		if dsn == "" {
			return nil, errors.New("postgres dsn is required")
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sessions: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Create(ctx context.Context) (*Session, error) {
	s := New()
	rec, err := toRecord(s)
	if err != nil {
		return nil, err
	}
	if err := g.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (g *GormStore) Get(ctx context.Context, id string) (*Session, error) {
	var rec sessionRecord
	err := g.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return fromRecord(rec)
}

func (g *GormStore) Save(ctx context.Context, s *Session) error {
	rec, err := toRecord(s)
	if err != nil {
		return err
	}
	res := g.db.WithContext(ctx).Model(&sessionRecord{}).Where("id = ?", s.ID).
		Select("*").Omit("id", "created_at").Updates(&rec)
	if res.Error != nil {
		return fmt.Errorf("save session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.UpdatedAt = rec.UpdatedAt
	return nil
}

func (g *GormStore) Delete(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Delete(&sessionRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func toRecord(s *Session) (sessionRecord, error) {
	rec := sessionRecord{
		ID:             s.ID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      time.Now().UTC(),
		TranscriptText: s.TranscriptText,
		Subtitles:      s.Subtitles,
		Translated:     s.Translated,
		Summary:        s.Summary,
		View:           string(s.View),
	}
	var err error
	if rec.Video, err = encodeOptional(s.Video); err != nil {
		return rec, err
	}
	if rec.Audio, err = encodeOptional(s.Audio); err != nil {
		return rec, err
	}
	if s.Segments != nil {
		b, err := json.Marshal(s.Segments)
		if err != nil {
			return rec, fmt.Errorf("encode segments: %w", err)
		}
		rec.Segments = string(b)
	}
	return rec, nil
}

func fromRecord(rec sessionRecord) (*Session, error) {
	s := &Session{
		ID:             rec.ID,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
		TranscriptText: rec.TranscriptText,
		Subtitles:      rec.Subtitles,
		Translated:     rec.Translated,
		Summary:        rec.Summary,
		View:           View(rec.View),
	}
	if rec.Video != "" {
		s.Video = &types.VideoAsset{}
		if err := json.Unmarshal([]byte(rec.Video), s.Video); err != nil {
			return nil, fmt.Errorf("decode video: %w", err)
		}
	}
	if rec.Audio != "" {
		s.Audio = &types.AudioAsset{}
		if err := json.Unmarshal([]byte(rec.Audio), s.Audio); err != nil {
			return nil, fmt.Errorf("decode audio: %w", err)
		}
	}
	if rec.Segments != "" {
		s.Segments = []types.Segment{}
		if err := json.Unmarshal([]byte(rec.Segments), &s.Segments); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
	}
	if s.View == "" {
		s.View = ViewTranscript
	}
	return s, nil
}

func encodeOptional[T any](v *T) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %T: %w", v, err)
	}
	return string(b), nil
}

var _ Store = (*GormStore)(nil)
