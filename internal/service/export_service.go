package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vocab-manager/internal/domain"
	"vocab-manager/internal/storage"
)

// ExportConfig locates list snapshots in the bucket.
type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

// ExportResult describes an uploaded snapshot.
type ExportResult struct {
	Key      string
	Location string
	URL      string
}

// ExportService uploads JSON snapshots of vocab lists to object storage.
type ExportService interface {
	Enabled() bool
	Export(ctx context.Context, list *domain.VocabList) (*ExportResult, error)
	ListExports(ctx context.Context, listID int64) ([]storage.ObjectInfo, error)
	DeleteExports(ctx context.Context, listID int64) error
}

type exportService struct {
	store  storage.Service
	cfg    ExportConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewExportService returns a service that reports ErrStorageDisabled when
// store is nil or no bucket is configured.
func NewExportService(store storage.Service, cfg ExportConfig, logger *logrus.Logger) ExportService {
	if logger == nil {
		logger = logrus.New()
	}
	return &exportService{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *exportService) Enabled() bool {
	return s.store != nil && s.cfg.Bucket != ""
}

func (s *exportService) Export(ctx context.Context, list *domain.VocabList) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, domain.ErrStorageDisabled
	}

	body, err := json.MarshalIndent(newListSnapshot(list, s.now().UTC()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode list %d: %w", list.ID, err)
	}

	key := path.Join(s.listPrefix(list.ID), fmt.Sprintf("%s-%s.json", s.now().UTC().Format("20060102T150405Z"), uuid.NewString()))
	location, err := s.store.PutObject(ctx, bytes.NewReader(body), storage.PutOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	url, err := s.store.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLExpiry)
	if err != nil {
		// the snapshot is stored; only the link is missing
		s.logger.WithError(err).WithField("key", key).Warn("presign export")
	}

	s.logger.WithFields(logrus.Fields{
		"list_id": list.ID,
		"entries": len(list.Entries),
		"key":     key,
	}).Info("list exported")

	return &ExportResult{Key: key, Location: location, URL: url}, nil
}

func (s *exportService) ListExports(ctx context.Context, listID int64) ([]storage.ObjectInfo, error) {
	if !s.Enabled() {
		return nil, domain.ErrStorageDisabled
	}
	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, s.listPrefix(listID)+"/")
	if err != nil {
		return nil, err
	}
	if objects == nil {
		objects = []storage.ObjectInfo{}
	}
	return objects, nil
}

func (s *exportService) DeleteExports(ctx context.Context, listID int64) error {
	if !s.Enabled() {
		return domain.ErrStorageDisabled
	}
	return s.store.DeletePrefix(ctx, s.cfg.Bucket, s.listPrefix(listID)+"/")
}

func (s *exportService) listPrefix(listID int64) string {
	prefix := strings.Trim(s.cfg.KeyPrefix, "/")
	return path.Join(prefix, "lists", fmt.Sprint(listID))
}

type listSnapshot struct {
	ExportedAt  time.Time        `json:"exported_at"`
	ID          int64            `json:"id"`
	OwnerID     int64            `json:"user_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Columns     []columnSnapshot `json:"columns"`
	Entries     []entrySnapshot  `json:"entries"`
}

type columnSnapshot struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ColumnType   string `json:"column_type"`
	Position     int    `json:"position"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPrimary    bool   `json:"is_primary"`
}

type entrySnapshot struct {
	ID       int64           `json:"id"`
	Position int             `json:"position"`
	Values   []valueSnapshot `json:"values"`
}

type valueSnapshot struct {
	ColumnID int64  `json:"column_id"`
	Value    string `json:"value"`
}

func newListSnapshot(list *domain.VocabList, at time.Time) listSnapshot {
	snap := listSnapshot{
		ExportedAt:  at,
		ID:          list.ID,
		OwnerID:     list.OwnerID,
		Name:        list.Name,
		Description: list.Description,
		Columns:     make([]columnSnapshot, len(list.Columns)),
		Entries:     make([]entrySnapshot, len(list.Entries)),
	}

	for i, col := range list.Columns {
		snap.Columns[i] = columnSnapshot{
			ID:           col.ID,
			Name:         col.Name,
			ColumnType:   col.ColumnType,
			Position:     col.Position,
			LanguageCode: col.LanguageCode,
			IsPrimary:    col.IsPrimary,
		}
	}

	for i, entry := range list.Entries {
		values := make([]valueSnapshot, len(entry.Values))
		for j, v := range entry.Values {
			values[j] = valueSnapshot{ColumnID: v.ColumnID, Value: v.Value}
		}
		snap.Entries[i] = entrySnapshot{ID: entry.ID, Position: entry.Position, Values: values}
	}
	return snap
}
