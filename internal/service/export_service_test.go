package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vocab-manager/internal/domain"
	"vocab-manager/internal/storage"
)

type storageMock struct {
	mock.Mock
	body []byte
}

var _ storage.Service = (*storageMock)(nil)

func (m *storageMock) PutObject(ctx context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.body = data
	args := m.Called(ctx, opts)
	return args.String(0), args.Error(1)
}

func (m *storageMock) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	args := m.Called(ctx, bucket, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ObjectInfo), args.Error(1)
}

func (m *storageMock) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	args := m.Called(ctx, bucket, prefix)
	return args.Error(0)
}

func (m *storageMock) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, expires)
	return args.String(0), args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sampleList() *domain.VocabList {
	return &domain.VocabList{
		ID:      7,
		OwnerID: 1,
		Name:    "Spanisch",
		Columns: []domain.ListColumn{
			{ID: 1, Name: "Term", IsPrimary: true, LanguageCode: "de"},
			{ID: 2, Name: "es", LanguageCode: "es"},
			{ID: 4, Name: "es", LanguageCode: "es-mx"},
		},
		Entries: []domain.VocabEntry{
			{ID: 3, Values: []domain.EntryFieldValue{
				{ID: 10, ColumnID: 1, Value: "Haus"},
				{ID: 11, ColumnID: 2, Value: "casa"},
				{ID: 12, ColumnID: 4, Value: "hogar"},
			}},
		},
	}
}

func TestExportUploadsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := &storageMock{}
	svc := NewExportService(store, ExportConfig{Bucket: "bucket", KeyPrefix: "/exports/", URLExpiry: time.Minute}, quietLogger())
	svc.(*exportService).now = func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) }

	store.On("PutObject", ctx, mock.MatchedBy(func(opts storage.PutOptions) bool {
		return opts.Bucket == "bucket" &&
			strings.HasPrefix(opts.Key, "exports/lists/7/20240501T083000Z-") &&
			strings.HasSuffix(opts.Key, ".json") &&
			opts.ContentType == "application/json"
	})).Return("s3://bucket/exports/lists/7/x.json", nil).Once()
	store.On("GetObjectURL", ctx, "bucket", mock.AnythingOfType("string"), time.Minute).
		Return("https://example.com/signed", nil).Once()

	result, err := svc.Export(ctx, sampleList())
	require.NoError(t, err)
	require.Equal(t, "s3://bucket/exports/lists/7/x.json", result.Location)
	require.Equal(t, "https://example.com/signed", result.URL)
	require.True(t, strings.HasPrefix(result.Key, "exports/lists/7/"))

	var snap listSnapshot
	require.NoError(t, json.Unmarshal(store.body, &snap))
	require.Equal(t, "Spanisch", snap.Name)
	require.Len(t, snap.Columns, 3)
	require.Len(t, snap.Entries, 1)
	require.Equal(t, []valueSnapshot{
		{ColumnID: 1, Value: "Haus"},
		{ColumnID: 2, Value: "casa"},
		{ColumnID: 4, Value: "hogar"},
	}, snap.Entries[0].Values)

	store.AssertExpectations(t)
}

func TestExportKeepsSnapshotWhenPresignFails(t *testing.T) {
	ctx := context.Background()
	store := &storageMock{}
	svc := NewExportService(store, ExportConfig{Bucket: "bucket"}, quietLogger())

	store.On("PutObject", ctx, mock.Anything).Return("s3://bucket/k", nil).Once()
	store.On("GetObjectURL", ctx, "bucket", mock.Anything, time.Duration(0)).Return("", errors.New("no creds")).Once()

	result, err := svc.Export(ctx, sampleList())
	require.NoError(t, err)
	require.Empty(t, result.URL)
	store.AssertExpectations(t)
}

func TestExportUploadFailure(t *testing.T) {
	ctx := context.Background()
	store := &storageMock{}
	svc := NewExportService(store, ExportConfig{Bucket: "bucket"}, quietLogger())

	boom := errors.New("upload failed")
	store.On("PutObject", ctx, mock.Anything).Return("", boom).Once()

	_, err := svc.Export(ctx, sampleList())
	require.ErrorIs(t, err, boom)
	store.AssertNotCalled(t, "GetObjectURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListAndDeleteExports(t *testing.T) {
	ctx := context.Background()
	store := &storageMock{}
	svc := NewExportService(store, ExportConfig{Bucket: "bucket", KeyPrefix: "vocab-exports"}, quietLogger())

	store.On("ListObjects", ctx, "bucket", "vocab-exports/lists/7/").Return(nil, nil).Once()
	store.On("DeletePrefix", ctx, "bucket", "vocab-exports/lists/7/").Return(nil).Once()

	objects, err := svc.ListExports(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, objects)
	require.Empty(t, objects)

	require.NoError(t, svc.DeleteExports(ctx, 7))
	store.AssertExpectations(t)
}

func TestExportDisabledWithoutBucket(t *testing.T) {
	ctx := context.Background()

	for name, svc := range map[string]ExportService{
		"nil store": NewExportService(nil, ExportConfig{Bucket: "bucket"}, nil),
		"no bucket": NewExportService(&storageMock{}, ExportConfig{}, nil),
	} {
		t.Run(name, func(t *testing.T) {
			require.False(t, svc.Enabled())

			_, err := svc.Export(ctx, sampleList())
			require.ErrorIs(t, err, domain.ErrStorageDisabled)
			_, err = svc.ListExports(ctx, 1)
			require.ErrorIs(t, err, domain.ErrStorageDisabled)
			require.ErrorIs(t, svc.DeleteExports(ctx, 1), domain.ErrStorageDisabled)
		})
	}
}
