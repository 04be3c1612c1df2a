package http

import (
	"time"

	"vocab-manager/internal/domain"
	"vocab-manager/internal/storage"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     *string `json:"email"`
	Firstname string  `json:"firstname"`
	Avatar    string  `json:"avatar"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type ColumnResponse struct {
	ID           int64  `json:"id"`
	VocabListID  int64  `json:"vocab_list_id"`
	Name         string `json:"name"`
	ColumnType   string `json:"column_type"`
	Position     int    `json:"position"`
	LanguageCode string `json:"language_code"`
	IsPrimary    bool   `json:"is_primary"`
}

type FieldValueResponse struct {
	ID       int64  `json:"id"`
	EntryID  int64  `json:"entry_id"`
	ColumnID int64  `json:"column_id"`
	Value    string `json:"value"`
}

type TranslationResponse struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type EntryResponse struct {
	ID             int64                 `json:"id"`
	VocabListID    int64                 `json:"vocab_list_id"`
	Position       int                   `json:"position"`
	Term           string                `json:"term"`
	SourceLanguage string                `json:"source_language"`
	Translations   []TranslationResponse `json:"translations"`
	FieldValues    []FieldValueResponse  `json:"field_values"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
}

type VocabListResponse struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Columns     []ColumnResponse `json:"columns"`
	Entries     []EntryResponse  `json:"entries"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

type ExportResponse struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url,omitempty"`
}

func userToResponse(user domain.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Firstname: user.Firstname,
		Avatar:    user.Avatar,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.Email != "" {
		email := user.Email
		resp.Email = &email
	}
	return resp
}

func columnToResponse(col domain.ListColumn) ColumnResponse {
	return ColumnResponse{
		ID:           col.ID,
		VocabListID:  col.ListID,
		Name:         col.Name,
		ColumnType:   col.ColumnType,
		Position:     col.Position,
		LanguageCode: col.LanguageCode,
		IsPrimary:    col.IsPrimary,
	}
}

func valueToResponse(v domain.EntryFieldValue) FieldValueResponse {
	return FieldValueResponse{
		ID:       v.ID,
		EntryID:  v.EntryID,
		ColumnID: v.ColumnID,
		Value:    v.Value,
	}
}

// entryToResponse derives the term/translation view from the list's columns.
func entryToResponse(entry domain.VocabEntry, columns []domain.ListColumn) EntryResponse {
	byID := make(map[int64]domain.ListColumn, len(columns))
	for _, col := range columns {
		byID[col.ID] = col
	}

	resp := EntryResponse{
		ID:           entry.ID,
		VocabListID:  entry.ListID,
		Position:     entry.Position,
		Translations: []TranslationResponse{},
		FieldValues:  make([]FieldValueResponse, len(entry.Values)),
		CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    entry.UpdatedAt.Format(time.RFC3339),
	}

	termSet := false
	for i, v := range entry.Values {
		resp.FieldValues[i] = valueToResponse(v)

		col, ok := byID[v.ColumnID]
		if !ok {
			continue
		}
		switch {
		case col.IsPrimary:
			if !termSet {
				resp.Term = v.Value
				resp.SourceLanguage = col.LanguageCode
				termSet = true
			}
		case col.ColumnType == domain.ColumnTypeLanguage || col.LanguageCode != "":
			resp.Translations = append(resp.Translations, TranslationResponse{
				ID:       v.ID,
				Text:     v.Value,
				Language: col.Key(),
			})
		}
	}
	return resp
}

func listToResponse(list domain.VocabList) VocabListResponse {
	resp := VocabListResponse{
		ID:          list.ID,
		UserID:      list.OwnerID,
		Name:        list.Name,
		Description: list.Description,
		Columns:     make([]ColumnResponse, len(list.Columns)),
		Entries:     make([]EntryResponse, len(list.Entries)),
		CreatedAt:   list.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   list.UpdatedAt.Format(time.RFC3339),
	}
	for i := range list.Columns {
		resp.Columns[i] = columnToResponse(list.Columns[i])
	}
	for i := range list.Entries {
		resp.Entries[i] = entryToResponse(list.Entries[i], list.Columns)
	}
	return resp
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
