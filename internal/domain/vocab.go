package domain

import "time"

// Column types used by the UI; any other tag is stored as given.
const (
	ColumnTypeLanguage   = "language"
	ColumnTypeVerbForm   = "verb_form"
	ColumnTypeDefinition = "definition"
	ColumnTypeExample    = "example"
	ColumnTypeCustom     = "custom"
)

// DefaultSourceLanguage is assumed for terms created without a language.
const DefaultSourceLanguage = "de"

// VocabList is a user-owned collection of entries with its own column layout.
type VocabList struct {
	ID          int64
	OwnerID     int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Columns     []ListColumn
	Entries     []VocabEntry
}

// PrimaryColumn returns the first column flagged as primary.
func (l *VocabList) PrimaryColumn() (ListColumn, bool) {
	for _, col := range l.Columns {
		if col.IsPrimary {
			return col, true
		}
	}
	return ListColumn{}, false
}

// ListColumn describes one user-defined field of a list.
type ListColumn struct {
	ID           int64
	ListID       int64
	Name         string
	ColumnType   string
	Position     int
	LanguageCode string
	IsPrimary    bool
}

// Key is the name a column is addressed by in tabular output.
func (c ListColumn) Key() string {
	if c.LanguageCode != "" {
		return c.LanguageCode
	}
	return c.Name
}

// VocabEntry is one row of a list; its content lives in field values.
type VocabEntry struct {
	ID        int64
	ListID    int64
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
	Values    []EntryFieldValue
}

// EntryFieldValue holds the text of one entry for one column.
type EntryFieldValue struct {
	ID       int64
	EntryID  int64
	ColumnID int64
	Value    string

	// Column, when set, takes precedence over ColumnID. A column with a zero
	// ID is created in the same transaction as the value; values may share one.
	Column *ListColumn
}
