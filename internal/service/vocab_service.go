package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"vocab-manager/internal/domain"
	"vocab-manager/internal/repository"
)

// NewColumn describes a column to create; a nil Position means "append".
type NewColumn struct {
	Name         string
	ColumnType   string
	Position     *int
	LanguageCode string
	IsPrimary    bool
}

// NewList carries the fields accepted when creating a list.
type NewList struct {
	Name        string
	Description string
	Columns     []NewColumn
}

// ListUpdate is a partial update; nil fields are left untouched.
type ListUpdate struct {
	Name        *string
	Description *string
}

// FieldValueInput sets the text of one column.
type FieldValueInput struct {
	ColumnID int64
	Value    string
}

// TranslationInput is the term/translation form of a field value.
type TranslationInput struct {
	Text     string
	Language string
}

// TranslationUpdate is a partial update of a translation.
type TranslationUpdate struct {
	Text     *string
	Language *string
}

// EntryInput is shared by create and update. A non-nil FieldValues or
// Translations slice replaces the entry's whole value set on update.
type EntryInput struct {
	FieldValues    []FieldValueInput
	Term           *string
	SourceLanguage string
	Translations   []TranslationInput
	Position       *int
}

func (in EntryInput) replacesValues() bool {
	return in.FieldValues != nil || in.Translations != nil
}

// TableRow is one pivoted entry keyed by column.
type TableRow map[string]any

// VocabService coordinates list, column and entry operations backed by repositories.
type VocabService interface {
	CreateList(ctx context.Context, ownerID int64, in NewList) (*domain.VocabList, error)
	ListLists(ctx context.Context, ownerID int64) ([]domain.VocabList, error)
	GetList(ctx context.Context, id int64) (*domain.VocabList, error)
	LookupList(ctx context.Context, id int64) (*domain.VocabList, error)
	UpdateList(ctx context.Context, id int64, upd ListUpdate) (*domain.VocabList, error)
	DeleteList(ctx context.Context, id int64) error

	AddColumn(ctx context.Context, listID int64, in NewColumn) (*domain.ListColumn, error)
	GetColumn(ctx context.Context, id int64) (*domain.ListColumn, error)
	ListColumns(ctx context.Context, listID int64) ([]domain.ListColumn, error)
	DeleteColumn(ctx context.Context, id int64) error

	CreateEntry(ctx context.Context, listID int64, in EntryInput) (*domain.VocabEntry, error)
	GetEntry(ctx context.Context, id int64) (*domain.VocabEntry, error)
	ListEntries(ctx context.Context, listID int64) ([]domain.VocabEntry, error)
	ListEntriesByOwner(ctx context.Context, ownerID int64) ([]domain.VocabEntry, error)
	UpdateEntry(ctx context.Context, id int64, in EntryInput) (*domain.VocabEntry, error)
	DeleteEntry(ctx context.Context, id int64) error

	AddTranslation(ctx context.Context, entryID int64, in TranslationInput) (*domain.EntryFieldValue, error)
	GetFieldValue(ctx context.Context, id int64) (*domain.EntryFieldValue, error)
	UpdateTranslation(ctx context.Context, id int64, upd TranslationUpdate) (*domain.EntryFieldValue, error)
	DeleteFieldValue(ctx context.Context, id int64) error

	EntryTable(ctx context.Context, listID int64, langs []string) ([]TableRow, error)
}

type vocabService struct {
	lists   repository.ListRepository
	columns repository.ColumnRepository
	entries repository.EntryRepository
}

func NewVocabService(lists repository.ListRepository, columns repository.ColumnRepository, entries repository.EntryRepository) VocabService {
	return &vocabService{
		lists:   lists,
		columns: columns,
		entries: entries,
	}
}

func (s *vocabService) CreateList(ctx context.Context, ownerID int64, in NewList) (*domain.VocabList, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: list name is required", domain.ErrInvalidInput)
	}

	list := &domain.VocabList{
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Columns:     make([]domain.ListColumn, 0, len(in.Columns)),
	}
	for i, c := range in.Columns {
		column, err := buildColumn(c)
		if err != nil {
			return nil, err
		}
		column.Position = i
		if c.Position != nil {
			column.Position = *c.Position
		}
		list.Columns = append(list.Columns, column)
	}

	if _, err := s.lists.Create(ctx, list); err != nil {
		return nil, err
	}
	sortColumns(list.Columns)
	list.Entries = []domain.VocabEntry{}
	return list, nil
}

func (s *vocabService) ListLists(ctx context.Context, ownerID int64) ([]domain.VocabList, error) {
	lists, err := s.lists.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range lists {
		columns, err := s.columns.ListByList(ctx, lists[i].ID)
		if err != nil {
			return nil, err
		}
		lists[i].Columns = columns
	}
	return lists, nil
}

func (s *vocabService) GetList(ctx context.Context, id int64) (*domain.VocabList, error) {
	list, err := s.lists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	columns, err := s.columns.ListByList(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByList(ctx, id)
	if err != nil {
		return nil, err
	}
	list.Columns = columns
	list.Entries = entries
	return list, nil
}

// LookupList returns the list row alone, for ownership checks.
func (s *vocabService) LookupList(ctx context.Context, id int64) (*domain.VocabList, error) {
	return s.lists.Get(ctx, id)
}

func (s *vocabService) UpdateList(ctx context.Context, id int64, upd ListUpdate) (*domain.VocabList, error) {
	list, err := s.lists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: list name must not be empty", domain.ErrInvalidInput)
		}
		list.Name = name
	}
	if upd.Description != nil {
		list.Description = strings.TrimSpace(*upd.Description)
	}
	if err := s.lists.Update(ctx, list); err != nil {
		return nil, err
	}
	return s.GetList(ctx, id)
}

func (s *vocabService) DeleteList(ctx context.Context, id int64) error {
	return s.lists.Delete(ctx, id)
}

func (s *vocabService) AddColumn(ctx context.Context, listID int64, in NewColumn) (*domain.ListColumn, error) {
	column, err := buildColumn(in)
	if err != nil {
		return nil, err
	}
	column.ListID = listID
	if _, err := s.columns.Add(ctx, &column, in.Position); err != nil {
		return nil, err
	}
	return &column, nil
}

func (s *vocabService) GetColumn(ctx context.Context, id int64) (*domain.ListColumn, error) {
	return s.columns.Get(ctx, id)
}

func (s *vocabService) ListColumns(ctx context.Context, listID int64) ([]domain.ListColumn, error) {
	return s.columns.ListByList(ctx, listID)
}

func (s *vocabService) DeleteColumn(ctx context.Context, id int64) error {
	return s.columns.Delete(ctx, id)
}

func (s *vocabService) CreateEntry(ctx context.Context, listID int64, in EntryInput) (*domain.VocabEntry, error) {
	plan, err := s.planColumns(ctx, listID)
	if err != nil {
		return nil, err
	}
	values, err := plan.values(in)
	if err != nil {
		return nil, err
	}

	entry := &domain.VocabEntry{
		ListID: listID,
		Values: values,
	}
	if _, err := s.entries.Create(ctx, entry, in.Position); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *vocabService) GetEntry(ctx context.Context, id int64) (*domain.VocabEntry, error) {
	return s.entries.Get(ctx, id)
}

func (s *vocabService) ListEntries(ctx context.Context, listID int64) ([]domain.VocabEntry, error) {
	return s.entries.ListByList(ctx, listID)
}

func (s *vocabService) ListEntriesByOwner(ctx context.Context, ownerID int64) ([]domain.VocabEntry, error) {
	return s.entries.ListByOwner(ctx, ownerID)
}

// UpdateEntry replaces the full value set when one is supplied; a bare term
// only rewrites the primary column's value. Values and position change in
// one transaction.
func (s *vocabService) UpdateEntry(ctx context.Context, id int64, in EntryInput) (*domain.VocabEntry, error) {
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	upd := repository.EntryUpdate{Position: in.Position}
	switch {
	case in.replacesValues():
		plan, err := s.planColumns(ctx, entry.ListID)
		if err != nil {
			return nil, err
		}
		if upd.Values, err = plan.values(in); err != nil {
			return nil, err
		}
		upd.Replace = true
	case in.Term != nil:
		plan, err := s.planColumns(ctx, entry.ListID)
		if err != nil {
			return nil, err
		}
		upd.Values = []domain.EntryFieldValue{{Column: plan.primary(in.SourceLanguage), Value: *in.Term}}
	}

	if err := s.entries.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.entries.Get(ctx, id)
}

func (s *vocabService) DeleteEntry(ctx context.Context, id int64) error {
	return s.entries.Delete(ctx, id)
}

func (s *vocabService) AddTranslation(ctx context.Context, entryID int64, in TranslationInput) (*domain.EntryFieldValue, error) {
	entry, err := s.entries.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	plan, err := s.planColumns(ctx, entry.ListID)
	if err != nil {
		return nil, err
	}
	column, err := plan.language(in.Language)
	if err != nil {
		return nil, err
	}

	value := &domain.EntryFieldValue{
		EntryID: entryID,
		Column:  column,
		Value:   in.Text,
	}
	if _, err := s.entries.AddValue(ctx, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *vocabService) GetFieldValue(ctx context.Context, id int64) (*domain.EntryFieldValue, error) {
	return s.entries.GetValue(ctx, id)
}

// UpdateTranslation changes the text and, when a language is given, moves
// the value to that language's column.
func (s *vocabService) UpdateTranslation(ctx context.Context, id int64, upd TranslationUpdate) (*domain.EntryFieldValue, error) {
	value, err := s.entries.GetValue(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Text != nil {
		value.Value = *upd.Text
	}
	if upd.Language != nil {
		entry, err := s.entries.Get(ctx, value.EntryID)
		if err != nil {
			return nil, err
		}
		plan, err := s.planColumns(ctx, entry.ListID)
		if err != nil {
			return nil, err
		}
		if value.Column, err = plan.language(*upd.Language); err != nil {
			return nil, err
		}
	}

	if err := s.entries.UpdateValue(ctx, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *vocabService) DeleteFieldValue(ctx context.Context, id int64) error {
	return s.entries.DeleteValue(ctx, id)
}

func (s *vocabService) EntryTable(ctx context.Context, listID int64, langs []string) ([]TableRow, error) {
	columns, err := s.columns.ListByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByList(ctx, listID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(langs))
	for _, lang := range langs {
		if lang = normalizeLanguage(lang); lang != "" {
			wanted[lang] = struct{}{}
		}
	}

	list := domain.VocabList{Columns: columns}
	primary, hasPrimary := list.PrimaryColumn()

	var shown []domain.ListColumn
	for _, col := range columns {
		if hasPrimary && col.ID == primary.ID {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[normalizeLanguage(col.Key())]; !ok {
				continue
			}
		}
		shown = append(shown, col)
	}
	keys := tableKeys(shown)

	rows := make([]TableRow, 0, len(entries))
	for _, entry := range entries {
		byColumn := make(map[int64]string, len(entry.Values))
		for _, v := range entry.Values {
			if _, seen := byColumn[v.ColumnID]; !seen {
				byColumn[v.ColumnID] = v.Value
			}
		}

		row := TableRow{
			"entry_id":        entry.ID,
			"position":        entry.Position,
			"term":            "",
			"source_language": "",
		}
		if hasPrimary {
			row["term"] = byColumn[primary.ID]
			row["source_language"] = primary.LanguageCode
		}
		for _, col := range shown {
			row[keys[col.ID]] = byColumn[col.ID]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// tableRowFields are the fixed keys of a TableRow.
var tableRowFields = []string{"entry_id", "position", "term", "source_language"}

// tableKeys assigns each column its row key. A key taken by a fixed field
// or an earlier column gets the column id appended.
func tableKeys(columns []domain.ListColumn) map[int64]string {
	used := make(map[string]struct{}, len(tableRowFields)+len(columns))
	for _, f := range tableRowFields {
		used[f] = struct{}{}
	}

	keys := make(map[int64]string, len(columns))
	for _, col := range columns {
		key := col.Key()
		if _, taken := used[key]; taken {
			key = fmt.Sprintf("%s_%d", key, col.ID)
		}
		used[key] = struct{}{}
		keys[col.ID] = key
	}
	return keys
}

// columnPlan resolves term and translation targets against a list's
// columns. Missing ones are staged, not stored; the entry repository creates
// them in the same transaction as the values that use them.
type columnPlan struct {
	listID  int64
	columns []domain.ListColumn
	staged  []*domain.ListColumn
}

func (s *vocabService) planColumns(ctx context.Context, listID int64) (*columnPlan, error) {
	columns, err := s.columns.ListByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return &columnPlan{listID: listID, columns: columns}, nil
}

// values turns explicit field values plus the term/translation form into
// one value set.
func (p *columnPlan) values(in EntryInput) ([]domain.EntryFieldValue, error) {
	values := make([]domain.EntryFieldValue, 0, len(in.FieldValues)+len(in.Translations)+1)
	for _, fv := range in.FieldValues {
		values = append(values, domain.EntryFieldValue{ColumnID: fv.ColumnID, Value: fv.Value})
	}
	if in.Term != nil {
		values = append(values, domain.EntryFieldValue{Column: p.primary(in.SourceLanguage), Value: *in.Term})
	}
	for _, tr := range in.Translations {
		column, err := p.language(tr.Language)
		if err != nil {
			return nil, err
		}
		values = append(values, domain.EntryFieldValue{Column: column, Value: tr.Text})
	}
	return values, nil
}

func (p *columnPlan) primary(sourceLanguage string) *domain.ListColumn {
	for i := range p.columns {
		if p.columns[i].IsPrimary {
			col := p.columns[i]
			return &col
		}
	}
	for _, col := range p.staged {
		if col.IsPrimary {
			return col
		}
	}

	lang := normalizeLanguage(sourceLanguage)
	if lang == "" {
		lang = domain.DefaultSourceLanguage
	}
	return p.stage(&domain.ListColumn{
		Name:         "Term",
		ColumnType:   domain.ColumnTypeLanguage,
		LanguageCode: lang,
		IsPrimary:    true,
	})
}

func (p *columnPlan) language(language string) (*domain.ListColumn, error) {
	lang := normalizeLanguage(language)
	if lang == "" {
		return nil, fmt.Errorf("%w: translation language is required", domain.ErrInvalidInput)
	}
	for i := range p.columns {
		if !p.columns[i].IsPrimary && normalizeLanguage(p.columns[i].LanguageCode) == lang {
			col := p.columns[i]
			return &col, nil
		}
	}
	for _, col := range p.staged {
		if !col.IsPrimary && col.LanguageCode == lang {
			return col, nil
		}
	}

	return p.stage(&domain.ListColumn{
		Name:         lang,
		ColumnType:   domain.ColumnTypeLanguage,
		LanguageCode: lang,
	}), nil
}

func (p *columnPlan) stage(col *domain.ListColumn) *domain.ListColumn {
	col.ListID = p.listID
	p.staged = append(p.staged, col)
	return col
}

func buildColumn(in NewColumn) (domain.ListColumn, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.ListColumn{}, fmt.Errorf("%w: column name is required", domain.ErrInvalidInput)
	}
	columnType := strings.TrimSpace(in.ColumnType)
	if columnType == "" {
		columnType = domain.ColumnTypeCustom
	}
	return domain.ListColumn{
		Name:         name,
		ColumnType:   columnType,
		LanguageCode: normalizeLanguage(in.LanguageCode),
		IsPrimary:    in.IsPrimary,
	}, nil
}

func sortColumns(columns []domain.ListColumn) {
	slices.SortFunc(columns, func(a, b domain.ListColumn) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
	})
}

func normalizeLanguage(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
