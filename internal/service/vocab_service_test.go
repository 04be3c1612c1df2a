package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"vocab-manager/internal/domain"
)

func setupVocab(t *testing.T) (VocabService, *domain.User) {
	t.Helper()

	db := newTestDB(t)
	owner, err := newUserService(db).Register(context.Background(), RegisterInput{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	return newVocabService(db), owner
}

func valuesByColumn(entry *domain.VocabEntry) map[int64]string {
	out := make(map[int64]string, len(entry.Values))
	for _, v := range entry.Values {
		out[v.ColumnID] = v.Value
	}
	return out
}

func TestCreateListColumnPositions(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{
		Name: "Medizin",
		Columns: []NewColumn{
			{Name: "Begriff", IsPrimary: true},
			{Name: "Definition", ColumnType: domain.ColumnTypeDefinition, Position: intPtr(5)},
			{Name: "Beispiel", ColumnType: domain.ColumnTypeExample},
		},
	})
	require.NoError(t, err)
	require.Len(t, list.Columns, 3)
	require.Equal(t, "Begriff", list.Columns[0].Name)
	require.Equal(t, "Beispiel", list.Columns[1].Name)
	require.Equal(t, 2, list.Columns[1].Position)
	require.Equal(t, "Definition", list.Columns[2].Name)
	require.Equal(t, domain.ColumnTypeCustom, list.Columns[0].ColumnType)

	_, err = svc.CreateList(ctx, owner.ID, NewList{Name: "  "})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.CreateList(ctx, owner.ID, NewList{Name: "x", Columns: []NewColumn{{Name: ""}}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateListIsPartial(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{Name: "Spanisch", Description: "Urlaub"})
	require.NoError(t, err)

	updated, err := svc.UpdateList(ctx, list.ID, ListUpdate{Name: strPtr("Español")})
	require.NoError(t, err)
	require.Equal(t, "Español", updated.Name)
	require.Equal(t, "Urlaub", updated.Description)

	_, err = svc.UpdateList(ctx, list.ID, ListUpdate{Name: strPtr("")})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateList(ctx, 999, ListUpdate{Name: strPtr("x")})
	require.ErrorIs(t, err, domain.ErrListNotFound)
}

func TestTermAndTranslationsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{Name: "Spanisch"})
	require.NoError(t, err)

	entry, err := svc.CreateEntry(ctx, list.ID, EntryInput{
		Term: strPtr("Haus"),
		Translations: []TranslationInput{
			{Text: "house", Language: "en"},
			{Text: "casa", Language: "es"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 0, entry.Position)

	full, err := svc.GetList(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, full.Columns, 3)
	require.Len(t, full.Entries, 1)

	primary, ok := full.PrimaryColumn()
	require.True(t, ok)
	require.Equal(t, domain.DefaultSourceLanguage, primary.LanguageCode)
	require.Equal(t, domain.ColumnTypeLanguage, primary.ColumnType)

	values := full.Entries[0].Values
	require.Len(t, values, 3)
	require.Equal(t, "Haus", values[0].Value)
	require.Equal(t, "house", values[1].Value)
	require.Equal(t, "casa", values[2].Value)

	// a second entry reuses the columns created on demand
	second, err := svc.CreateEntry(ctx, list.ID, EntryInput{
		Term:         strPtr("Baum"),
		Translations: []TranslationInput{{Text: "tree", Language: "EN"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, second.Position)

	columns, err := svc.ListColumns(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, columns, 3)
}

func TestUpdateEntryReplacesValueSet(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{
		Name: "Medizin",
		Columns: []NewColumn{
			{Name: "Begriff", IsPrimary: true},
			{Name: "Synonym"},
			{Name: "Definition"},
			{Name: "Beispiel"},
		},
	})
	require.NoError(t, err)
	cols := list.Columns

	entry, err := svc.CreateEntry(ctx, list.ID, EntryInput{FieldValues: []FieldValueInput{
		{ColumnID: cols[0].ID, Value: "Analgetikum"},
		{ColumnID: cols[1].ID, Value: "Schmerzmittel"},
		{ColumnID: cols[2].ID, Value: "Medikament zur Schmerzlinderung"},
		{ColumnID: cols[3].ID, Value: "Wird bei Kopfschmerzen eingesetzt"},
	}})
	require.NoError(t, err)
	require.Len(t, entry.Values, 4)

	updated, err := svc.UpdateEntry(ctx, entry.ID, EntryInput{FieldValues: []FieldValueInput{
		{ColumnID: cols[0].ID, Value: "Analgetikum (aktualisiert)"},
		{ColumnID: cols[2].ID, Value: "Neue Definition"},
	}})
	require.NoError(t, err)
	require.Len(t, updated.Values, 2)
	got := valuesByColumn(updated)
	require.Equal(t, "Analgetikum (aktualisiert)", got[cols[0].ID])
	require.Equal(t, "Neue Definition", got[cols[2].ID])

	cleared, err := svc.UpdateEntry(ctx, entry.ID, EntryInput{FieldValues: []FieldValueInput{}})
	require.NoError(t, err)
	require.Empty(t, cleared.Values)

	moved, err := svc.UpdateEntry(ctx, entry.ID, EntryInput{Position: intPtr(7)})
	require.NoError(t, err)
	require.Equal(t, 7, moved.Position)
}

func TestUpdateEntryWithTermOnlyKeepsTranslations(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{Name: "Spanisch"})
	require.NoError(t, err)
	entry, err := svc.CreateEntry(ctx, list.ID, EntryInput{
		Term:         strPtr("Haus"),
		Translations: []TranslationInput{{Text: "casa", Language: "es"}},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateEntry(ctx, entry.ID, EntryInput{Term: strPtr("Gebäude")})
	require.NoError(t, err)
	require.Len(t, updated.Values, 2)
	require.Equal(t, "Gebäude", updated.Values[0].Value)
	require.Equal(t, "casa", updated.Values[1].Value)

	// term on an entry that had none adds the value
	bare, err := svc.CreateEntry(ctx, list.ID, EntryInput{})
	require.NoError(t, err)
	withTerm, err := svc.UpdateEntry(ctx, bare.ID, EntryInput{Term: strPtr("Baum")})
	require.NoError(t, err)
	require.Len(t, withTerm.Values, 1)
	require.Equal(t, "Baum", withTerm.Values[0].Value)
}

func TestCreateEntryRejectsColumnOfAnotherList(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	a, err := svc.CreateList(ctx, owner.ID, NewList{Name: "A", Columns: []NewColumn{{Name: "Term", IsPrimary: true}}})
	require.NoError(t, err)
	b, err := svc.CreateList(ctx, owner.ID, NewList{Name: "B", Columns: []NewColumn{{Name: "Term", IsPrimary: true}}})
	require.NoError(t, err)

	_, err = svc.CreateEntry(ctx, a.ID, EntryInput{FieldValues: []FieldValueInput{
		{ColumnID: a.Columns[0].ID, Value: "ok"},
		{ColumnID: b.Columns[0].ID, Value: "foreign"},
	}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	entries, err := svc.ListEntries(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = svc.CreateEntry(ctx, 999, EntryInput{})
	require.ErrorIs(t, err, domain.ErrListNotFound)
}

func TestTranslationOperations(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{Name: "Spanisch"})
	require.NoError(t, err)
	entry, err := svc.CreateEntry(ctx, list.ID, EntryInput{Term: strPtr("Haus")})
	require.NoError(t, err)

	added, err := svc.AddTranslation(ctx, entry.ID, TranslationInput{Text: "house", Language: "en"})
	require.NoError(t, err)

	_, err = svc.AddTranslation(ctx, entry.ID, TranslationInput{Text: "x"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	moved, err := svc.UpdateTranslation(ctx, added.ID, TranslationUpdate{Text: strPtr("maison"), Language: strPtr("fr")})
	require.NoError(t, err)
	require.Equal(t, "maison", moved.Value)
	require.NotEqual(t, added.ColumnID, moved.ColumnID)

	column, err := svc.GetColumn(ctx, moved.ColumnID)
	require.NoError(t, err)
	require.Equal(t, "fr", column.LanguageCode)
	require.False(t, column.IsPrimary)

	require.NoError(t, svc.DeleteFieldValue(ctx, added.ID))
	_, err = svc.GetFieldValue(ctx, added.ID)
	require.ErrorIs(t, err, domain.ErrFieldValueNotFound)
}

func TestEntryTable(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{Name: "Spanisch"})
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, list.ID, EntryInput{
		Term: strPtr("Haus"),
		Translations: []TranslationInput{
			{Text: "house", Language: "en"},
			{Text: "casa", Language: "es"},
		},
	})
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, list.ID, EntryInput{Term: strPtr("Baum")})
	require.NoError(t, err)
	note, err := svc.AddColumn(ctx, list.ID, NewColumn{Name: "Notiz"})
	require.NoError(t, err)
	require.Equal(t, 3, note.Position)

	rows, err := svc.EntryTable(ctx, list.ID, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Haus", rows[0]["term"])
	require.Equal(t, "de", rows[0]["source_language"])
	require.Equal(t, "house", rows[0]["en"])
	require.Equal(t, "casa", rows[0]["es"])
	require.Equal(t, "", rows[0]["Notiz"])
	require.Equal(t, "Baum", rows[1]["term"])
	require.Equal(t, "", rows[1]["en"])

	filtered, err := svc.EntryTable(ctx, list.ID, []string{"ES"})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	require.Equal(t, "casa", filtered[0]["es"])
	require.NotContains(t, filtered[0], "en")
	require.NotContains(t, filtered[0], "Notiz")
	require.Contains(t, filtered[0], "term")
}

func TestDeleteListAndColumn(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{Name: "Spanisch"})
	require.NoError(t, err)
	entry, err := svc.CreateEntry(ctx, list.ID, EntryInput{
		Term:         strPtr("Haus"),
		Translations: []TranslationInput{{Text: "house", Language: "en"}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteColumn(ctx, entry.Values[1].ColumnID))
	got, err := svc.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, got.Values, 1)

	require.NoError(t, svc.DeleteEntry(ctx, entry.ID))
	require.ErrorIs(t, svc.DeleteEntry(ctx, entry.ID), domain.ErrEntryNotFound)

	require.NoError(t, svc.DeleteList(ctx, list.ID))
	_, err = svc.GetList(ctx, list.ID)
	require.ErrorIs(t, err, domain.ErrListNotFound)

	lists, err := svc.ListLists(ctx, owner.ID)
	require.NoError(t, err)
	require.Empty(t, lists)
}

func TestCreateEntryWithTermLeavesNothingOnRejection(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	a, err := svc.CreateList(ctx, owner.ID, NewList{Name: "A"})
	require.NoError(t, err)
	b, err := svc.CreateList(ctx, owner.ID, NewList{Name: "B", Columns: []NewColumn{{Name: "Term", IsPrimary: true}}})
	require.NoError(t, err)

	_, err = svc.CreateEntry(ctx, a.ID, EntryInput{
		Term:         strPtr("Haus"),
		Translations: []TranslationInput{{Text: "house", Language: "en"}},
		FieldValues:  []FieldValueInput{{ColumnID: b.Columns[0].ID, Value: "foreign"}},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	columns, err := svc.ListColumns(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, columns)
	entries, err := svc.ListEntries(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUpdateEntryLeavesEntryUntouchedOnRejection(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	a, err := svc.CreateList(ctx, owner.ID, NewList{Name: "A"})
	require.NoError(t, err)
	b, err := svc.CreateList(ctx, owner.ID, NewList{Name: "B", Columns: []NewColumn{{Name: "Term", IsPrimary: true}}})
	require.NoError(t, err)
	entry, err := svc.CreateEntry(ctx, a.ID, EntryInput{
		Term:         strPtr("Haus"),
		Translations: []TranslationInput{{Text: "casa", Language: "es"}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateEntry(ctx, entry.ID, EntryInput{
		Term:         strPtr("Gebäude"),
		Translations: []TranslationInput{{Text: "maison", Language: "fr"}},
		FieldValues:  []FieldValueInput{{ColumnID: b.Columns[0].ID, Value: "foreign"}},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateEntry(ctx, entry.ID, EntryInput{
		Translations: []TranslationInput{{Text: "house", Language: "en"}},
		Position:     intPtr(-1),
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	columns, err := svc.ListColumns(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, columns, 2)

	got, err := svc.GetEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Position)
	require.Len(t, got.Values, 2)
	require.Equal(t, "Haus", got.Values[0].Value)
	require.Equal(t, "casa", got.Values[1].Value)
}

func TestRepeatedLanguageSharesOneColumn(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{Name: "Englisch"})
	require.NoError(t, err)
	entry, err := svc.CreateEntry(ctx, list.ID, EntryInput{
		Term: strPtr("Haus"),
		Translations: []TranslationInput{
			{Text: "house", Language: "en"},
			{Text: "home", Language: " EN "},
		},
	})
	require.NoError(t, err)
	require.Len(t, entry.Values, 3)
	require.Equal(t, entry.Values[1].ColumnID, entry.Values[2].ColumnID)

	columns, err := svc.ListColumns(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, columns, 2)
}

func TestEntryTableKeysDoNotCollide(t *testing.T) {
	ctx := context.Background()
	svc, owner := setupVocab(t)

	list, err := svc.CreateList(ctx, owner.ID, NewList{
		Name: "Wörter",
		Columns: []NewColumn{
			{Name: "Wort", IsPrimary: true, LanguageCode: "de"},
			{Name: "term"},
			{Name: "Notiz"},
			{Name: "Notiz"},
		},
	})
	require.NoError(t, err)
	cols := list.Columns

	_, err = svc.CreateEntry(ctx, list.ID, EntryInput{FieldValues: []FieldValueInput{
		{ColumnID: cols[0].ID, Value: "Haus"},
		{ColumnID: cols[1].ID, Value: "a building"},
		{ColumnID: cols[2].ID, Value: "erste"},
		{ColumnID: cols[3].ID, Value: "zweite"},
	}})
	require.NoError(t, err)

	rows, err := svc.EntryTable(ctx, list.ID, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Haus", rows[0]["term"])
	require.Equal(t, "de", rows[0]["source_language"])
	require.Equal(t, "a building", rows[0][fmt.Sprintf("term_%d", cols[1].ID)])
	require.Equal(t, "erste", rows[0]["Notiz"])
	require.Equal(t, "zweite", rows[0][fmt.Sprintf("Notiz_%d", cols[3].ID)])
}
