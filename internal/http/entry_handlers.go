package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vocab-manager/internal/domain"
	"vocab-manager/internal/service"
)

type fieldValueRequest struct {
	ColumnID int64  `json:"column_id" binding:"required"`
	Value    string `json:"value"`
}

type translationRequest struct {
	Text     string `json:"text"`
	Language string `json:"language" binding:"required"`
}

type entryRequest struct {
	FieldValues    []fieldValueRequest  `json:"field_values" binding:"omitempty,dive"`
	Term           *string              `json:"term"`
	SourceLanguage string               `json:"source_language"`
	Translations   []translationRequest `json:"translations" binding:"omitempty,dive"`
	Position       *int                 `json:"position"`
}

type createEntryRequest struct {
	VocabListID int64 `json:"vocab_list_id" binding:"required"`
	entryRequest
}

type updateTranslationRequest struct {
	Text     *string `json:"text"`
	Language *string `json:"language"`
}

func (r entryRequest) toInput() service.EntryInput {
	in := service.EntryInput{
		Term:           r.Term,
		SourceLanguage: r.SourceLanguage,
		Position:       r.Position,
	}
	if r.FieldValues != nil {
		in.FieldValues = make([]service.FieldValueInput, len(r.FieldValues))
		for i, fv := range r.FieldValues {
			in.FieldValues[i] = service.FieldValueInput{ColumnID: fv.ColumnID, Value: fv.Value}
		}
	}
	if r.Translations != nil {
		in.Translations = make([]service.TranslationInput, len(r.Translations))
		for i, tr := range r.Translations {
			in.Translations[i] = service.TranslationInput{Text: tr.Text, Language: tr.Language}
		}
	}
	return in
}

func (h *Handler) createEntry(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if _, ok := h.ownedList(c, req.VocabListID); !ok {
		return
	}

	entry, err := h.vocab.CreateEntry(c.Request.Context(), req.VocabListID, req.entryRequest.toInput())
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondEntry(c, entry)
}

func (h *Handler) listOwnEntries(c *gin.Context) {
	user := mustUser(c)
	lists, err := h.vocab.ListLists(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	entries, err := h.vocab.ListEntriesByOwner(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	columns := make(map[int64][]domain.ListColumn, len(lists))
	for _, l := range lists {
		columns[l.ID] = l.Columns
	}
	resp := make([]EntryResponse, len(entries))
	for i := range entries {
		resp[i] = entryToResponse(entries[i], columns[entries[i].ListID])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listEntries(c *gin.Context) {
	listID, ok := parseID(c, "listId")
	if !ok {
		return
	}
	if _, ok := h.ownedList(c, listID); !ok {
		return
	}

	columns, err := h.vocab.ListColumns(c.Request.Context(), listID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	entries, err := h.vocab.ListEntries(c.Request.Context(), listID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]EntryResponse, len(entries))
	for i := range entries {
		resp[i] = entryToResponse(entries[i], columns)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) entryTable(c *gin.Context) {
	listID, err := strconv.ParseInt(c.Query("vocab_list_id"), 10, 64)
	if err != nil || listID <= 0 {
		writeDetail(c, http.StatusUnprocessableEntity, "vocab_list_id query parameter is required")
		return
	}
	if _, ok := h.ownedList(c, listID); !ok {
		return
	}

	var langs []string
	for _, raw := range c.QueryArray("langs") {
		for _, lang := range strings.Split(raw, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				langs = append(langs, lang)
			}
		}
	}

	rows, err := h.vocab.EntryTable(c.Request.Context(), listID, langs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) getEntry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entry, ok := h.ownedEntry(c, id)
	if !ok {
		return
	}
	h.respondEntry(c, entry)
}

func (h *Handler) updateEntry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedEntry(c, id); !ok {
		return
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	entry, err := h.vocab.UpdateEntry(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondEntry(c, entry)
}

func (h *Handler) deleteEntry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedEntry(c, id); !ok {
		return
	}

	if err := h.vocab.DeleteEntry(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) addTranslation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedEntry(c, id); !ok {
		return
	}

	var req translationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	value, err := h.vocab.AddTranslation(c.Request.Context(), id, service.TranslationInput{Text: req.Text, Language: req.Language})
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondTranslation(c, value)
}

func (h *Handler) updateTranslation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedFieldValue(c, id); !ok {
		return
	}

	var req updateTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	value, err := h.vocab.UpdateTranslation(c.Request.Context(), id, service.TranslationUpdate{Text: req.Text, Language: req.Language})
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondTranslation(c, value)
}

func (h *Handler) deleteTranslation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedFieldValue(c, id); !ok {
		return
	}

	if err := h.vocab.DeleteFieldValue(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) respondEntry(c *gin.Context, entry *domain.VocabEntry) {
	columns, err := h.vocab.ListColumns(c.Request.Context(), entry.ListID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryToResponse(*entry, columns))
}

func (h *Handler) respondTranslation(c *gin.Context, value *domain.EntryFieldValue) {
	column, err := h.vocab.GetColumn(c.Request.Context(), value.ColumnID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        value.ID,
		"entry_id":  value.EntryID,
		"column_id": value.ColumnID,
		"text":      value.Value,
		"language":  column.Key(),
	})
}
