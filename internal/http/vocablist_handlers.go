package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vocab-manager/internal/auth"
	"vocab-manager/internal/domain"
	"vocab-manager/internal/service"
)

type columnRequest struct {
	Name         string `json:"name" binding:"required"`
	ColumnType   string `json:"column_type"`
	Position     *int   `json:"position"`
	LanguageCode string `json:"language_code"`
	IsPrimary    bool   `json:"is_primary"`
}

type createListRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Columns     []columnRequest `json:"columns" binding:"omitempty,dive"`
}

type updateListRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (r columnRequest) toInput() service.NewColumn {
	return service.NewColumn{
		Name:         r.Name,
		ColumnType:   r.ColumnType,
		Position:     r.Position,
		LanguageCode: r.LanguageCode,
		IsPrimary:    r.IsPrimary,
	}
}

func (h *Handler) createList(c *gin.Context) {
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	in := service.NewList{
		Name:        req.Name,
		Description: req.Description,
		Columns:     make([]service.NewColumn, len(req.Columns)),
	}
	for i := range req.Columns {
		in.Columns[i] = req.Columns[i].toInput()
	}

	list, err := h.vocab.CreateList(c.Request.Context(), mustUser(c).ID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listToResponse(*list))
}

func (h *Handler) listLists(c *gin.Context) {
	lists, err := h.vocab.ListLists(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]VocabListResponse, len(lists))
	for i := range lists {
		resp[i] = listToResponse(lists[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedList(c, id); !ok {
		return
	}

	list, err := h.vocab.GetList(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listToResponse(*list))
}

func (h *Handler) updateList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedList(c, id); !ok {
		return
	}

	var req updateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	list, err := h.vocab.UpdateList(c.Request.Context(), id, service.ListUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listToResponse(*list))
}

func (h *Handler) deleteList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, ok := h.ownedList(c, id)
	if !ok {
		return
	}

	if err := h.vocab.DeleteList(c.Request.Context(), list.ID); err != nil {
		h.writeError(c, err)
		return
	}

	resp := gin.H{"deleted": list.ID}
	if warnings := h.dropExports(c, list.ID); len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addColumn(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedList(c, id); !ok {
		return
	}

	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	column, err := h.vocab.AddColumn(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, columnToResponse(*column))
}

func (h *Handler) deleteColumn(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedColumn(c, id); !ok {
		return
	}

	if err := h.vocab.DeleteColumn(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) exportList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedList(c, id); !ok {
		return
	}
	if !h.exports.Enabled() {
		h.writeError(c, domain.ErrStorageDisabled)
		return
	}

	list, err := h.vocab.GetList(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	result, err := h.exports.Export(ctx, list)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExportResponse{Key: result.Key, Location: result.Location, URL: result.URL})
}

func (h *Handler) listExports(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedList(c, id); !ok {
		return
	}

	objects, err := h.exports.ListExports(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

// dropExports removes stored snapshots of deleted lists. Failures are
// reported as warnings; the lists are already gone.
func (h *Handler) dropExports(c *gin.Context, listIDs ...int64) []string {
	if !h.exports.Enabled() || len(listIDs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	var warnings []string
	for _, id := range listIDs {
		if err := h.exports.DeleteExports(ctx, id); err != nil {
			h.logger.WithError(err).WithField("list_id", id).Warn("delete list exports")
			warnings = append(warnings, fmt.Sprintf("delete exports of list %d: %v", id, err))
		}
	}
	return warnings
}

// ownedList loads the list row and writes 404/403 when it is missing or
// belongs to someone else.
func (h *Handler) ownedList(c *gin.Context, id int64) (*domain.VocabList, bool) {
	list, err := h.vocab.LookupList(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	if !auth.OwnsVocab(list.OwnerID, mustUser(c)) {
		h.writeError(c, domain.ErrForbidden)
		return nil, false
	}
	return list, true
}

func (h *Handler) ownedColumn(c *gin.Context, id int64) (*domain.ListColumn, bool) {
	column, err := h.vocab.GetColumn(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	if _, ok := h.ownedList(c, column.ListID); !ok {
		return nil, false
	}
	return column, true
}

func (h *Handler) ownedEntry(c *gin.Context, id int64) (*domain.VocabEntry, bool) {
	entry, err := h.vocab.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	if _, ok := h.ownedList(c, entry.ListID); !ok {
		return nil, false
	}
	return entry, true
}

func (h *Handler) ownedFieldValue(c *gin.Context, id int64) (*domain.EntryFieldValue, bool) {
	value, err := h.vocab.GetFieldValue(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	if _, ok := h.ownedEntry(c, value.EntryID); !ok {
		return nil, false
	}
	return value, true
}
