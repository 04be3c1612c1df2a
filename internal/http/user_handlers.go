package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"vocab-manager/internal/auth"
	"vocab-manager/internal/domain"
	"vocab-manager/internal/service"
)

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
}

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type updateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Firstname *string `json:"firstname"`
	Avatar    *string `json:"avatar"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
	Password  *string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		Firstname: req.Firstname,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

// login accepts the OAuth2 password form as well as JSON.
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.WithField("user", user.Username).Info("user logged in")
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) me(c *gin.Context) {
	user := mustUser(c)
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) changeOwnPassword(c *gin.Context) {
	h.changePassword(c, mustUser(c).ID)
}

func (h *Handler) changeUserPassword(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.changePassword(c, id)
}

func (h *Handler) changePassword(c *gin.Context, id int64) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), mustUser(c), id, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "password updated"})
}

func (h *Handler) listUsers(c *gin.Context) {
	if err := auth.RequireAdmin(mustUser(c)); err != nil {
		h.writeError(c, err)
		return
	}

	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !auth.CanManageUser(id, mustUser(c)) {
		h.writeError(c, domain.ErrForbidden)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor := mustUser(c)
	if !auth.CanManageUser(id, actor) {
		h.writeError(c, domain.ErrForbidden)
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if req.Password != nil {
		h.writeError(c, fmt.Errorf("%w: use the password endpoint to change passwords", domain.ErrInvalidInput))
		return
	}

	upd := service.UserUpdate{
		Username:  req.Username,
		Email:     req.Email,
		Firstname: req.Firstname,
		Avatar:    req.Avatar,
		IsActive:  req.IsActive,
	}
	if req.Role != nil {
		role, ok := domain.ParseRole(*req.Role)
		if !ok {
			writeDetail(c, http.StatusUnprocessableEntity, fmt.Sprintf("unknown role %q", *req.Role))
			return
		}
		upd.Role = &role
	}

	user, err := h.users.Update(c.Request.Context(), actor, id, upd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) activateUser(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) deactivateUser(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.SetActive(c.Request.Context(), mustUser(c), id, active)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor := mustUser(c)

	// collect list ids first so their exports can go with the user
	var listIDs []int64
	if actor.IsAdmin() && actor.ID != id && h.exports.Enabled() {
		lists, err := h.vocab.ListLists(c.Request.Context(), id)
		if err != nil {
			h.writeError(c, err)
			return
		}
		for _, l := range lists {
			listIDs = append(listIDs, l.ID)
		}
	}

	if err := h.users.Delete(c.Request.Context(), actor, id); err != nil {
		h.writeError(c, err)
		return
	}

	resp := gin.H{"deleted": id}
	if warnings := h.dropExports(c, listIDs...); len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}
