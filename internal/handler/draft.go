package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/OhMinsSup/solid-server-go/internal/middleware"
	"github.com/OhMinsSup/solid-server-go/internal/repository"
)

// DraftHandler exposes the owner-scoped draft endpoints. Every route is
// behind RequireUser; the repository additionally scopes each query to
// the owner so a foreign draft reads as missing.
type DraftHandler struct {
	Posts *repository.PostRepo
}

func NewDraftHandler(posts *repository.PostRepo) *DraftHandler {
	return &DraftHandler{Posts: posts}
}

type createDraftReq struct {
	Title string `json:"title"`
}

type saveDraftReq struct {
	ID              uint64 `json:"id"`
	Title           string `json:"title"`
	SubTitle        string `json:"subTitle"`
	Content         string `json:"content"`
	Description     string `json:"description"`
	Thumbnail       string `json:"thumbnail"`
	DisabledComment *bool  `json:"disabledComment"`
}

// List returns a page of the caller's drafts, newest first.
func (h *DraftHandler) List(c echo.Context) error {
	user := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.Posts.ListDrafts(ctx, user.ID,
		parseUint(c.QueryParam("cursor")), int(parseUint(c.QueryParam("limit"))))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "list drafts failed", "field": nil})
	}
	return c.JSON(http.StatusOK, toListResp(page))
}

// Detail returns one of the caller's drafts.
func (h *DraftHandler) Detail(c echo.Context) error {
	user := middleware.CurrentUser(c)
	id := parseUint(c.Param("id"))
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "invalid draft id", "field": "id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item, err := h.Posts.DraftByID(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "NOT_FOUND", "message": "draft not found", "field": nil})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "load draft failed", "field": nil})
	}
	return c.JSON(http.StatusOK, item)
}

// Create starts a new draft carrying only a title.
func (h *DraftHandler) Create(c echo.Context) error {
	var req createDraftReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "title required", "field": "title"})
	}
	user := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Posts.CreateDraft(ctx, user.ID, strings.TrimSpace(req.Title))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "create draft failed", "field": nil})
	}
	return c.JSON(http.StatusCreated, echo.Map{"dataId": id})
}

// SaveData overwrites the writable fields of an owned draft.
func (h *DraftHandler) SaveData(c echo.Context) error {
	var req saveDraftReq
	if err := c.Bind(&req); err != nil || req.ID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "draft id required", "field": "id"})
	}
	user := middleware.CurrentUser(c)

	in := repository.PostInput{
		Title:           req.Title,
		SubTitle:        req.SubTitle,
		Content:         req.Content,
		Description:     req.Description,
		Thumbnail:       req.Thumbnail,
		DisabledComment: true,
	}
	if req.DisabledComment != nil {
		in.DisabledComment = *req.DisabledComment
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Posts.SaveDraft(ctx, user.ID, req.ID, in); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "NOT_FOUND", "message": "draft not found", "field": nil})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "save draft failed", "field": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"dataId": req.ID})
}
