package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/OhMinsSup/solid-server-go/internal/middleware"
	"github.com/OhMinsSup/solid-server-go/internal/queue"
	"github.com/OhMinsSup/solid-server-go/internal/repository"
	queue_publisher "github.com/OhMinsSup/solid-server-go/internal/service"
)

// PostHandler bundles dependencies for post endpoints.
type PostHandler struct {
	Posts *repository.PostRepo
}

func NewPostHandler(posts *repository.PostRepo) *PostHandler {
	return &PostHandler{Posts: posts}
}

// ----- DTOs -----

type createPostReq struct {
	Title           string   `json:"title"`
	SubTitle        string   `json:"subTitle"`
	Content         string   `json:"content"`
	Description     string   `json:"description"`
	Thumbnail       string   `json:"thumbnail"`
	DisabledComment *bool    `json:"disabledComment"`
	IsPublic        *bool    `json:"isPublic"`
	PublishingDate  string   `json:"publishingDate"` // RFC3339, optional
	Tags            []string `json:"tags"`
}

type pageInfo struct {
	EndCursor   *uint64 `json:"endCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type listResp struct {
	List       []repository.PostItem `json:"list"`
	TotalCount int64                 `json:"totalCount"`
	PageInfo   pageInfo              `json:"pageInfo"`
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Create inserts a post for the current user. Publishing a public post
// also emits a post.published event; event failures never fail the write.
func (h *PostHandler) Create(c echo.Context) error {
	var req createPostReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "invalid body", "field": nil})
	}
	if strings.TrimSpace(req.Title) == "" || req.Content == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "title/content/description required", "field": nil})
	}

	in := repository.PostInput{
		Title:           req.Title,
		SubTitle:        req.SubTitle,
		Content:         req.Content,
		Description:     req.Description,
		Thumbnail:       req.Thumbnail,
		DisabledComment: true,
		IsPublic:        false,
		Tags:            req.Tags,
	}
	if req.DisabledComment != nil {
		in.DisabledComment = *req.DisabledComment
	}
	if req.IsPublic != nil {
		in.IsPublic = *req.IsPublic
	}
	if req.PublishingDate != "" {
		t, err := time.Parse(time.RFC3339, req.PublishingDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "publishingDate is not RFC3339", "field": "publishingDate"})
		}
		in.PublishingDate = &t
	}

	user := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Posts.Create(ctx, user.ID, in)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "create post failed", "field": nil})
	}

	if in.IsPublic {
		ev := queue.PostPublishedEvent{
			PostID:      id,
			UserID:      user.ID,
			Username:    user.Username,
			Title:       req.Title,
			Tags:        req.Tags,
			PublishedAt: time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			if err := queue_publisher.PublishPostPublished(context.Background(), ev); err != nil {
				log.Printf("post-handler: publish event failed: %v", err)
			}
		}()
	}

	return c.JSON(http.StatusCreated, echo.Map{"dataId": id})
}

// List returns a page of public posts. With type=past a yyyy-mm-dd date
// range filters created_at; the range covers the whole end day.
func (h *PostHandler) List(c echo.Context) error {
	q := repository.PostListQuery{
		Cursor: parseUint(c.QueryParam("cursor")),
		Limit:  int(parseUint(c.QueryParam("limit"))),
	}

	if c.QueryParam("type") == "past" {
		start := c.QueryParam("startDate")
		end := c.QueryParam("endDate")
		if !dateRe.MatchString(start) || !dateRe.MatchString(end) {
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "startDate or endDate is not yyyy-mm-dd format", "field": "datetime"})
		}
		d1, err1 := time.Parse("2006-01-02", start)
		d2, err2 := time.Parse("2006-01-02", end)
		if err1 != nil || err2 != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "startDate or endDate is not a valid date", "field": "datetime"})
		}
		d2 = d2.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		q.StartDate = &d1
		q.EndDate = &d2
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.Posts.List(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "list posts failed", "field": nil})
	}
	return c.JSON(http.StatusOK, toListResp(page))
}

// Detail returns one post with author, tags and like count.
func (h *PostHandler) Detail(c echo.Context) error {
	id := parseUint(c.Param("id"))
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "BAD_REQUEST", "message": "invalid post id", "field": "id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item, err := h.Posts.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "NOT_FOUND", "message": "post not found", "field": nil})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"code": "INTERNAL_ERROR", "message": "load post failed", "field": nil})
	}
	return c.JSON(http.StatusOK, item)
}

// toListResp mirrors the page into the wire shape; endCursor is null on
// the last page.
func toListResp(page repository.PostPage) listResp {
	resp := listResp{
		List:       page.List,
		TotalCount: page.TotalCount,
		PageInfo:   pageInfo{HasNextPage: page.HasNextPage},
	}
	if page.HasNextPage {
		cur := page.EndCursor
		resp.PageInfo.EndCursor = &cur
	}
	return resp
}

func parseUint(s string) uint64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
