package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"git.home.luguber.info/inful/sitepress/internal/browse"
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

const relatedCount = 3

type postDetail struct {
	wordpress.Post
	ReadingMinutes int              `json:"reading_minutes"`
	Related        []wordpress.Post `json:"related"`
}

type projectDetail struct {
	Project        wordpress.Project   `json:"project"`
	ReadingMinutes int                 `json:"reading_minutes"`
	Related        []wordpress.Project `json:"related"`
}

func (s *Server) listPosts(c *gin.Context) {
	page, perPage, ok := pagingParams(c)
	if !ok {
		return
	}
	category, ok1 := intParam(c, "category")
	tag, ok2 := intParam(c, "tag")
	if !ok1 || !ok2 {
		return
	}

	state := browse.StateFor(browse.Filter{CategoryID: category, TagID: tag, Search: c.Query("search")}, page)
	cached := s.cachedCategories()
	b := browse.NewPostBrowser(s.content,
		browse.WithPerPage(perPage),
		browse.WithState(state),
		browse.WithCategories(cached),
		browse.WithLogger(s.logger))

	view := b.Load(c.Request.Context())
	if view.Failed {
		s.upstreamFailure(c, "posts", view.Err)
		return
	}
	if cached == nil {
		s.storeCategories(view.Categories)
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getPost(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := s.content.GetPost(ctx, c.Param("slug"), true)
	if err != nil {
		s.upstreamFailure(c, "posts", err)
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	related, err := browse.NewPostBrowser(s.content).Related(ctx, *post, relatedCount)
	if err != nil {
		s.logger.WarnContext(ctx, "Related posts unavailable", logfields.Error(err))
	}
	if related == nil {
		related = []wordpress.Post{}
	}
	c.JSON(http.StatusOK, postDetail{Post: *post, ReadingMinutes: post.ReadingMinutes(), Related: related})
}

func (s *Server) listCategories(c *gin.Context) {
	terms, err := s.content.ListCategories(c.Request.Context(), 0)
	if err != nil {
		s.upstreamFailure(c, "categories", err)
		return
	}
	c.JSON(http.StatusOK, terms)
}

func (s *Server) listTags(c *gin.Context) {
	terms, err := s.content.ListTags(c.Request.Context(), 0)
	if err != nil {
		s.upstreamFailure(c, "tags", err)
		return
	}
	c.JSON(http.StatusOK, terms)
}

func (s *Server) listProjects(c *gin.Context) {
	page, perPage, ok := pagingParams(c)
	if !ok {
		return
	}
	category, ok1 := intParam(c, "category")
	technology, ok2 := intParam(c, "technology")
	if !ok1 || !ok2 {
		return
	}
	q := browse.CatalogQuery{
		CategoryID:   category,
		TechnologyID: technology,
		Search:       c.Query("search"),
		Page:         page,
		PerPage:      perPage,
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "featured must be true or false")
			return
		}
		q.Featured = &featured
	}

	result, err := s.catalog.Query(c.Request.Context(), q)
	if err != nil {
		s.upstreamFailure(c, "project", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) getProject(c *gin.Context) {
	ctx := c.Request.Context()
	project, err := s.content.GetProject(ctx, c.Param("slug"), true)
	if err != nil {
		s.upstreamFailure(c, "project", err)
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	related, err := s.catalog.Related(ctx, *project, relatedCount)
	if err != nil {
		s.logger.WarnContext(ctx, "Related projects unavailable", logfields.Error(err))
	}
	if related == nil {
		related = []wordpress.Project{}
	}
	c.JSON(http.StatusOK, projectDetail{Project: *project, ReadingMinutes: project.ReadingMinutes(), Related: related})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run log not configured"})
		return
	}
	limit, ok := intParam(c, "limit")
	if !ok {
		return
	}
	runs, err := s.runs.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(c.Request.Context(), "Reading run log failed", logfields.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read run log"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

// upstreamFailure maps CMS failures to 502, except for rejected input.
func (s *Server) upstreamFailure(c *gin.Context, resource string, err error) {
	switch status := statusFor(err); status {
	case http.StatusBadGateway:
		s.logger.WarnContext(c.Request.Context(), "Upstream request failed",
			logfields.Resource(resource), logfields.Error(err))
		c.JSON(status, gin.H{"error": browse.FailedMessage})
	default:
		c.JSON(status, gin.H{"error": errorMessage(err)})
	}
}

func errorMessage(err error) string {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.Message()
	}
	return err.Error()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func pagingParams(c *gin.Context) (page, perPage int, ok bool) {
	if page, ok = intParam(c, "page"); !ok {
		return 0, 0, false
	}
	if perPage, ok = intParam(c, "per_page"); !ok {
		return 0, 0, false
	}
	if perPage > wordpress.MaxPerPage {
		badRequest(c, "per_page must be between 1 and 100")
		return 0, 0, false
	}
	if perPage == 0 {
		perPage = browse.DefaultPerPage
	}
	return max(page, 1), perPage, true
}

// intParam reads a non-negative integer query parameter; absent means 0.
func intParam(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
