package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wtsks/propsync/internal/display"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/listing"
	"github.com/wtsks/propsync/internal/model"
	"github.com/wtsks/propsync/internal/report"
	"github.com/wtsks/propsync/internal/shortcode"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func (s *Server) health(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.store.CountUnprocessed(ctx, s.cfg.Profile(model.KindBuilder).MarkerKey); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// kindParam parses the :kind path parameter, answering 404 when unknown.
func kindParam(c *gin.Context) (model.Kind, bool) {
	kind, err := model.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", false
	}
	return kind, true
}

// idParam parses the :id path parameter. "new" yields zero.
func idParam(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	if raw == "new" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = min(n, maxPageSize)
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		offset = n
	}
	return limit, offset
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	if err == nil {
		err = errors.New(msg)
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func (s *Server) listEntities(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	entities, err := s.store.ListEntities(c.Request.Context(), kind)
	if err != nil {
		s.internalError(c, "list entities failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "entities": entities})
}

func (s *Server) saveEntity(c *gin.Context) {
	var e model.Entity
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	e.Title = strings.TrimSpace(e.Title)
	e.AlternateTitle = strings.TrimSpace(e.AlternateTitle)
	if e.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	if !e.Kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrUnknownKind.Error()})
		return
	}

	ctx := c.Request.Context()
	var previous *model.Entity
	if e.ID != 0 {
		var err error
		if previous, err = s.store.GetEntity(ctx, e.ID); err != nil {
			s.internalError(c, "load entity failed", err)
			return
		}
	}

	id, err := s.store.UpsertEntity(ctx, &e)
	if err != nil {
		s.internalError(c, "save entity failed", err)
		return
	}
	s.labels.Invalidate(e.Kind)
	if previous != nil && previous.Kind != e.Kind {
		s.labels.Invalidate(previous.Kind)
	}

	stored, err := s.store.GetEntity(ctx, id)
	if err != nil || stored == nil {
		s.internalError(c, "load entity failed", err)
		return
	}

	status := http.StatusOK
	if previous == nil {
		status = http.StatusCreated
	}
	c.JSON(status, stored)
}

func (s *Server) deleteEntity(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	e, err := s.store.GetEntity(ctx, id)
	if err != nil {
		s.internalError(c, "load entity failed", err)
		return
	}
	if e == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
		return
	}
	if err := s.store.DeleteEntity(ctx, id); err != nil {
		s.internalError(c, "delete entity failed", err)
		return
	}
	s.labels.Invalidate(e.Kind)
	c.Status(http.StatusNoContent)
}

func (s *Server) getLabels(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	m, err := s.labels.Get(c.Request.Context(), kind)
	if err != nil {
		s.internalError(c, "load labels failed", err)
		return
	}
	c.JSON(http.StatusOK, report.NewLabelReport(kind, m))
}

// ChoiceData is the editor dropdown payload for one kind.
type ChoiceData struct {
	Field       string         `json:"field"`
	Placeholder string         `json:"placeholder"`
	Choices     []label.Choice `json:"choices"`
	Selectors   []string       `json:"selectors"`
}

func (s *Server) choiceData(c *gin.Context, kind model.Kind) (*ChoiceData, error) {
	entities, err := s.store.ListPublishedEntities(c.Request.Context(), kind)
	if err != nil {
		return nil, err
	}
	p := s.cfg.Profile(kind)
	return &ChoiceData{
		Field:       p.SelectionField,
		Placeholder: p.Placeholder,
		Choices:     label.Choices(entities),
		Selectors: []string{
			`select[name="` + p.SelectionField + `"]`,
			`select[name$="[` + p.SelectionField + `]"]`,
		},
	}, nil
}

func (s *Server) getChoices(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	data, err := s.choiceData(c, kind)
	if err != nil {
		s.internalError(c, "load choices failed", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) listListings(c *gin.Context) {
	limit, offset := pageParams(c)
	listings, err := s.store.ListListings(c.Request.Context(), limit, offset)
	if err != nil {
		s.internalError(c, "list listings failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "limit": limit, "offset": offset})
}

func (s *Server) getListing(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	l, err := s.listings.Get(c.Request.Context(), id)
	if errors.Is(err, listing.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	if err != nil {
		s.internalError(c, "load listing failed", err)
		return
	}
	c.JSON(http.StatusOK, listingView{Listing: l, Badges: display.BadgeTerms(nil, []string{l.Status})})
}

// listingView is a listing with the badges its card shows.
type listingView struct {
	*model.Listing
	Badges []string `json:"badges"`
}

// listingRequest is a listing save. Fields are keyed by editor field name.
type listingRequest struct {
	Title  string       `json:"title" binding:"required"`
	Status string       `json:"status"`
	Fields model.Fields `json:"fields"`
}

func (s *Server) createListing(c *gin.Context) {
	s.writeListing(c, 0, http.StatusCreated)
}

func (s *Server) updateListing(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	existing, err := s.store.GetListing(c.Request.Context(), id)
	if err != nil {
		s.internalError(c, "load listing failed", err)
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	s.writeListing(c, id, http.StatusOK)
}

func (s *Server) writeListing(c *gin.Context, id int64, status int) {
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing: " + err.Error()})
		return
	}

	sub := model.NewSubmission(id, strings.TrimSpace(req.Title), req.Fields)
	sub.Status = req.Status
	l, err := s.listings.Save(c.Request.Context(), sub)
	if err != nil {
		s.internalError(c, "save listing failed", err)
		return
	}

	c.JSON(status, gin.H{
		"listing":  l,
		"autofill": sub.Autofill,
		"errors":   sub.Errors,
	})
}

func (s *Server) runSync(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	tool := s.tools[kind]
	ctx := c.Request.Context()

	if c.Query("all") == "1" || c.Query("all") == "true" {
		runs, err := tool.RunAll(ctx)
		reports := make([]*report.RunReport, 0, len(runs))
		for _, run := range runs {
			reports = append(reports, report.NewRunReport(run, s.cfg.Profile))
		}
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed", "runs": reports})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": reports})
		return
	}

	run, err := tool.RunBatch(ctx)
	if err != nil {
		_ = c.Error(err)
		body := gin.H{"error": "sync failed"}
		if run != nil {
			body["run"] = report.NewRunReport(run, s.cfg.Profile)
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(http.StatusOK, report.NewRunReport(run, s.cfg.Profile))
}

func (s *Server) listRuns(c *gin.Context) {
	var kind model.Kind
	if raw := c.Query("kind"); raw != "" {
		k, err := model.ParseKind(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		kind = k
	}
	limit, _ := pageParams(c)

	runs, err := s.store.ListRuns(c.Request.Context(), kind, limit)
	if err != nil {
		s.internalError(c, "list runs failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, "load run failed", err)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, report.NewRunReport(run, s.cfg.Profile))
}

// renderRequest is page content to expand and filter.
type renderRequest struct {
	Template string `json:"template"`
	Title    string `json:"title"`
	Address  string `json:"address"`
	Content  string `json:"content"`
}

func (s *Server) render(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	content, err := s.expander.Expand(c.Request.Context(), shortcode.Page{Title: req.Title, Address: req.Address}, req.Content)
	if err != nil {
		s.internalError(c, "shortcode expansion failed", err)
		return
	}
	content, err = s.display.Process(req.Template, content)
	if err != nil {
		s.internalError(c, "display filters failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}
