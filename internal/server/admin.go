package server

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wtsks/propsync/internal/config"
	"github.com/wtsks/propsync/internal/label"
	"github.com/wtsks/propsync/internal/listing"
	"github.com/wtsks/propsync/internal/model"
	"github.com/wtsks/propsync/internal/report"
	"github.com/wtsks/propsync/internal/synctool"
)

// Form field names used by the admin pages.
const (
	formNonce   = "_wpnonce"
	formTitle   = "post_title"
	formStatus  = "post_status"
	fieldPrefix = "es_property["

	saveListingAction = "save_listing"
)

// toolAction is the nonce action of a tool page form.
func toolAction(p config.Profile) string {
	return "run_" + p.Kind.String() + "_sync"
}

func toolTitle(p config.Profile) string {
	return cases.Title(language.English).String(p.Singular) + " Sync Tool"
}

type toolLink struct {
	Title     string
	URL       string
	Remaining int
}

type toolPageData struct {
	Title     string
	Profile   config.Profile
	BatchSize int
	Nonce     string
	Remaining int
	Ran       bool
	Messages  []string
	Status    string
	Error     string
}

func (s *Server) toolBySlug(slug string) (*synctool.Tool, bool) {
	for _, kind := range model.Kinds() {
		if s.cfg.Profile(kind).ToolSlug == slug {
			return s.tools[kind], true
		}
	}
	return nil, false
}

func (s *Server) adminIndex(c *gin.Context) {
	links := make([]toolLink, 0, len(s.tools))
	for _, kind := range model.Kinds() {
		p := s.cfg.Profile(kind)
		remaining, err := s.store.CountUnprocessed(c.Request.Context(), p.MarkerKey)
		if err != nil {
			s.internalError(c, "count listings failed", err)
			return
		}
		links = append(links, toolLink{
			Title:     toolTitle(p),
			URL:       "/admin/tools/" + p.ToolSlug,
			Remaining: remaining,
		})
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Tools": links})
}

func (s *Server) newToolPage(c *gin.Context, tool *synctool.Tool) (*toolPageData, error) {
	p := tool.Profile()
	nonce, err := s.nonces.Issue(toolAction(p))
	if err != nil {
		return nil, err
	}
	remaining, err := s.store.CountUnprocessed(c.Request.Context(), p.MarkerKey)
	if err != nil {
		return nil, err
	}
	return &toolPageData{
		Title:     toolTitle(p),
		Profile:   p,
		BatchSize: s.cfg.BatchSize,
		Nonce:     nonce,
		Remaining: remaining,
	}, nil
}

func (s *Server) toolPage(c *gin.Context) {
	tool, ok := s.toolBySlug(c.Param("slug"))
	if !ok {
		c.String(http.StatusNotFound, "unknown tool")
		return
	}
	data, err := s.newToolPage(c, tool)
	if err != nil {
		s.internalError(c, "render tool page failed", err)
		return
	}
	c.HTML(http.StatusOK, "tool.html", data)
}

func (s *Server) runTool(c *gin.Context) {
	tool, ok := s.toolBySlug(c.Param("slug"))
	if !ok {
		c.String(http.StatusNotFound, "unknown tool")
		return
	}
	p := tool.Profile()

	if err := s.nonces.Verify(c.PostForm(formNonce), toolAction(p)); err != nil {
		s.logger.Warn("rejected tool submission", "tool", p.ToolSlug, "error", err)
		data, perr := s.newToolPage(c, tool)
		if perr != nil {
			s.internalError(c, "render tool page failed", perr)
			return
		}
		data.Error = "The form has expired. Reload the page and try again."
		c.HTML(http.StatusForbidden, "tool.html", data)
		return
	}

	run, runErr := tool.RunBatch(c.Request.Context())

	data, err := s.newToolPage(c, tool)
	if err != nil {
		s.internalError(c, "render tool page failed", err)
		return
	}
	data.Ran = true
	if run != nil {
		data.Messages = report.Messages(p, run)
		data.Status = report.StatusMessage(run)
	}
	if runErr != nil {
		_ = c.Error(runErr)
		data.Error = "Sync stopped: " + runErr.Error()
		c.HTML(http.StatusInternalServerError, "tool.html", data)
		return
	}
	c.HTML(http.StatusOK, "tool.html", data)
}

type fieldRow struct {
	Name  string
	Value string
}

type selectionRow struct {
	Label       string
	FormName    string
	Stored      string
	Selected    string
	Placeholder string
}

type editorPageData struct {
	ID         int64
	Title      string
	Status     string
	Action     string
	Nonce      string
	Saved      bool
	Fields     []fieldRow
	Selections []selectionRow
	Choices    map[string]*ChoiceData
}

func (s *Server) editListing(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	sub := model.NewSubmission(0, "", nil)
	if id != 0 {
		var err error
		sub, err = s.listings.Edit(c.Request.Context(), id)
		if errors.Is(err, listing.ErrNotFound) {
			c.String(http.StatusNotFound, "listing not found")
			return
		}
		if err != nil {
			s.internalError(c, "load listing failed", err)
			return
		}
	}

	nonce, err := s.nonces.Issue(saveListingAction)
	if err != nil {
		s.internalError(c, "issue nonce failed", err)
		return
	}

	data := &editorPageData{
		ID:      sub.ListingID,
		Title:   sub.Title,
		Status:  sub.Status,
		Action:  "/admin/listings/new",
		Nonce:   nonce,
		Saved:   c.Query("saved") == "1",
		Choices: make(map[string]*ChoiceData),
	}
	if sub.ListingID != 0 {
		data.Action = fmt.Sprintf("/admin/listings/%d", sub.ListingID)
	}

	selection := make(map[string]bool)
	for _, kind := range model.Kinds() {
		cd, err := s.choiceData(c, kind)
		if err != nil {
			s.internalError(c, "load choices failed", err)
			return
		}
		data.Choices[kind.String()] = cd
		selection[cd.Field] = true

		stored := sub.Fields[cd.Field]
		data.Selections = append(data.Selections, selectionRow{
			Label:       cases.Title(language.English).String(s.cfg.Profile(kind).Singular),
			FormName:    fieldPrefix + cd.Field + "]",
			Stored:      stored,
			Selected:    label.Select(cd.Choices, stored),
			Placeholder: cd.Placeholder,
		})
	}

	for name, value := range sub.Fields {
		if selection[name] {
			continue
		}
		data.Fields = append(data.Fields, fieldRow{Name: name, Value: value})
	}
	sort.Slice(data.Fields, func(i, j int) bool { return data.Fields[i].Name < data.Fields[j].Name })

	c.HTML(http.StatusOK, "editor.html", data)
}

// formFields extracts es_property[name] values keyed by name.
func formFields(c *gin.Context) model.Fields {
	fields := make(model.Fields)
	for key, values := range c.Request.PostForm {
		name, ok := strings.CutPrefix(key, fieldPrefix)
		if !ok || !strings.HasSuffix(name, "]") || len(values) == 0 {
			continue
		}
		name = strings.TrimSuffix(name, "]")
		if name == "" {
			continue
		}
		fields[name] = values[0]
	}
	return fields
}

func (s *Server) saveListing(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}
	if err := s.nonces.Verify(c.PostForm(formNonce), saveListingAction); err != nil {
		c.String(http.StatusForbidden, "The form has expired. Reload the page and try again.")
		return
	}

	title := strings.TrimSpace(c.PostForm(formTitle))
	if title == "" {
		c.String(http.StatusBadRequest, "title required")
		return
	}
	if id != 0 {
		existing, err := s.store.GetListing(c.Request.Context(), id)
		if err != nil {
			s.internalError(c, "load listing failed", err)
			return
		}
		if existing == nil {
			c.String(http.StatusNotFound, "listing not found")
			return
		}
	}

	sub := model.NewSubmission(id, title, formFields(c))
	sub.Status = c.PostForm(formStatus)
	if _, err := s.listings.Save(c.Request.Context(), sub); err != nil {
		s.internalError(c, "save listing failed", err)
		return
	}

	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/admin/listings/%d/edit?saved=1", sub.ListingID))
}
