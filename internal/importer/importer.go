package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/wtsks/propsync/internal/model"
)

// Reserved listing columns. Every other column is an editor field.
const (
	columnID     = "id"
	columnTitle  = "title"
	columnStatus = "status"
)

// alternateColumns are accepted spellings of the alternate title column.
var alternateColumns = []string{"alternate_title", "alternate", "legal_name", "cf_legalname_alternate_title"}

// EntityStore is the persistence entity imports need.
type EntityStore interface {
	UpsertEntity(ctx context.Context, e *model.Entity) (int64, error)
	FindEntityByTitle(ctx context.Context, kind model.Kind, title string) (*model.Entity, error)
}

// ListingSaver saves a listing submission through the save hooks.
// *listing.Service satisfies it.
type ListingSaver interface {
	Save(ctx context.Context, sub *model.Submission) (*model.Listing, error)
}

// Result summarizes one import.
type Result struct {
	// Created and Updated count stored rows.
	Created int `json:"created"`
	Updated int `json:"updated"`

	// Skipped counts rows without a title.
	Skipped int `json:"skipped"`

	// Autofilled counts listings whose selections the save hooks filled.
	Autofilled int `json:"autofilled,omitempty"`

	// Warnings holds save-hook errors, prefixed with the CSV line.
	Warnings []string `json:"warnings,omitempty"`
}

// Importer reads CSV input into the store.
type Importer struct {
	entities EntityStore
	listings ListingSaver
	logger   *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// New creates an Importer. Either collaborator may be nil when only the
// other kind of import is used.
func New(entities EntityStore, listings ListingSaver, opts ...Option) *Importer {
	im := &Importer{
		entities: entities,
		listings: listings,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportEntities stores every row of r as an entity of kind. A row with an
// id updates that entity; otherwise an entity with the same title
// is updated, and a new one is created when none exists.
func (im *Importer) ImportEntities(ctx context.Context, kind model.Kind, r io.Reader) (*Result, error) {
	if im.entities == nil {
		return nil, errors.New("entity import is not configured")
	}
	if !kind.Valid() {
		return nil, model.ErrUnknownKind
	}

	cr := newReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for {
		row, line, err := next(ctx, cr)
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}

		e := model.Entity{
			Kind:           kind,
			Title:          valueAt(header, row, columnTitle),
			AlternateTitle: firstValue(header, row, alternateColumns...),
			Status:         valueAt(header, row, columnStatus),
			Address:        valueAt(header, row, "address"),
		}
		if e.Title == "" {
			res.Skipped++
			continue
		}

		if e.ID, err = parseID(valueAt(header, row, columnID)); err != nil {
			return res, fmt.Errorf("line %d: parse id: %w", line, err)
		}
		if e.ID == 0 {
			existing, err := im.entities.FindEntityByTitle(ctx, kind, e.Title)
			if err != nil {
				return res, fmt.Errorf("line %d: %w", line, err)
			}
			if existing != nil {
				e.ID = existing.ID
			}
		}

		updated := e.ID != 0
		if _, err := im.entities.UpsertEntity(ctx, &e); err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		if updated {
			res.Updated++
		} else {
			res.Created++
		}
	}

	im.logger.Info("entities imported",
		"kind", kind,
		"created", res.Created,
		"updated", res.Updated,
		"skipped", res.Skipped,
	)
	return res, nil
}

// ImportListings saves every row of r as a listing submission.
func (im *Importer) ImportListings(ctx context.Context, r io.Reader) (*Result, error) {
	if im.listings == nil {
		return nil, errors.New("listing import is not configured")
	}

	cr := newReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	fields := fieldColumns(header)

	res := &Result{}
	for {
		row, line, err := next(ctx, cr)
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}

		title := valueAt(header, row, columnTitle)
		if title == "" {
			res.Skipped++
			continue
		}
		id, err := parseID(valueAt(header, row, columnID))
		if err != nil {
			return res, fmt.Errorf("line %d: parse id: %w", line, err)
		}

		values := make(model.Fields, len(fields))
		for name, idx := range fields {
			if idx < len(row) {
				values[name] = strings.TrimSpace(row[idx])
			}
		}

		sub := model.NewSubmission(id, title, values)
		sub.Status = valueAt(header, row, columnStatus)
		if _, err := im.listings.Save(ctx, sub); err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}

		if id != 0 {
			res.Updated++
		} else {
			res.Created++
		}
		for _, item := range sub.Autofill {
			if item.Outcome == model.OutcomeMatched {
				res.Autofilled++
			}
		}
		for _, msg := range sub.Errors {
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %s", line, msg))
		}
	}

	im.logger.Info("listings imported",
		"created", res.Created,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"autofilled", res.Autofilled,
	)
	return res, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// next returns the next non-empty row and its line number.
func next(ctx context.Context, cr *csv.Reader) ([]string, int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		row, err := cr.Read()
		if err != nil {
			return nil, 0, err
		}
		line, _ := cr.FieldPos(0)
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		return row, line, nil
	}
}

// header maps lower-cased column names to their index, and keeps the
// original spelling for field columns.
type header struct {
	index map[string]int
	names []string
}

func readHeader(cr *csv.Reader) (header, error) {
	row, err := cr.Read()
	if err == io.EOF {
		return header{}, errors.New("empty CSV input")
	}
	if err != nil {
		return header{}, fmt.Errorf("read header: %w", err)
	}
	h := header{index: make(map[string]int, len(row)), names: make([]string, len(row))}
	for idx, name := range row {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		h.names[idx] = name
		key := strings.ToLower(name)
		if _, dup := h.index[key]; !dup {
			h.index[key] = idx
		}
	}
	if _, ok := h.index[columnTitle]; !ok {
		return header{}, errors.New("CSV header has no title column")
	}
	return h, nil
}

// fieldColumns returns the editor field columns: everything but the
// reserved listing columns.
func fieldColumns(h header) map[string]int {
	out := make(map[string]int, len(h.names))
	for idx, name := range h.names {
		switch strings.ToLower(name) {
		case columnID, columnTitle, columnStatus, "":
			continue
		}
		out[name] = idx
	}
	return out
}

func valueAt(h header, row []string, key string) string {
	idx, ok := h.index[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func firstValue(h header, row []string, keys ...string) string {
	for _, key := range keys {
		if v := valueAt(h, row, key); v != "" {
			return v
		}
	}
	return ""
}

func parseID(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, fmt.Errorf("negative id %d", id)
	}
	return id, nil
}
