package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/wassi-real/lidforms/internal/model"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	FormCount  int       `json:"form_count"`
	FieldCount int       `json:"field_count"`
}

// formRecord is one form line. Unlike the public view it keeps the owner.
type formRecord struct {
	Type      string                   `json:"type"`
	ID        string                   `json:"id"`
	OwnerID   string                   `json:"owner_id"`
	Title     string                   `json:"title"`
	IsActive  bool                     `json:"is_active"`
	CreatedAt time.Time                `json:"created_at"`
	Fields    []*model.FieldDefinition `json:"fields"`
}

// ExportJSONL writes a header line and then one line per form, sorted by id,
// and returns the number of forms written.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) (int, error) {
	schemas, err := src.ListFormSchemas(ctx)
	if err != nil {
		return 0, fmt.Errorf("list form schemas: %w", err)
	}
	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].Form.ID < schemas[j].Form.ID
	})

	fields := 0
	for _, s := range schemas {
		fields += len(s.Fields)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		FormCount:  len(schemas),
		FieldCount: fields,
	}); err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}

	for _, s := range schemas {
		fs := s.Fields
		if fs == nil {
			fs = []*model.FieldDefinition{}
		}
		rec := formRecord{
			Type:      "form",
			ID:        s.Form.ID,
			OwnerID:   s.Form.OwnerID,
			Title:     s.Form.Title,
			IsActive:  s.Form.IsActive,
			CreatedAt: s.Form.CreatedAt,
			Fields:    fs,
		}
		if err := enc.Encode(rec); err != nil {
			return 0, fmt.Errorf("encode form %s: %w", s.Form.ID, err)
		}
	}
	return len(schemas), nil
}
