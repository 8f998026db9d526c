// Package seed loads operator-defined forms from YAML and stores them.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wassi-real/lidforms/internal/events"
	"github.com/wassi-real/lidforms/internal/model"
)

// File is the top-level YAML document.
type File struct {
	Forms []FormSpec `yaml:"forms"`
}

// FormSpec describes one form. Active defaults to true.
type FormSpec struct {
	Title   string      `yaml:"title"`
	OwnerID string      `yaml:"owner_id"`
	Active  *bool       `yaml:"active"`
	Fields  []FieldSpec `yaml:"fields"`
}

// FieldSpec describes one field. A zero Position takes the field's
// one-based index in the list.
type FieldSpec struct {
	Label    string `yaml:"label"`
	Required bool   `yaml:"required"`
	Position int    `yaml:"position"`
}

// Creator stores a form and its fields together.
type Creator interface {
	CreateForm(ctx context.Context, form *model.Form, fields []*model.FieldDefinition) error
}

// LoadFile reads and validates a seed file.
func LoadFile(path string) ([]*model.FormSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a seed document and validates every form in it. Unknown keys
// are rejected.
func Load(r io.Reader) ([]*model.FormSchema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc File
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed file is empty")
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if len(doc.Forms) == 0 {
		return nil, errors.New("seed file defines no forms")
	}

	schemas := make([]*model.FormSchema, 0, len(doc.Forms))
	for i, fs := range doc.Forms {
		schema := fs.schema()
		if err := model.ValidateFormSchema(schema.Form, schema.Fields); err != nil {
			return nil, fmt.Errorf("forms[%d]: %w", i, err)
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

func (fs FormSpec) schema() *model.FormSchema {
	active := true
	if fs.Active != nil {
		active = *fs.Active
	}
	fields := make([]*model.FieldDefinition, len(fs.Fields))
	for i, f := range fs.Fields {
		pos := f.Position
		if pos == 0 {
			pos = i + 1
		}
		fields[i] = &model.FieldDefinition{Label: f.Label, Required: f.Required, Position: pos}
	}
	return &model.FormSchema{
		Form:   &model.Form{Title: fs.Title, OwnerID: fs.OwnerID, IsActive: active},
		Fields: fields,
	}
}

// Apply stores each form in its own transaction and announces it. It stops
// at the first failure; forms stored before it remain.
func Apply(ctx context.Context, c Creator, pub events.Publisher, log *zap.Logger, schemas []*model.FormSchema) error {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	for _, s := range schemas {
		if err := c.CreateForm(ctx, s.Form, s.Fields); err != nil {
			return fmt.Errorf("create form %q: %w", s.Form.Title, err)
		}
		log.Info("form seeded",
			zap.String("form_id", s.Form.ID),
			zap.String("title", s.Form.Title),
			zap.Int("fields", len(s.Fields)))

		ev := events.FormCreated{
			FormID:     s.Form.ID,
			Title:      s.Form.Title,
			IsActive:   s.Form.IsActive,
			FieldCount: len(s.Fields),
		}
		if err := pub.Publish(ctx, events.TopicFormCreated, ev); err != nil {
			log.Warn("publish form event", zap.String("form_id", s.Form.ID), zap.Error(err))
		}
	}
	return nil
}
