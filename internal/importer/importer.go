// Package importer loads chapter documents (JSON or YAML) into the content
// store.
package importer

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/store"
)

// SupportedMajor is the only document major version this build reads.
const SupportedMajor = "v1"

// ErrUnsupportedVersion is returned for documents of another major version.
var ErrUnsupportedVersion = errors.New("unsupported format_version")

//go:embed chapter.schema.json
var chapterSchemaJSON []byte

// Format is the encoding of a chapter document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format by file extension. Anything that is not
// .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is a parsed chapter with ids assigned.
type Document struct {
	FormatVersion string
	Chapter       content.Chapter
	Concepts      []content.Concept
	Questions     []content.Question
}

// Report summarizes one import.
type Report struct {
	ChapterID        string
	ChapterTitle     string
	ChapterCreated   bool
	Concepts         int
	ConceptIDs       []string
	Questions        int
	QuestionsCreated int
	QuestionsSkipped int
}

// Importer writes parsed documents through a store.ContentWriter.
type Importer struct {
	writer store.ContentWriter
	log    *logger.Logger
}

func New(w store.ContentWriter, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{writer: w, log: log.With("component", "importer")}
}

// ImportFile reads path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return im.Import(ctx, data, FormatFromPath(path))
}

// Import parses data and saves the chapter in one transaction. Nothing is
// written when any question fails validation.
func (im *Importer) Import(ctx context.Context, data []byte, format Format) (*Report, error) {
	doc, err := Parse(data, format)
	if err != nil {
		return nil, err
	}

	res, err := im.writer.SaveChapter(ctx, doc.Chapter, doc.Concepts, doc.Questions)
	if err != nil {
		return nil, fmt.Errorf("save chapter %s: %w", doc.Chapter.ID, err)
	}

	rep := &Report{
		ChapterID:        doc.Chapter.ID,
		ChapterTitle:     doc.Chapter.Title,
		ChapterCreated:   res.ChapterCreated,
		Concepts:         len(doc.Concepts),
		ConceptIDs:       conceptIDs(doc.Concepts),
		Questions:        len(doc.Questions),
		QuestionsCreated: res.QuestionsCreated,
		QuestionsSkipped: res.QuestionsSkipped,
	}
	im.log.Info("chapter imported",
		"chapter_id", rep.ChapterID,
		"concepts", rep.Concepts,
		"questions_created", rep.QuestionsCreated,
		"questions_skipped", rep.QuestionsSkipped,
	)
	return rep, nil
}

func conceptIDs(cs []content.Concept) []string {
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}

// Parse decodes, schema-checks and validates a chapter document, assigning
// UUIDs to any chapter, concept, question or option without an id.
func Parse(data []byte, format Format) (*Document, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var fd fileDoc
	if err := json.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("decode chapter document: %w", err)
	}
	if err := checkVersion(fd.FormatVersion); err != nil {
		return nil, err
	}
	return fd.build()
}

func checkVersion(v string) error {
	sv := v
	if !strings.HasPrefix(sv, "v") {
		sv = "v" + sv
	}
	if !semver.IsValid(sv) {
		return fmt.Errorf("%w %q: not a semantic version", ErrUnsupportedVersion, v)
	}
	if semver.Major(sv) != SupportedMajor {
		return fmt.Errorf("%w %q: want %s.x", ErrUnsupportedVersion, v, SupportedMajor)
	}
	return nil
}

// toJSON normalizes a YAML document into JSON so that one schema and one
// decoder serve both formats.
func toJSON(data []byte, format Format) ([]byte, error) {
	if format != FormatYAML {
		return data, nil
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return out, nil
}

var (
	schemaOnce    sync.Once
	chapterSchema *jsonschema.Schema
	schemaErr     error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(chapterSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse chapter schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://chapter.json", doc); err != nil {
			schemaErr = fmt.Errorf("add chapter schema: %w", err)
			return
		}
		chapterSchema, schemaErr = c.Compile("schema://chapter.json")
	})
	return chapterSchema, schemaErr
}

func validateSchema(raw []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse chapter document: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("chapter document does not match schema: %w", err)
	}
	return nil
}

type fileDoc struct {
	FormatVersion string        `json:"format_version"`
	Chapter       fileChapter   `json:"chapter"`
	Concepts      []fileConcept `json:"concepts"`
}

type fileChapter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Grade   int    `json:"grade"`
}

type fileConcept struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Questions []content.Question `json:"questions"`
}

func (fd *fileDoc) build() (*Document, error) {
	doc := &Document{
		FormatVersion: fd.FormatVersion,
		Chapter: content.Chapter{
			ID:      orNewID(fd.Chapter.ID),
			Title:   strings.TrimSpace(fd.Chapter.Title),
			Subject: fd.Chapter.Subject,
			Grade:   fd.Chapter.Grade,
		},
	}

	var errs []error
	questionIDs := make(map[string]bool)
	for pos, fc := range fd.Concepts {
		c := content.Concept{
			ID:        orNewID(fc.ID),
			ChapterID: doc.Chapter.ID,
			Name:      strings.TrimSpace(fc.Name),
			Position:  pos,
		}
		doc.Concepts = append(doc.Concepts, c)

		for _, q := range fc.Questions {
			q.ID = orNewID(q.ID)
			q.ConceptID = c.ID
			for i := range q.Options {
				q.Options[i].ID = orNewID(q.Options[i].ID)
			}
			if questionIDs[q.ID] {
				errs = append(errs, &content.ValidationError{QuestionID: q.ID, Problems: []string{"duplicate question id"}})
				continue
			}
			questionIDs[q.ID] = true
			if err := content.Validate(q); err != nil {
				errs = append(errs, err)
				continue
			}
			doc.Questions = append(doc.Questions, q)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%d invalid question(s): %w", len(errs), errors.Join(errs...))
	}
	return doc, nil
}

func orNewID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}
