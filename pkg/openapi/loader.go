// Package openapi derives field definitions and committed-value validators
// from OpenAPI request schemas using kin-openapi.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

// Loader reads OpenAPI documents from the filesystem, an fs.FS or HTTP.
type Loader struct {
	fs          fs.FS
	http        *http.Client
	resolveRefs bool
	validate    bool
	logger      *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem resolves relative locations inside files instead of the
// operating system.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables http(s) locations using client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.http = client
	}
}

// WithHTTPFallback enables http(s) locations with a default client.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		if l.http == nil {
			l.http = &http.Client{Timeout: timeout}
		}
	}
}

// WithReferenceResolution toggles external $ref resolution and document
// validation. Enabled by default.
func WithReferenceResolution(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.resolveRefs = enabled
		l.validate = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader constructs a Loader.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{
		resolveRefs: true,
		validate:    true,
		logger:      zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load reads and parses the document at location.
func (l *Loader) Load(ctx context.Context, location string) (*openapi3.T, error) {
	data, err := l.read(ctx, location)
	if err != nil {
		return nil, err
	}
	return l.Parse(ctx, data)
}

// Parse decodes a document from JSON or YAML bytes.
func (l *Loader) Parse(ctx context.Context, data []byte) (*openapi3.T, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: l.resolveRefs,
	}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if l.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return doc, nil
}

// Operation loads location and returns the operation identified by
// operationID.
func (l *Loader) Operation(ctx context.Context, location, operationID string) (Operation, error) {
	doc, err := l.Load(ctx, location)
	if err != nil {
		return Operation{}, err
	}
	op, err := FindOperation(doc, operationID)
	if err != nil {
		return Operation{}, err
	}
	l.logger.Debug("operation resolved",
		zap.String("location", location),
		zap.String("operation", op.ID),
		zap.String("method", op.Method),
		zap.String("path", op.Path),
	)
	return op, nil
}

// LoadOperation is Operation with a default loader.
func LoadOperation(ctx context.Context, location, operationID string) (Operation, error) {
	return NewLoader().Operation(ctx, location, operationID)
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("openapi: location is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		if l.http == nil {
			return nil, errors.New("openapi: http support disabled")
		}
		return l.fetch(ctx, location)
	case l.fs != nil:
		data, err := fs.ReadFile(l.fs, location)
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", location, err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", location, err)
		}
		return data, nil
	}
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("openapi: request %s: %w", location, err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi: fetch %s: %w", location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("openapi: fetch %s: unexpected status %s", location, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Operation is the subset of an OpenAPI operation fields are derived from.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
	// Schema is the request body schema, nil when the operation has none.
	Schema *openapi3.Schema
}

// FindOperation locates an operation by operationId. Operations without an
// id are addressable as "method:path", lower-cased method.
func FindOperation(doc *openapi3.T, operationID string) (Operation, error) {
	if doc == nil || doc.Paths == nil {
		return Operation{}, errors.New("openapi: document has no paths")
	}
	for _, op := range Operations(doc) {
		if op.ID == operationID {
			return op, nil
		}
	}
	return Operation{}, fmt.Errorf("openapi: operation %q not found", operationID)
}

// Operations lists every operation in the document, sorted by id.
func Operations(doc *openapi3.T) []Operation {
	if doc == nil || doc.Paths == nil {
		return nil
	}
	var out []Operation
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if operation == nil {
				continue
			}
			id := operation.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			out = append(out, Operation{
				ID:      id,
				Method:  method,
				Path:    path,
				Summary: operation.Summary,
				Schema:  requestSchema(operation.RequestBody),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}
