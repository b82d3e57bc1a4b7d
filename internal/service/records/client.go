package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/researchloop/outreach/backend/internal/model/record"
)

// ErrNotFound is returned when an equality query matches nothing.
var ErrNotFound = errors.New("record not found")

// StatusError is a non-success reply from the contact store.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("contact store %s returned %d: %s", e.Op, e.Status, e.Body)
}

// Filter is a single-property equality filter. Type is the store's property
// type ("email", "rich_text").
type Filter struct {
	Property string
	Type     string
	Equals   string
}

// Config describes how to reach the contact store.
type Config struct {
	BaseURL string
	APIKey  string
	Version string
	Timeout time.Duration
}

// Client speaks the contact store's query/patch/create API.
type Client struct {
	baseURL string
	apiKey  string
	version string
	http    *http.Client
	tracer  trace.Tracer
}

// NewClient builds a store client. Timeout bounds every call.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  cfg.APIKey,
		version: cfg.Version,
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("github.com/researchloop/outreach/backend/internal/service/records"),
	}
}

// QueryOne returns the first record of database matching f.
func (c *Client) QueryOne(ctx context.Context, database string, f Filter) (record.Record, error) {
	ctx, span := c.tracer.Start(ctx, "records.QueryOne", trace.WithAttributes(
		attribute.String("records.database", database),
		attribute.String("records.property", f.Property),
	))
	defer span.End()

	body := map[string]any{
		"filter": map[string]any{
			"property": f.Property,
			f.Type:     map[string]any{"equals": f.Equals},
		},
		"page_size": 1,
	}
	var out struct {
		Results []record.Record `json:"results"`
	}
	if err := c.do(ctx, "query", http.MethodPost, "/databases/"+database+"/query", body, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return record.Record{}, err
	}
	if len(out.Results) == 0 {
		span.SetAttributes(attribute.Bool("records.found", false))
		return record.Record{}, ErrNotFound
	}
	span.SetAttributes(attribute.Bool("records.found", true))
	return out.Results[0], nil
}

// Patch applies typed property updates to one record.
func (c *Client) Patch(ctx context.Context, id string, p record.Patch) error {
	ctx, span := c.tracer.Start(ctx, "records.Patch", trace.WithAttributes(
		attribute.String("records.id", id),
		attribute.Int("records.fields", len(p)),
	))
	defer span.End()

	body := map[string]any{"properties": encodeProperties(p)}
	if err := c.do(ctx, "patch", http.MethodPatch, "/pages/"+id, body, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "patch failed")
		return err
	}
	return nil
}

// Create inserts a record into database and returns its id.
func (c *Client) Create(ctx context.Context, database string, p record.Patch) (string, error) {
	ctx, span := c.tracer.Start(ctx, "records.Create", trace.WithAttributes(
		attribute.String("records.database", database),
	))
	defer span.End()

	body := map[string]any{
		"parent":     map[string]any{"database_id": database},
		"properties": encodeProperties(p),
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "create", http.MethodPost, "/pages", body, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return "", err
	}
	return out.ID, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.version != "" {
		req.Header.Set("Notion-Version", c.version)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contact store %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func encodeProperties(p record.Patch) map[string]any {
	props := make(map[string]any, len(p))
	for name, u := range p {
		if t, ok := u.DateValue(); ok {
			props[name] = map[string]any{"date": map[string]any{"start": t.Format(time.RFC3339)}}
			continue
		}
		if s, ok := u.TextValue(); ok {
			props[name] = map[string]any{"rich_text": []any{
				map[string]any{"type": "text", "text": map[string]any{"content": s}},
			}}
		}
	}
	return props
}
