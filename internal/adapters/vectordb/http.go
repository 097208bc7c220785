// Package vectordb provides vector store provisioning adapters.
// Clean Architecture: Adapters implementing ports.CollectionProvisioner.
package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// Provisioner defaults.
const (
	DefaultRESTURL = "http://qdrant:6333"
	DefaultTimeout = 30 * time.Second
)

// HTTPProvisioner manages Qdrant collections over the REST API.
type HTTPProvisioner struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvisioner creates a REST provisioner.
func NewHTTPProvisioner(baseURL, apiKey string, timeout time.Duration) *HTTPProvisioner {
	if baseURL == "" {
		baseURL = DefaultRESTURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProvisioner{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type vectorParams struct {
	Size     uint64 `json:"size"`
	Distance string `json:"distance"`
}

type createIndexRequest struct {
	FieldName   string `json:"field_name"`
	FieldSchema string `json:"field_schema"`
}

// CollectionExists implements ports.CollectionProvisioner.
func (p *HTTPProvisioner) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := p.do(ctx, http.MethodGet, p.collectionURL(name), nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError(resp)
	}
}

// CreateCollection implements ports.CollectionProvisioner.
// A 409 Conflict maps to entities.ErrCollectionExists.
func (p *HTTPProvisioner) CreateCollection(ctx context.Context, spec entities.CollectionSpec) error {
	body := createCollectionRequest{Vectors: vectorParams{Size: spec.VectorSize, Distance: spec.Distance}}

	resp, err := p.do(ctx, http.MethodPut, p.collectionURL(spec.Name), body)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("collection %s: %w", spec.Name, entities.ErrCollectionExists)
	default:
		return statusError(resp)
	}
}

// CreatePayloadIndex implements ports.CollectionProvisioner.
func (p *HTTPProvisioner) CreatePayloadIndex(ctx context.Context, collection, field string) error {
	body := createIndexRequest{FieldName: field, FieldSchema: "keyword"}

	resp, err := p.do(ctx, http.MethodPut, p.collectionURL(collection)+"/index", body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func (p *HTTPProvisioner) collectionURL(name string) string {
	return p.baseURL + "/collections/" + url.PathEscape(name)
}

func (p *HTTPProvisioner) do(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("api-key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling qdrant: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("qdrant returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
