package vectordb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// DefaultGRPCPort is Qdrant's gRPC port.
const DefaultGRPCPort = 6334

// collectionsAPI is the subset of *qdrant.Client the provisioner uses.
type collectionsAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Close() error
}

// QdrantProvisioner manages Qdrant collections over gRPC.
type QdrantProvisioner struct {
	client collectionsAPI
}

// NewQdrantProvisioner dials Qdrant. rawURL may omit the scheme, in which
// case TLS is used.
func NewQdrantProvisioner(rawURL, apiKey string) (*QdrantProvisioner, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	parsedURL := rawURL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	port := DefaultGRPCPort
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantProvisioner{client: client}, nil
}

// CollectionExists implements ports.CollectionProvisioner.
func (p *QdrantProvisioner) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := p.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("checking collection %s: %w", name, err)
	}
	return exists, nil
}

// CreateCollection implements ports.CollectionProvisioner.
// An AlreadyExists status maps to entities.ErrCollectionExists.
func (p *QdrantProvisioner) CreateCollection(ctx context.Context, spec entities.CollectionSpec) error {
	distance, err := parseDistance(spec.Distance)
	if err != nil {
		return err
	}

	err = p.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     spec.VectorSize,
			Distance: distance,
		}),
	})
	if err != nil {
		if isAlreadyExists(err) {
			return fmt.Errorf("collection %s: %w", spec.Name, entities.ErrCollectionExists)
		}
		return fmt.Errorf("creating collection %s: %w", spec.Name, err)
	}
	return nil
}

// CreatePayloadIndex implements ports.CollectionProvisioner.
func (p *QdrantProvisioner) CreatePayloadIndex(ctx context.Context, collection, field string) error {
	_, err := p.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: collection,
		FieldName:      field,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("creating index %s on %s: %w", field, collection, err)
	}
	return nil
}

// Close releases the gRPC connection.
func (p *QdrantProvisioner) Close() error {
	return p.client.Close()
}

// parseDistance accepts Qdrant's distance names, case-insensitively.
func parseDistance(name string) (qdrant.Distance, error) {
	for k, v := range qdrant.Distance_value {
		if strings.EqualFold(k, name) && qdrant.Distance(v) != qdrant.Distance_UnknownDistance {
			return qdrant.Distance(v), nil
		}
	}
	return qdrant.Distance_UnknownDistance, fmt.Errorf("unknown distance %q", name)
}

func isAlreadyExists(err error) bool {
	if st, ok := status.FromError(err); ok && st.Code() == codes.AlreadyExists {
		return true
	}
	var se interface{ GRPCStatus() *status.Status }
	if errors.As(err, &se) && se.GRPCStatus().Code() == codes.AlreadyExists {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
