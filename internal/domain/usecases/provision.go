package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
	"github.com/0xcro3dile/ragroute/internal/domain/ports"
)

// Collection defaults.
const (
	DefaultVectorSize = 768
	DefaultDistance   = "Cosine"
)

// DefaultPayloadIndexes are the keyword indexes created on new collections.
var DefaultPayloadIndexes = []string{"tenantId", "personaId", "fileName", "s3Key"}

// ProvisionUseCase makes sure vector collections exist.
type ProvisionUseCase struct {
	provisioner ports.CollectionProvisioner
	vectorSize  uint64
	distance    string
	indexes     []string
	logger      *zap.Logger
}

// NewProvisionUseCase creates a ProvisionUseCase with injected dependencies.
// A nil indexes slice selects DefaultPayloadIndexes; an empty one disables indexing.
func NewProvisionUseCase(
	provisioner ports.CollectionProvisioner,
	vectorSize uint64,
	distance string,
	indexes []string,
	logger *zap.Logger,
) *ProvisionUseCase {
	if vectorSize == 0 {
		vectorSize = DefaultVectorSize
	}
	if distance == "" {
		distance = DefaultDistance
	}
	if indexes == nil {
		indexes = DefaultPayloadIndexes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisionUseCase{
		provisioner: provisioner,
		vectorSize:  vectorSize,
		distance:    distance,
		indexes:     indexes,
		logger:      logger,
	}
}

// EnsureCollection creates the collection if it is missing. It reports
// whether this call created it. Losing a creation race is not an error.
func (uc *ProvisionUseCase) EnsureCollection(ctx context.Context, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, &entities.ValidationError{Field: "collection", Err: errors.New("name is required")}
	}

	// 1. Check existence
	exists, err := uc.provisioner.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("checking collection %s: %w", name, err)
	}
	if exists {
		uc.logger.Debug("collection exists", zap.String("collection", name))
		return false, nil
	}

	// 2. Create
	spec := entities.CollectionSpec{Name: name, VectorSize: uc.vectorSize, Distance: uc.distance}
	if err := uc.provisioner.CreateCollection(ctx, spec); err != nil {
		if errors.Is(err, entities.ErrCollectionExists) {
			uc.logger.Info("collection created concurrently", zap.String("collection", name))
			return false, nil
		}
		// The store may report the race with a generic error; trust a re-check.
		if exists, checkErr := uc.provisioner.CollectionExists(ctx, name); checkErr == nil && exists {
			uc.logger.Info("collection created concurrently", zap.String("collection", name), zap.Error(err))
			return false, nil
		}
		return false, fmt.Errorf("creating collection %s: %w", name, err)
	}
	uc.logger.Info("collection created",
		zap.String("collection", name),
		zap.Uint64("vector_size", uc.vectorSize),
		zap.String("distance", uc.distance),
	)

	// 3. Payload indexes, best-effort
	for _, field := range uc.indexes {
		if err := uc.provisioner.CreatePayloadIndex(ctx, name, field); err != nil {
			uc.logger.Warn("creating payload index failed",
				zap.String("collection", name),
				zap.String("field", field),
				zap.Error(err),
			)
		}
	}

	return true, nil
}

// CollectionName derives a tenant's collection name.
func CollectionName(tenantID string) string {
	return strings.ReplaceAll(tenantID, "-", "_")
}
