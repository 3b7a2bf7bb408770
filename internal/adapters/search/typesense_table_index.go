package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	tsclient "github.com/yashbaviskar01/model-api/internal/infrastructure/clients/typesense"
)

// TypesenseTableIndex keeps one document per table, holding its description
// and embedding, in a Typesense collection.
type TypesenseTableIndex struct {
	client     *tsclient.Client
	collection string
}

var _ providers.TableIndex = (*TypesenseTableIndex)(nil)

// NewTypesenseTableIndex creates a table index over the client's table collection
func NewTypesenseTableIndex(client *tsclient.Client) *TypesenseTableIndex {
	return &TypesenseTableIndex{client: client, collection: client.TableCollection()}
}

// EnsureIndex creates the collection with a dimension-sized embedding field.
// Typesense compares float[] fields by cosine distance, which is the only metric supported here.
func (a *TypesenseTableIndex) EnsureIndex(ctx context.Context, dimension int, metric entities.VectorMetric) error {
	if metric != entities.MetricCosine {
		return fmt.Errorf("unsupported vector metric %q", metric)
	}
	if _, err := a.client.Client().Collection(a.collection).Retrieve(ctx); err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: a.collection,
		Fields: []api.Field{
			{Name: "table_name", Type: "string", Facet: pointer.True()},
			{Name: "table_description", Type: "string"},
			{Name: "embedding", Type: "float[]", NumDim: pointer.Int(dimension)},
			{Name: "updated_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("updated_at"),
	}

	if _, err := a.client.Client().Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create typesense collection %s: %w", a.collection, err)
	}
	return nil
}

// Search returns the k nearest tables by embedding, best first
func (a *TypesenseTableIndex) Search(ctx context.Context, vector []float32, k int) ([]entities.SimilarTable, error) {
	params := &api.SearchCollectionParams{
		Q:             pointer.String("*"),
		QueryBy:       pointer.String("table_name"),
		VectorQuery:   pointer.String(vectorQuery(vector, k)),
		ExcludeFields: pointer.String("embedding"),
		PerPage:       pointer.Int(k),
	}

	result, err := a.client.Client().Collection(a.collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search tables: %w", err)
	}

	tables := []entities.SimilarTable{}
	if result.Hits == nil {
		return tables, nil
	}
	for _, hit := range *result.Hits {
		table, ok := similarTableFromHit(hit)
		if !ok {
			continue
		}
		tables = append(tables, table)
		if len(tables) == k {
			break
		}
	}
	return tables, nil
}

// Upsert updates the document already holding metadata.TableName, or inserts a new one.
func (a *TypesenseTableIndex) Upsert(ctx context.Context, metadata *entities.TableMetadata) error {
	id, err := a.existingID(ctx, metadata.TableName)
	if err != nil {
		return err
	}
	if id == "" {
		id = uuid.New().String()
	}
	metadata.ID = id
	if metadata.UpdatedAt.IsZero() {
		metadata.UpdatedAt = time.Now().UTC()
	}

	document := map[string]interface{}{
		"id":                metadata.ID,
		"table_name":        metadata.TableName,
		"table_description": metadata.TableDescription,
		"embedding":         metadata.Embedding,
		"updated_at":        metadata.UpdatedAt.Unix(),
	}
	if _, err := a.client.Client().Collection(a.collection).Documents().Upsert(ctx, document); err != nil {
		return fmt.Errorf("failed to upsert table %s: %w", metadata.TableName, err)
	}
	return nil
}

// Delete removes the document for a table, if present
func (a *TypesenseTableIndex) Delete(ctx context.Context, tableName string) error {
	id, err := a.existingID(ctx, tableName)
	if err != nil || id == "" {
		return err
	}
	if _, err := a.client.Client().Collection(a.collection).Document(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete table %s from index: %w", tableName, err)
	}
	return nil
}

func (a *TypesenseTableIndex) existingID(ctx context.Context, tableName string) (string, error) {
	params := &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		QueryBy:  pointer.String("table_name"),
		FilterBy: pointer.String(tableNameFilter(tableName)),
		PerPage:  pointer.Int(1),
	}
	result, err := a.client.Client().Collection(a.collection).Documents().Search(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to look up table %s: %w", tableName, err)
	}
	if result.Hits == nil {
		return "", nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok {
			return id, nil
		}
	}
	return "", nil
}

func vectorQuery(vector []float32, k int) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return fmt.Sprintf("embedding:([%s], k:%d)", strings.Join(parts, ","), k)
}

func tableNameFilter(tableName string) string {
	return fmt.Sprintf("table_name:=`%s`", strings.ReplaceAll(tableName, "`", ""))
}

// similarTableFromHit reads a vector search hit. Typesense reports cosine
// distance, so the score is 1 - distance.
func similarTableFromHit(hit api.SearchResultHit) (entities.SimilarTable, bool) {
	if hit.Document == nil {
		return entities.SimilarTable{}, false
	}
	doc := *hit.Document

	table := entities.SimilarTable{}
	if v, ok := doc["table_name"].(string); ok {
		table.TableName = v
	}
	if v, ok := doc["table_description"].(string); ok {
		table.Description = v
	}
	if hit.VectorDistance != nil {
		table.Score = 1 - float64(*hit.VectorDistance)
	}
	return table, true
}
