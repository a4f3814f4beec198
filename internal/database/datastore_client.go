package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/datastore"
)

// DatastoreClient wraps the cloud datastore client
type DatastoreClient struct {
	client *datastore.Client
}

// NewDatastoreClient connects to the project's datastore.
func NewDatastoreClient(ctx context.Context, projectID string) (*DatastoreClient, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return &DatastoreClient{client: client}, nil
}

// WrapDatastoreClient wraps existing datastore client
func WrapDatastoreClient(client *datastore.Client) *DatastoreClient {
	if client == nil {
		return nil
	}
	return &DatastoreClient{client: client}
}

// Filter is one property condition, e.g. {"Region", "=", "North"}.
type Filter struct {
	Field    string      `yaml:"field"`
	Operator string      `yaml:"op"`
	Value    interface{} `yaml:"value"`
}

// QueryKind returns the entities of a kind as generic documents. The entity
// key name (or numeric ID) is exposed under "__key__".
func (dc *DatastoreClient) QueryKind(ctx context.Context, kind string, filters []Filter, limit int) ([]map[string]interface{}, error) {
	if dc == nil || dc.client == nil {
		return nil, fmt.Errorf("datastore client is nil")
	}

	q := datastore.NewQuery(kind)
	for _, f := range filters {
		op := f.Operator
		if op == "" {
			op = "="
		}
		q = q.FilterField(f.Field, op, f.Value)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entities []datastore.PropertyList
	keys, err := dc.client.GetAll(ctx, q, &entities)
	if err != nil {
		return nil, fmt.Errorf("query kind %s: %w", kind, err)
	}

	docs := make([]map[string]interface{}, len(entities))
	for i, props := range entities {
		doc := PropertiesToMap(props)
		if i < len(keys) && keys[i] != nil {
			doc["__key__"] = keyValue(keys[i])
		}
		docs[i] = doc
	}
	return docs, nil
}

// PropertiesToMap flattens a property list. Nested entities become nested maps.
func PropertiesToMap(props datastore.PropertyList) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for _, p := range props {
		out[p.Name] = propertyValue(p.Value)
	}
	return out
}

func propertyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case *datastore.Entity:
		if x == nil {
			return nil
		}
		return PropertiesToMap(x.Properties)
	case *datastore.Key:
		if x == nil {
			return nil
		}
		return keyValue(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = propertyValue(e)
		}
		return out
	}
	return v
}

func keyValue(k *datastore.Key) interface{} {
	if k.Name != "" {
		return k.Name
	}
	return k.ID
}

// Close releases the underlying connection.
func (dc *DatastoreClient) Close() error {
	if dc == nil || dc.client == nil {
		return nil
	}
	return dc.client.Close()
}
