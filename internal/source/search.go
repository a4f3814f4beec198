package source

import (
	"context"
	"fmt"

	"github.com/locvowork/reportbook/internal/database"
)

// Elastic reads documents from an Elasticsearch index. With Scroll set every
// matching document is read; otherwise at most Size hits.
type Elastic struct {
	Client *database.ElasticSearchClient
	Index  string
	Query  string
	Size   int
	Scroll bool
}

func (e *Elastic) Fetch(ctx context.Context) ([]interface{}, error) {
	if e.Index == "" {
		return nil, fmt.Errorf("elastic source: index is empty")
	}
	var (
		docs []map[string]interface{}
		err  error
	)
	if e.Scroll {
		docs, err = e.Client.ScrollAll(ctx, e.Index, e.Query)
	} else {
		docs, err = e.Client.Search(ctx, e.Index, e.Query, e.Size)
	}
	if err != nil {
		return nil, err
	}
	return toRecords(docs), nil
}

// Datastore reads the entities of one kind.
type Datastore struct {
	Client  *database.DatastoreClient
	Kind    string
	Filters []database.Filter
	Limit   int
}

func (d *Datastore) Fetch(ctx context.Context) ([]interface{}, error) {
	if d.Kind == "" {
		return nil, fmt.Errorf("datastore source: kind is empty")
	}
	docs, err := d.Client.QueryKind(ctx, d.Kind, d.Filters, d.Limit)
	if err != nil {
		return nil, err
	}
	return toRecords(docs), nil
}

func toRecords(docs []map[string]interface{}) []interface{} {
	out := make([]interface{}, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out
}
