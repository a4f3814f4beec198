package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/olivere/elastic/v7"
)

// ElasticSearchClient wraps olivere/elastic client.
type ElasticSearchClient struct {
	client *elastic.Client
}

// NewElasticSearchClient creates a new client for Elasticsearch 7.x.
func NewElasticSearchClient(url string) (*ElasticSearchClient, error) {
	if url == "" {
		url = "http://localhost:9200"
	}
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false), // required behind docker or a proxy
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticSearchClient{client: client}, nil
}

// WrapElasticClient wraps an existing client.
func WrapElasticClient(client *elastic.Client) *ElasticSearchClient {
	if client == nil {
		return nil
	}
	return &ElasticSearchClient{client: client}
}

// Search runs a query_string query (match-all when empty) and returns the
// hit sources as generic documents. Numbers are decoded as json.Number.
func (es *ElasticSearchClient) Search(ctx context.Context, index, query string, size int) ([]map[string]interface{}, error) {
	if es == nil || es.client == nil {
		return nil, fmt.Errorf("elasticsearch client is nil")
	}
	var q elastic.Query = elastic.NewMatchAllQuery()
	if query != "" {
		q = elastic.NewQueryStringQuery(query)
	}
	if size <= 0 {
		size = 100
	}

	res, err := es.client.Search().
		Index(index).
		Query(q).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search %s failed: %w", index, err)
	}
	return decodeHits(res.Hits)
}

// ScrollAll pages through every document of an index matching query.
func (es *ElasticSearchClient) ScrollAll(ctx context.Context, index, query string) ([]map[string]interface{}, error) {
	if es == nil || es.client == nil {
		return nil, fmt.Errorf("elasticsearch client is nil")
	}
	scroll := es.client.Scroll(index).
		Size(1000).
		KeepAlive("2m").
		Sort("_doc", true)
	if query != "" {
		scroll = scroll.Query(elastic.NewQueryStringQuery(query))
	}
	defer scroll.Clear(context.Background())

	var docs []map[string]interface{}
	for {
		res, err := scroll.Do(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scroll %s failed: %w", index, err)
		}
		batch, err := decodeHits(res.Hits)
		if err != nil {
			return nil, err
		}
		docs = append(docs, batch...)
	}
	return docs, nil
}

func decodeHits(hits *elastic.SearchHits) ([]map[string]interface{}, error) {
	if hits == nil {
		return nil, nil
	}
	docs := make([]map[string]interface{}, 0, len(hits.Hits))
	for _, hit := range hits.Hits {
		doc, err := DecodeDocument(hit.Source)
		if err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", hit.Id, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DecodeDocument decodes a JSON object keeping numbers as json.Number.
func DecodeDocument(raw json.RawMessage) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	if len(raw) == 0 {
		return doc, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
