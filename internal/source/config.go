package source

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/locvowork/reportbook/internal/database"
)

// Source types accepted in a sources file.
const (
	TypePostgres  = "postgres"
	TypeElastic   = "elastic"
	TypeDatastore = "datastore"
	TypeStatic    = "static"
)

// Config is the sources file: a map of source name to its definition.
type Config struct {
	Sources map[string]Def `yaml:"sources"`
}

// Condition is one WHERE clause of a postgres source.
type Condition struct {
	Condition string        `yaml:"condition"`
	Args      []interface{} `yaml:"args"`
}

// Def describes one source. Which fields apply depends on Type.
type Def struct {
	Type string `yaml:"type"`

	// postgres: either Query or Table
	Query   string        `yaml:"query"`
	Args    []interface{} `yaml:"args"`
	Table   string        `yaml:"table"`
	Columns []string      `yaml:"columns"`
	Where   []Condition   `yaml:"where"`
	OrderBy []string      `yaml:"order_by"`

	// elastic
	Index  string `yaml:"index"`
	Size   int    `yaml:"size"`
	Scroll bool   `yaml:"scroll"`

	// datastore
	Kind    string            `yaml:"kind"`
	Filters []database.Filter `yaml:"filters"`

	// postgres and datastore
	Limit int `yaml:"limit"`

	// static
	Records []interface{} `yaml:"records"`
}

// Clients carries the connections sources are built on. Any may be nil when
// no source of that type is configured.
type Clients struct {
	DB        *sql.DB
	Elastic   *database.ElasticSearchClient
	Datastore *database.DatastoreClient
}

// LoadConfig decodes a sources file. Unknown keys are rejected.
func LoadConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return &cfg, nil
}

// LoadConfigFile reads a sources file from disk.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadConfig(f)
}

// Register builds every configured source and adds it to reg.
func (c *Config) Register(reg *Registry, clients Clients) error {
	names := make([]string, 0, len(c.Sources))
	for n := range c.Sources {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		s, err := c.Sources[name].Build(clients)
		if err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
		reg.Register(name, s)
	}
	return nil
}

// Build turns a definition into a Source.
func (d Def) Build(clients Clients) (Source, error) {
	switch d.Type {
	case TypePostgres:
		if clients.DB == nil {
			return nil, fmt.Errorf("postgres is not configured")
		}
		if d.Query != "" {
			return &Postgres{DB: clients.DB, Query: d.Query, Args: d.Args}, nil
		}
		b := NewSelectBuilder(d.Table, d.Columns...).OrderBy(d.OrderBy...).Limit(d.Limit)
		for _, w := range d.Where {
			b.Where(w.Condition, w.Args...)
		}
		return NewPostgres(clients.DB, b)
	case TypeElastic:
		if clients.Elastic == nil {
			return nil, fmt.Errorf("elasticsearch is not configured")
		}
		return &Elastic{Client: clients.Elastic, Index: d.Index, Query: d.Query, Size: d.Size, Scroll: d.Scroll}, nil
	case TypeDatastore:
		if clients.Datastore == nil {
			return nil, fmt.Errorf("datastore is not configured")
		}
		return &Datastore{Client: clients.Datastore, Kind: d.Kind, Filters: d.Filters, Limit: d.Limit}, nil
	case TypeStatic:
		return Static(d.Records), nil
	}
	return nil, fmt.Errorf("unknown source type %q", d.Type)
}

// Types lists the source types in use, so callers connect only what is needed.
func (c *Config) Types() map[string]bool {
	out := make(map[string]bool)
	for _, d := range c.Sources {
		out[d.Type] = true
	}
	return out
}
