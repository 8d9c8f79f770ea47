package pco

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ResourceConfig configures a ResourceType. Zero-valued fields other than
// Name are taken from Parent when one is given.
type ResourceConfig struct {
	// Name identifies the kind of object built, e.g. "Person".
	Name string
	// Path is the collection segment, e.g. "people".
	Path string
	// BasePath is prefixed to Path, e.g. "/people/v2".
	BasePath string
	// Connection performs the GET requests.
	Connection Getter
	// Parent supplies defaults for unset fields.
	Parent *ResourceType
	// PerPage is the default page size of new proxies. Zero leaves it unset.
	PerPage int
	// Params are sent with every request of this type.
	Params url.Values
	// Logger receives page fetch and rate-limit messages.
	Logger Logger
	// Retry controls waiting on rate-limited responses.
	Retry *RetryPolicy
}

// ResourceType describes one kind of record and the endpoint serving it.
type ResourceType struct {
	name     string
	path     string
	basePath string
	conn     Getter
	perPage  int
	params   url.Values
	logger   Logger
	retry    RetryPolicy
}

// NewResourceType resolves cfg against its parent and returns the type.
func NewResourceType(cfg ResourceConfig) *ResourceType {
	rt := &ResourceType{
		name:     cfg.Name,
		path:     cfg.Path,
		basePath: cfg.BasePath,
		conn:     cfg.Connection,
		perPage:  cfg.PerPage,
		params:   cloneValues(cfg.Params),
		logger:   cfg.Logger,
	}

	if cfg.Retry != nil {
		rt.retry = *cfg.Retry
	}

	if parent := cfg.Parent; parent != nil {
		rt.inherit(parent, cfg)
	}

	if rt.logger == nil {
		rt.logger = NopLogger()
	}

	return rt
}

func (rt *ResourceType) inherit(parent *ResourceType, cfg ResourceConfig) {
	if rt.path == "" {
		rt.path = parent.path
	}

	if rt.basePath == "" {
		rt.basePath = parent.basePath
	}

	if rt.conn == nil {
		rt.conn = parent.conn
	}

	if rt.perPage == 0 {
		rt.perPage = parent.perPage
	}

	if len(rt.params) == 0 {
		rt.params = cloneValues(parent.params)
	}

	if rt.logger == nil {
		rt.logger = parent.logger
	}

	if cfg.Retry == nil {
		rt.retry = parent.retry
	}
}

// Name returns the kind name.
func (rt *ResourceType) Name() string {
	return rt.name
}

// Connection returns the resolved connection.
func (rt *ResourceType) Connection() Getter {
	return rt.conn
}

var duplicateSlashes = regexp.MustCompile(`/{2,}`)

// FullPath joins the base path and the path, collapsing repeated slashes
// and dropping the leading one.
func (rt *ResourceType) FullPath() string {
	parts := make([]string, 0, 2)

	for _, part := range []string{rt.basePath, rt.path} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	joined := duplicateSlashes.ReplaceAllString(strings.Join(parts, "/"), "/")

	return strings.TrimPrefix(joined, "/")
}

// All returns a new proxy over the type's collection.
func (rt *ResourceType) All() *CollectionProxy {
	proxy := NewCollectionProxy(rt.conn, rt.FullPath(), rt, rt.params).
		WithRetryPolicy(rt.retry).
		WithLogger(rt.logger)

	if rt.perPage > 0 {
		proxy.PerPage(rt.perPage)
	}

	return proxy
}

// Find fetches one record by id.
func (rt *ResourceType) Find(ctx context.Context, id string) (*Object, error) {
	return rt.All().Find(ctx, id)
}

// FindBy returns the first record matching filters.
func (rt *ResourceType) FindBy(ctx context.Context, filters map[string]string) (*Object, error) {
	return rt.All().FindBy(ctx, filters)
}

// First returns the first record of the collection.
func (rt *ResourceType) First(ctx context.Context) (*Object, error) {
	return rt.All().First(ctx)
}

// Last returns the last record of the collection.
func (rt *ResourceType) Last(ctx context.Context) (*Object, error) {
	return rt.All().Last(ctx)
}

// PerPage returns a new proxy with the given page size.
func (rt *ResourceType) PerPage(n int) *CollectionProxy {
	return rt.All().PerPage(n)
}

// Where returns a new proxy with filters.
func (rt *ResourceType) Where(filters map[string]string) *CollectionProxy {
	return rt.All().Where(filters)
}

// Order returns a new proxy sorted by keys.
func (rt *ResourceType) Order(keys ...string) *CollectionProxy {
	return rt.All().Order(keys...)
}

// Includes returns a new proxy that resolves the given relationships.
func (rt *ResourceType) Includes(mapping Includes) *CollectionProxy {
	return rt.All().Includes(mapping)
}

// NewObject builds an object of this type from attributes. An "id" given
// as a string is converted to an integer.
func (rt *ResourceType) NewObject(attrs map[string]interface{}) *Object {
	obj := &Object{
		kind:       rt,
		attributes: make(map[string]interface{}, len(attrs)),
	}

	for name, value := range attrs {
		obj.attributes[name] = value
	}

	switch id := attrs["id"].(type) {
	case string:
		obj.recordID = id
		obj.attributes["id"] = parseID(id)
	case int:
		obj.recordID = strconv.Itoa(id)
	}

	return obj
}
