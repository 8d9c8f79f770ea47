package pco

import (
	"context"
	"errors"
	"iter"
	"net/url"
	"strings"
)

// CollectionProxy is a lazily fetched, paginated sequence of records of one
// resource type. The query methods mutate the proxy and return it so calls
// can be chained. A proxy keeps cursor state and is not safe for concurrent
// use; distinct proxies share nothing.
type CollectionProxy struct {
	conn   Getter
	path   string
	kind   *ResourceType
	query  query
	retry  RetryPolicy
	logger Logger

	page   *Document
	buffer []*Record
}

// NewCollectionProxy returns a proxy over path that builds records with kind.
func NewCollectionProxy(conn Getter, path string, kind *ResourceType, params url.Values) *CollectionProxy {
	return &CollectionProxy{
		conn:   conn,
		path:   path,
		kind:   kind,
		query:  newQuery(params),
		logger: NopLogger(),
	}
}

// WithRetryPolicy replaces the rate-limit retry policy.
func (p *CollectionProxy) WithRetryPolicy(policy RetryPolicy) *CollectionProxy {
	p.retry = policy

	return p
}

// WithLogger sets the logger used for page fetches.
func (p *CollectionProxy) WithLogger(logger Logger) *CollectionProxy {
	if logger == nil {
		logger = NopLogger()
	}

	p.logger = logger
	if p.retry.Logger == nil {
		p.retry.Logger = logger
	}

	return p
}

// Path returns the collection path.
func (p *CollectionProxy) Path() string {
	return p.path
}

// Kind returns the type objects are built as.
func (p *CollectionProxy) Kind() *ResourceType {
	return p.kind
}

// Query returns the parameters the next page request would carry.
func (p *CollectionProxy) Query() url.Values {
	return p.query.values()
}

// PerPage sets the page size.
func (p *CollectionProxy) PerPage(n int) *CollectionProxy {
	p.query.perPage = &n

	return p
}

// Where merges filters into the existing ones.
func (p *CollectionProxy) Where(filters map[string]string) *CollectionProxy {
	p.query.where(filters)

	return p
}

// Order appends sort keys.
func (p *CollectionProxy) Order(keys ...string) *CollectionProxy {
	p.query.addOrder(keys...)

	return p
}

// Includes merges relationship mappings into the existing ones.
func (p *CollectionProxy) Includes(mapping Includes) *CollectionProxy {
	p.query.include(mapping)

	return p
}

// Reset clears the cursor and the buffered page.
func (p *CollectionProxy) Reset() {
	p.query.offset = nil
	p.page = nil
	p.buffer = nil
}

// Find fetches the record with the given id.
func (p *CollectionProxy) Find(ctx context.Context, id string) (*Object, error) {
	recordPath := strings.TrimSuffix(p.path, "/") + "/" + url.PathEscape(id)

	doc, err := p.get(ctx, recordPath, p.query.findValues())
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrRecordNotFound
		}

		return nil, err
	}

	record := doc.Data.One()
	if record == nil {
		return nil, ErrRecordNotFound
	}

	return p.kind.Build(record, doc.Included, p.query.includes), nil
}

// FindBy adds filters and returns the first matching record, or nil.
func (p *CollectionProxy) FindBy(ctx context.Context, filters map[string]string) (*Object, error) {
	return p.Where(filters).First(ctx)
}

// Each visits records in order, fetching pages as the buffer runs dry. It
// continues from the current cursor. Returning ErrStopIteration from visit
// ends the walk without error; any other error is returned as is.
func (p *CollectionProxy) Each(ctx context.Context, visit func(*Object) error) error {
	for {
		err := p.fill(ctx)
		if err != nil {
			return err
		}

		obj := p.shift()
		if obj == nil {
			return nil
		}

		err = visit(obj)
		if errors.Is(err, ErrStopIteration) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}

// Iter returns the records as a range-over-func sequence. Breaking out of
// the loop stops fetching. A fetch error is yielded once with a nil object.
func (p *CollectionProxy) Iter(ctx context.Context) iter.Seq2[*Object, error] {
	return func(yield func(*Object, error) bool) {
		err := p.Each(ctx, func(obj *Object) error {
			if !yield(obj, nil) {
				return ErrStopIteration
			}

			return nil
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

// All resets the cursor and returns every record.
func (p *CollectionProxy) All(ctx context.Context) ([]*Object, error) {
	p.Reset()

	objects := []*Object{}

	err := p.Each(ctx, func(obj *Object) error {
		objects = append(objects, obj)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return objects, nil
}

// First resets the cursor, fetches one page and returns its first record,
// or nil when the page is empty.
func (p *CollectionProxy) First(ctx context.Context) (*Object, error) {
	p.Reset()

	err := p.fetchNext(ctx)
	if err != nil {
		return nil, err
	}

	return p.shift(), nil
}

// Last resets the cursor, learns the total count from a metadata-only
// request and fetches the page at offset total-1, returning its last record.
// A missing or zero total yields nil without a second request.
func (p *CollectionProxy) Last(ctx context.Context) (*Object, error) {
	p.Reset()

	total, err := p.probe(ctx)
	if err != nil {
		return nil, err
	}

	if total <= 0 {
		return nil, nil //nolint:nilnil // an empty collection has no last record
	}

	offset := total - 1
	p.query.offset = &offset

	err = p.fetchNext(ctx)
	if err != nil {
		return nil, err
	}

	records := p.page.Data.Records
	if len(records) == 0 {
		return nil, nil //nolint:nilnil // the page at the last offset was empty
	}

	return p.build(records[len(records)-1]), nil
}

// Count returns meta.total_count from a metadata-only request.
func (p *CollectionProxy) Count(ctx context.Context) (int, error) {
	p.Reset()

	return p.probe(ctx)
}

func (p *CollectionProxy) probe(ctx context.Context) (int, error) {
	doc, err := p.get(ctx, p.path, p.query.probeValues())
	if err != nil {
		return 0, err
	}

	return doc.Meta.Total(), nil
}

// more reports whether another page may exist: always before the first
// fetch, afterwards only when the buffer is empty and the last page
// advertised a next offset.
func (p *CollectionProxy) more() bool {
	if p.page == nil {
		return true
	}

	return len(p.buffer) == 0 && p.page.Meta.HasNext()
}

// fill fetches pages until the buffer holds a record or the server stops
// advertising a next page. Empty intermediate pages are skipped.
func (p *CollectionProxy) fill(ctx context.Context) error {
	for p.more() {
		err := p.fetchNext(ctx)
		if err != nil {
			return err
		}

		if len(p.buffer) > 0 {
			return nil
		}
	}

	return nil
}

func (p *CollectionProxy) fetchNext(ctx context.Context) error {
	doc, err := p.get(ctx, p.path, p.query.values())
	if err != nil {
		return err
	}

	p.page = doc
	p.buffer = append([]*Record(nil), doc.Data.Records...)

	next := 1
	if p.query.offset != nil {
		next = *p.query.offset + 1
	}

	p.query.offset = &next

	return nil
}

func (p *CollectionProxy) shift() *Object {
	if len(p.buffer) == 0 {
		return nil
	}

	record := p.buffer[0]
	p.buffer = p.buffer[1:]

	return p.build(record)
}

func (p *CollectionProxy) build(record *Record) *Object {
	return p.kind.Build(record, p.page.Included, p.query.includes)
}

func (p *CollectionProxy) get(ctx context.Context, path string, values url.Values) (*Document, error) {
	if p.conn == nil {
		return nil, ErrNoConnection
	}

	return p.retry.Do(ctx, func(ctx context.Context) (*Document, error) {
		p.logger.Debug("Fetching page", map[string]interface{}{
			"path":  path,
			"query": values.Encode(),
		})

		return p.conn.Get(ctx, path, values)
	})
}
