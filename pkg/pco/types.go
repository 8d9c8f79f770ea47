package pco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// ResourceIdentifier references a record by type and id.
type ResourceIdentifier struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id"   yaml:"id"`
}

// key returns the lookup key used to index included records.
func (r ResourceIdentifier) key() string {
	return r.Type + "/" + r.ID
}

// Relationship is the wire value of one entry in a record's relationships.
// Its data is a single identifier, an ordered list of identifiers, or null.
type Relationship struct {
	Data  []ResourceIdentifier
	Links map[string]string

	many bool
}

// NewToOne returns a to-one relationship. A nil identifier yields a null reference.
func NewToOne(ref *ResourceIdentifier) Relationship {
	if ref == nil {
		return Relationship{}
	}

	return Relationship{Data: []ResourceIdentifier{*ref}}
}

// NewToMany returns a to-many relationship with the given references in order.
func NewToMany(refs ...ResourceIdentifier) Relationship {
	if refs == nil {
		refs = []ResourceIdentifier{}
	}

	return Relationship{Data: refs, many: true}
}

// IsMany reports whether the relationship data was an array.
func (r Relationship) IsMany() bool {
	return r.many
}

// Single returns the to-one reference, or nil when it is null.
func (r Relationship) Single() *ResourceIdentifier {
	if r.many || len(r.Data) == 0 {
		return nil
	}

	ref := r.Data[0]

	return &ref
}

// UnmarshalJSON decodes {"data": ..., "links": ...}.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	var in struct {
		Data  json.RawMessage   `json:"data"`
		Links map[string]string `json:"links,omitempty"`
	}

	err := json.Unmarshal(data, &in)
	if err != nil {
		return fmt.Errorf("failed to unmarshal relationship: %w", err)
	}

	r.Links = in.Links
	r.Data = nil
	r.many = false

	raw := bytes.TrimLeft(in.Data, " \t\r\n")

	switch {
	case len(raw) == 0, bytes.HasPrefix(raw, []byte("null")):
		return nil
	case bytes.HasPrefix(raw, []byte("[")):
		refs := []ResourceIdentifier{}

		err = json.Unmarshal(raw, &refs)
		if err != nil {
			return fmt.Errorf("failed to unmarshal to-many relationship: %w", err)
		}

		r.Data = refs
		r.many = true
	default:
		var ref ResourceIdentifier

		err = json.Unmarshal(raw, &ref)
		if err != nil {
			return fmt.Errorf("failed to unmarshal to-one relationship: %w", err)
		}

		r.Data = []ResourceIdentifier{ref}
	}

	return nil
}

// MarshalJSON encodes the relationship back to its wire shape.
func (r Relationship) MarshalJSON() ([]byte, error) {
	type out struct {
		Data  interface{}       `json:"data"`
		Links map[string]string `json:"links,omitempty"`
	}

	value := out{Links: r.Links}

	switch {
	case r.many:
		value.Data = r.Data
	case len(r.Data) > 0:
		value.Data = r.Data[0]
	}

	return json.Marshal(value)
}

// Record is a single raw JSON:API resource object.
type Record struct {
	Type          string                  `json:"type"                    yaml:"type"`
	ID            string                  `json:"id"                      yaml:"id"`
	Attributes    map[string]interface{}  `json:"attributes,omitempty"    yaml:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty" yaml:"-"`
	Links         map[string]string       `json:"links,omitempty"         yaml:"links,omitempty"`
}

// Identifier returns the record's type and id.
func (r *Record) Identifier() ResourceIdentifier {
	return ResourceIdentifier{Type: r.Type, ID: r.ID}
}

// NextCursor is meta.next of a page.
type NextCursor struct {
	Offset *int `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Meta is the top-level meta object of a page.
type Meta struct {
	TotalCount *int        `json:"total_count,omitempty"  yaml:"total_count,omitempty"`
	Count      *int        `json:"count,omitempty"        yaml:"count,omitempty"`
	Next       *NextCursor `json:"next,omitempty"         yaml:"next,omitempty"`
	CanInclude []string    `json:"can_include,omitempty"  yaml:"can_include,omitempty"`
	CanOrderBy []string    `json:"can_order_by,omitempty" yaml:"can_order_by,omitempty"`
	CanQueryBy []string    `json:"can_query_by,omitempty" yaml:"can_query_by,omitempty"`
}

// HasNext reports whether the server advertised a next offset.
func (m Meta) HasNext() bool {
	return m.Next != nil && m.Next.Offset != nil
}

// Total returns total_count, or zero when the server did not report it.
func (m Meta) Total() int {
	if m.TotalCount == nil {
		return 0
	}

	return *m.TotalCount
}

// PrimaryData is the "data" member of a document: a collection for list
// endpoints and a single record for lookups by id.
type PrimaryData struct {
	Records []*Record

	many bool
}

// IsMany reports whether data was an array.
func (p PrimaryData) IsMany() bool {
	return p.many
}

// One returns the single record of a lookup envelope, or nil.
func (p PrimaryData) One() *Record {
	if len(p.Records) == 0 {
		return nil
	}

	return p.Records[0]
}

// UnmarshalJSON accepts an array, an object or null.
func (p *PrimaryData) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimLeft(data, " \t\r\n")

	p.Records = nil
	p.many = false

	switch {
	case len(raw) == 0, bytes.HasPrefix(raw, []byte("null")):
		return nil
	case bytes.HasPrefix(raw, []byte("[")):
		records := []*Record{}

		err := json.Unmarshal(raw, &records)
		if err != nil {
			return fmt.Errorf("failed to unmarshal primary data: %w", err)
		}

		p.Records = records
		p.many = true
	default:
		var record Record

		err := json.Unmarshal(raw, &record)
		if err != nil {
			return fmt.Errorf("failed to unmarshal primary data: %w", err)
		}

		p.Records = []*Record{&record}
	}

	return nil
}

// MarshalJSON encodes the data back to an array or a single object.
func (p PrimaryData) MarshalJSON() ([]byte, error) {
	if p.many {
		records := p.Records
		if records == nil {
			records = []*Record{}
		}

		return json.Marshal(records)
	}

	return json.Marshal(p.One())
}

// Document is one JSON:API response body.
type Document struct {
	Data     PrimaryData `json:"data"`
	Included []*Record   `json:"included,omitempty"`
	Meta     Meta        `json:"meta,omitempty"`
	Errors   []APIError  `json:"errors,omitempty"`
}

// NewCollectionDocument returns a document whose data is the given records.
func NewCollectionDocument(records ...*Record) *Document {
	if records == nil {
		records = []*Record{}
	}

	return &Document{Data: PrimaryData{Records: records, many: true}}
}

// NewSingleDocument returns a lookup envelope around one record.
func NewSingleDocument(record *Record) *Document {
	return &Document{Data: PrimaryData{Records: []*Record{record}}}
}

// ParseDocument decodes a JSON:API document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document

	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	return &doc, nil
}

// Getter issues GET requests and returns parsed JSON:API documents.
//
// Implementations must return a *TooManyRequestsError for HTTP 429 and an
// error satisfying IsNotFound for HTTP 404.
type Getter interface {
	Get(ctx context.Context, path string, query url.Values) (*Document, error)
}

// Connection is a Getter bound to an API endpoint.
type Connection interface {
	Getter
	BaseURL() string
}
