package pco

import (
	"fmt"
	"maps"
	"reflect"
	"sort"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// related is one resolved relationship of an Object.
type related struct {
	one  *Object
	many []*Object
	list bool
}

// Object is a record built into application-facing form: its attributes
// with an injected integer "id", plus the relationships resolved from the
// page's included records. Objects are not modified after Build returns.
type Object struct {
	kind          *ResourceType
	recordID      string
	attributes    map[string]interface{}
	related       map[string]related
	relationships map[string]Relationship
}

// ID returns the injected integer id.
func (o *Object) ID() int {
	id, _ := o.attributes["id"].(int)

	return id
}

// RecordID returns the id exactly as it appeared on the wire.
func (o *Object) RecordID() string {
	return o.recordID
}

// Kind returns the resource type that built the object.
func (o *Object) Kind() *ResourceType {
	return o.kind
}

// Attributes returns a copy of the attribute map, id included.
func (o *Object) Attributes() map[string]interface{} {
	return maps.Clone(o.attributes)
}

// Attr returns the named attribute.
func (o *Object) Attr(name string) (interface{}, bool) {
	value, ok := o.attributes[name]

	return value, ok
}

// String returns the named attribute formatted as a string, or "" when it is
// missing or null.
func (o *Object) String(name string) string {
	value, ok := o.attributes[name]
	if !ok || value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprint(value)
}

// Has reports whether a relationship field was set by the builder.
func (o *Object) Has(name string) bool {
	_, ok := o.related[name]

	return ok
}

// One returns a resolved to-one relationship. The object is nil when the
// reference pointed at a record missing from the included set. ok is false
// when the field is absent.
func (o *Object) One(name string) (*Object, bool) {
	rel, ok := o.related[name]
	if !ok || rel.list {
		return nil, false
	}

	return rel.one, true
}

// Many returns a resolved to-many relationship in reference order. ok is
// false when the field is absent.
func (o *Object) Many(name string) ([]*Object, bool) {
	rel, ok := o.related[name]
	if !ok || !rel.list {
		return nil, false
	}

	return append([]*Object{}, rel.many...), true
}

// Fields returns the names of the resolved relationship fields, sorted.
func (o *Object) Fields() []string {
	names := make([]string, 0, len(o.related))
	for name := range o.related {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Relationships returns the raw relationship references of the record.
func (o *Object) Relationships() map[string]Relationship {
	return maps.Clone(o.relationships)
}

// Equal reports whether both objects have the same kind name and the same
// attributes. Relationships do not take part in the comparison.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}

	return o.kindName() == other.kindName() && reflect.DeepEqual(o.attributes, other.attributes)
}

// ToMap returns the attributes merged with resolved relationships, each
// related object rendered the same way.
func (o *Object) ToMap() map[string]interface{} {
	out := maps.Clone(o.attributes)
	if out == nil {
		out = map[string]interface{}{}
	}

	for name, rel := range o.related {
		if !rel.list {
			if rel.one == nil {
				out[name] = nil
			} else {
				out[name] = rel.one.ToMap()
			}

			continue
		}

		items := make([]interface{}, 0, len(rel.many))
		for _, item := range rel.many {
			items = append(items, item.ToMap())
		}

		out[name] = items
	}

	return out
}

// Decode copies the object into out, matching fields by their json tags.
func (o *Object) Decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	err = decoder.Decode(o.ToMap())
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", o.kindName(), err)
	}

	return nil
}

func (o *Object) kindName() string {
	if o.kind == nil {
		return ""
	}

	return o.kind.Name()
}
