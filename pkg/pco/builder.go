package pco

import (
	"strconv"
)

// includedIndex looks up included records by type and id.
type includedIndex map[string]*Record

func indexIncluded(included []*Record) includedIndex {
	index := make(includedIndex, len(included))

	for _, record := range included {
		if record == nil {
			continue
		}

		key := record.Identifier().key()
		if _, seen := index[key]; !seen {
			index[key] = record
		}
	}

	return index
}

// builder carries the state of one Build call.
type builder struct {
	index includedIndex
	path  map[string]bool
}

// Build turns a record into an Object of this type. Relationships named in
// includes are resolved against the included records; those not named are
// left off the object. Related records are built with the type the mapping
// names for them and resolve their own relationships with the same mapping.
func (rt *ResourceType) Build(record *Record, included []*Record, includes Includes) *Object {
	if record == nil {
		return nil
	}

	b := &builder{
		index: indexIncluded(included),
		path:  map[string]bool{},
	}

	return b.build(rt, record, includes)
}

func (b *builder) build(kind *ResourceType, record *Record, includes Includes) *Object {
	obj := &Object{
		kind:          kind,
		recordID:      record.ID,
		attributes:    make(map[string]interface{}, len(record.Attributes)+1),
		relationships: record.Relationships,
	}

	for name, value := range record.Attributes {
		obj.attributes[name] = value
	}

	obj.attributes["id"] = parseID(record.ID)

	key := record.Identifier().key()
	if b.path[key] {
		return obj
	}

	b.path[key] = true
	defer delete(b.path, key)

	for name, rel := range record.Relationships {
		target, mapped := includes[name]
		if !mapped || target == nil {
			continue
		}

		if rel.IsMany() {
			obj.setRelated(name, related{list: true, many: b.buildMany(target, rel.Data, includes)})

			continue
		}

		ref := rel.Single()
		if ref == nil {
			continue
		}

		obj.setRelated(name, related{one: b.buildOne(target, *ref, includes)})
	}

	return obj
}

func (b *builder) buildOne(target *ResourceType, ref ResourceIdentifier, includes Includes) *Object {
	match, ok := b.index[ref.key()]
	if !ok {
		return nil
	}

	return b.build(target, match, includes)
}

func (b *builder) buildMany(target *ResourceType, refs []ResourceIdentifier, includes Includes) []*Object {
	out := make([]*Object, 0, len(refs))

	for _, ref := range refs {
		obj := b.buildOne(target, ref, includes)
		if obj != nil {
			out = append(out, obj)
		}
	}

	return out
}

func (o *Object) setRelated(name string, rel related) {
	if o.related == nil {
		o.related = map[string]related{}
	}

	o.related[name] = rel
}

// parseID converts a wire id to an integer. Ids that are not integers
// become 0.
func parseID(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0
	}

	return n
}
