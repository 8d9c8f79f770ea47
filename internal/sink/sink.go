// Package sink writes exported records to external stores.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fivetwenty-io/pco-client/internal/constants"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// Sink receives built objects one at a time.
type Sink interface {
	Write(ctx context.Context, obj *pco.Object) error
	Close() error
}

// Destination is a parsed sink argument such as "sqlite:people.db" or
// "nats://localhost:4222#pco.people".
type Destination struct {
	Type    string
	Target  string
	Subject string
}

// Entry is the serialized form of an exported object.
type Entry struct {
	Kind          string                      `json:"kind"`
	ID            string                      `json:"id"`
	Attributes    map[string]interface{}      `json:"attributes"`
	Relationships map[string]pco.Relationship `json:"relationships,omitempty"`
	FetchedAt     time.Time                   `json:"fetched_at"`
}

// NewEntry snapshots obj for export.
func NewEntry(obj *pco.Object, now time.Time) Entry {
	kind := ""
	if obj.Kind() != nil {
		kind = obj.Kind().Name()
	}

	return Entry{
		Kind:          kind,
		ID:            obj.RecordID(),
		Attributes:    obj.ToMap(),
		Relationships: obj.Relationships(),
		FetchedAt:     now.UTC(),
	}
}

// Marshal encodes the entry as JSON.
func (e Entry) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s %s: %w", e.Kind, e.ID, err)
	}

	return data, nil
}

// ParseDestination parses "sqlite:FILE" or "nats:URL#SUBJECT". A NATS
// destination without a subject uses constants.DefaultNATSSubject.
func ParseDestination(raw string) (Destination, error) {
	kind, target, ok := strings.Cut(raw, ":")
	if !ok || kind == "" {
		return Destination{}, fmt.Errorf("%w: %q", constants.ErrInvalidSink, raw)
	}

	switch kind {
	case constants.SinkSQLite:
		if target == "" {
			return Destination{}, fmt.Errorf("%w: missing file in %q", constants.ErrInvalidSink, raw)
		}

		return Destination{Type: kind, Target: target}, nil

	case constants.SinkNATS:
		url, subject, _ := strings.Cut(target, "#")
		if url == "" {
			return Destination{}, fmt.Errorf("%w: missing url in %q", constants.ErrInvalidSink, raw)
		}

		if subject == "" {
			subject = constants.DefaultNATSSubject
		}

		return Destination{Type: kind, Target: url, Subject: subject}, nil

	default:
		return Destination{}, fmt.Errorf("%w: %s", constants.ErrUnsupportedSink, kind)
	}
}

// Open creates the sink described by dest.
func Open(ctx context.Context, dest Destination) (Sink, error) {
	switch dest.Type {
	case constants.SinkSQLite:
		return NewSQLiteSink(ctx, dest.Target)
	case constants.SinkNATS:
		return NewNATSSink(dest.Target, dest.Subject)
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedSink, dest.Type)
	}
}

// Drain writes every object of the proxy to s and returns how many were
// written. limit <= 0 means no limit.
func Drain(ctx context.Context, proxy *pco.CollectionProxy, s Sink, limit int) (int, error) {
	written := 0

	err := proxy.Each(ctx, func(obj *pco.Object) error {
		if err := s.Write(ctx, obj); err != nil {
			return err
		}

		written++
		if limit > 0 && written >= limit {
			return pco.ErrStopIteration
		}

		return nil
	})
	if err != nil {
		return written, fmt.Errorf("export stopped after %d records: %w", written, err)
	}

	return written, nil
}
