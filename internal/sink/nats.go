package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/pco-client/internal/constants"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// NATSSink publishes each object as a JSON entry. Objects of kind "Person"
// go to "<subject>.Person".
type NATSSink struct {
	conn    *nats.Conn
	subject string
	now     func() time.Time
}

// NewNATSSink connects to url.
func NewNATSSink(url, subject string) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name(constants.DefaultUserAgent))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return NewNATSSinkWithConn(conn, subject), nil
}

// NewNATSSinkWithConn wraps an existing connection. The sink owns conn and
// closes it on Close.
func NewNATSSinkWithConn(conn *nats.Conn, subject string) *NATSSink {
	if subject == "" {
		subject = constants.DefaultNATSSubject
	}

	return &NATSSink{conn: conn, subject: subject, now: time.Now}
}

// Subject returns the subject obj is published on.
func (s *NATSSink) Subject(obj *pco.Object) string {
	return SubjectFor(s.subject, obj)
}

// Write publishes obj.
func (s *NATSSink) Write(ctx context.Context, obj *pco.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := NewEntry(obj, s.now())

	data, err := entry.Marshal()
	if err != nil {
		return err
	}

	if err := s.conn.Publish(s.Subject(obj), data); err != nil {
		return fmt.Errorf("publishing %s %s: %w", entry.Kind, entry.ID, err)
	}

	return nil
}

// Close flushes pending messages and closes the connection.
func (s *NATSSink) Close() error {
	if s.conn == nil || s.conn.IsClosed() {
		return nil
	}

	defer s.conn.Close()

	if err := s.conn.FlushTimeout(constants.NATSFlushTimeout); err != nil {
		return fmt.Errorf("flushing NATS connection: %w", err)
	}

	return nil
}

// SubjectFor appends the object's kind to base.
func SubjectFor(base string, obj *pco.Object) string {
	if obj == nil || obj.Kind() == nil || obj.Kind().Name() == "" {
		return base
	}

	return base + "." + obj.Kind().Name()
}
