// Package pco provides types and helpers for reading JSON:API resources from
// the Planning Center API (and any endpoint that speaks the same paginated
// JSON:API dialect).
//
// # Overview
//
// A ResourceType describes one kind of record: its path under the API and the
// connection used to reach it. ResourceType values return CollectionProxy
// values, which assemble a query (filters, sort keys, page size, included
// relationships) and fetch pages lazily as records are consumed. Every record
// is turned into an Object by the resource builder, which also resolves the
// record's relationships against the page's "included" section.
//
// Getting a connection
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/pco-client/pkg/pco"
//	  "github.com/fivetwenty-io/pco-client/pkg/pcoclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  conn, err := pcoclient.New(ctx, &pco.Config{AppID: "id", Secret: "secret"})
//	  if err != nil { log.Fatal(err) }
//
//	  base := pco.NewResourceType(pco.ResourceConfig{BasePath: "/people/v2", Connection: conn})
//	  address := pco.NewResourceType(pco.ResourceConfig{Name: "Address", Path: "addresses", Parent: base})
//	  person := pco.NewResourceType(pco.ResourceConfig{Name: "Person", Path: "people", Parent: base})
//
//	  people, err := person.Where(map[string]string{"first_name": "Tim"}).
//	    Includes(pco.Includes{"addresses": address}).
//	    All(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = people
//	}
//
// # Pagination
//
// CollectionProxy.Each walks the collection one record at a time, fetching a
// new page only when the buffered page is exhausted and the server advertised
// a next offset. All, First and Last reset the cursor before they start, so a
// proxy can be consumed repeatedly. A 429 response is retried after the
// server supplied Retry-After delay without surfacing an error.
//
// # Errors
//
// ResponseError carries the JSON:API error objects of a failed request.
// IsNotFound and IsTooManyRequests classify transport errors, and lookups by
// id report ErrRecordNotFound.
package pco
