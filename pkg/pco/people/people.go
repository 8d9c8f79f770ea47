// Package people catalogues the resource types of the People v2 API and
// decodes their objects into typed structs.
package people

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// BasePath is the People v2 API prefix.
const BasePath = "/people/v2"

// Relationship names of a person.
const (
	RelAddresses    = "addresses"
	RelEmails       = "emails"
	RelPhoneNumbers = "phone_numbers"
	RelHouseholds   = "households"
)

// Person is a People v2 person.
type Person struct {
	ID           int           `json:"id"            yaml:"id"`
	FirstName    string        `json:"first_name"    yaml:"first_name"`
	MiddleName   string        `json:"middle_name"   yaml:"middle_name,omitempty"`
	LastName     string        `json:"last_name"     yaml:"last_name"`
	Nickname     string        `json:"nickname"      yaml:"nickname,omitempty"`
	Birthdate    string        `json:"birthdate"     yaml:"birthdate,omitempty"`
	Gender       string        `json:"gender"        yaml:"gender,omitempty"`
	Status       string        `json:"status"        yaml:"status,omitempty"`
	Membership   string        `json:"membership"    yaml:"membership,omitempty"`
	Child        bool          `json:"child"         yaml:"child"`
	CreatedAt    time.Time     `json:"created_at"    yaml:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"    yaml:"updated_at"`
	Addresses    []Address     `json:"addresses"     yaml:"addresses,omitempty"`
	Emails       []Email       `json:"emails"        yaml:"emails,omitempty"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers" yaml:"phone_numbers,omitempty"`
	Households   []Household   `json:"households"    yaml:"households,omitempty"`
}

// Name returns "first last".
func (p Person) Name() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// PrimaryEmail returns the primary email address, or the first one.
func (p Person) PrimaryEmail() string {
	for _, email := range p.Emails {
		if email.Primary {
			return email.Address
		}
	}

	if len(p.Emails) > 0 {
		return p.Emails[0].Address
	}

	return ""
}

// Address is a postal address.
type Address struct {
	ID       int    `json:"id"       yaml:"id"`
	Street   string `json:"street"   yaml:"street"`
	City     string `json:"city"     yaml:"city"`
	State    string `json:"state"    yaml:"state"`
	Zip      string `json:"zip"      yaml:"zip"`
	Location string `json:"location" yaml:"location,omitempty"`
	Primary  bool   `json:"primary"  yaml:"primary"`
}

// Email is an email address.
type Email struct {
	ID       int    `json:"id"       yaml:"id"`
	Address  string `json:"address"  yaml:"address"`
	Location string `json:"location" yaml:"location,omitempty"`
	Primary  bool   `json:"primary"  yaml:"primary"`
}

// PhoneNumber is a phone number.
type PhoneNumber struct {
	ID       int    `json:"id"       yaml:"id"`
	Number   string `json:"number"   yaml:"number"`
	Carrier  string `json:"carrier"  yaml:"carrier,omitempty"`
	Location string `json:"location" yaml:"location,omitempty"`
	Primary  bool   `json:"primary"  yaml:"primary"`
}

// Household groups people living together.
type Household struct {
	ID                 int    `json:"id"                   yaml:"id"`
	Name               string `json:"name"                 yaml:"name"`
	MemberCount        int    `json:"member_count"         yaml:"member_count"`
	PrimaryContactName string `json:"primary_contact_name" yaml:"primary_contact_name,omitempty"`
}

// Catalogue holds the People v2 resource types bound to one connection.
type Catalogue struct {
	Base        *pco.ResourceType
	Person      *pco.ResourceType
	Address     *pco.ResourceType
	Email       *pco.ResourceType
	PhoneNumber *pco.ResourceType
	Household   *pco.ResourceType
}

// New builds the catalogue. retry may be nil.
func New(conn pco.Getter, logger pco.Logger, retry *pco.RetryPolicy) *Catalogue {
	base := pco.NewResourceType(pco.ResourceConfig{
		BasePath:   BasePath,
		Connection: conn,
		Logger:     logger,
		Retry:      retry,
	})

	child := func(name, path string) *pco.ResourceType {
		return pco.NewResourceType(pco.ResourceConfig{Name: name, Path: path, Parent: base})
	}

	return &Catalogue{
		Base:        base,
		Person:      child("Person", "people"),
		Address:     child("Address", "addresses"),
		Email:       child("Email", "emails"),
		PhoneNumber: child("PhoneNumber", "phone_numbers"),
		Household:   child("Household", "households"),
	}
}

// PersonIncludes maps every relationship of a person this catalogue knows.
func (c *Catalogue) PersonIncludes() pco.Includes {
	return pco.Includes{
		RelAddresses:    c.Address,
		RelEmails:       c.Email,
		RelPhoneNumbers: c.PhoneNumber,
		RelHouseholds:   c.Household,
	}
}

// People returns a proxy over people with every known relationship included.
func (c *Catalogue) People() *pco.CollectionProxy {
	return c.Person.Includes(c.PersonIncludes())
}

// ListPeople returns up to limit people matching filters. A limit of zero
// or less returns every match.
func (c *Catalogue) ListPeople(ctx context.Context, filters map[string]string, limit int) ([]Person, error) {
	people := []Person{}

	err := c.People().Where(filters).Each(ctx, func(obj *pco.Object) error {
		person, err := DecodePerson(obj)
		if err != nil {
			return err
		}

		people = append(people, *person)
		if limit > 0 && len(people) >= limit {
			return pco.ErrStopIteration
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}

	return people, nil
}

// GetPerson fetches one person with every known relationship.
func (c *Catalogue) GetPerson(ctx context.Context, id string) (*Person, error) {
	obj, err := c.People().Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting person %s: %w", id, err)
	}

	return DecodePerson(obj)
}

// DecodePerson converts an object built by the Person type.
func DecodePerson(obj *pco.Object) (*Person, error) {
	var person Person

	err := obj.Decode(&person)
	if err != nil {
		return nil, err
	}

	return &person, nil
}
