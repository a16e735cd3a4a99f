package model

import (
	"bytes"
	"time"
	"unicode/utf8"
)

// Query holds the attributes of one keychain item. Account, Service and
// AccessGroup form its identity; empty fields are wildcards when matching.
// All other fields describe the item and are written on save.
type Query struct {
	Account     string
	Service     string
	Label       string
	Comment     string
	AccessGroup string

	// Accessibility overrides the keychain's default policy for this item.
	Accessibility Accessibility

	SynchronizationMode SynchronizationMode
	Backend             Backend

	// SecretBytes is the item's payload. Nil means "not set".
	SecretBytes []byte
}

// NewQuery returns a query identified by service and account.
func NewQuery(service, account string) *Query {
	return &Query{Service: service, Account: account}
}

// SetSecretText stores s as the UTF-8 payload.
func (q *Query) SetSecretText(s string) {
	q.SecretBytes = []byte(s)
}

// SecretText decodes the payload as UTF-8. Invalid bytes yield "" and an
// error of kind KindEncoding; a nil payload yields "" and no error.
func (q *Query) SecretText() (string, error) {
	if q.SecretBytes == nil {
		return "", nil
	}
	if !utf8.Valid(q.SecretBytes) {
		return "", NewError(StatusInvalidEncoding, "")
	}
	return string(q.SecretBytes), nil
}

// HasIdentity reports whether at least one of account or service is set.
func (q *Query) HasIdentity() bool {
	return q.Account != "" || q.Service != ""
}

// SetSecretBytes stores a copy of b as the payload.
func (q *Query) SetSecretBytes(b []byte) {
	if b == nil {
		q.SecretBytes = nil
		return
	}
	q.SecretBytes = bytes.Clone(b)
}

// Item is the attribute set of one stored entry as returned by FetchAll. It
// never carries the payload.
type Item struct {
	Account        string        `json:"account,omitempty" yaml:"account,omitempty"`
	Service        string        `json:"service,omitempty" yaml:"service,omitempty"`
	Label          string        `json:"label,omitempty" yaml:"label,omitempty"`
	Comment        string        `json:"comment,omitempty" yaml:"comment,omitempty"`
	AccessGroup    string        `json:"access_group,omitempty" yaml:"access_group,omitempty"`
	Accessibility  Accessibility `json:"accessibility,omitempty" yaml:"accessibility,omitempty"`
	Synchronizable bool          `json:"synchronizable" yaml:"synchronizable"`
	CreatedAt      time.Time     `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	ModifiedAt     time.Time     `json:"modified_at,omitzero" yaml:"modified_at,omitempty"`
}

// ItemFromAttributes builds an Item from an attribute dictionary. Payload
// keys are ignored.
func ItemFromAttributes(d Dictionary) Item {
	var it Item
	it.Account, _ = d.String(KeyAccount)
	it.Service, _ = d.String(KeyService)
	it.Label, _ = d.String(KeyLabel)
	it.Comment, _ = d.String(KeyComment)
	it.AccessGroup, _ = d.String(KeyAccessGroup)
	if a, ok := d.String(KeyAccessible); ok {
		it.Accessibility = Accessibility(a)
	}
	it.Synchronizable, _ = d.Bool(KeySynchronizable)
	it.CreatedAt, _ = d.Time(KeyCreationDate)
	it.ModifiedAt, _ = d.Time(KeyModificationDate)
	return it
}
