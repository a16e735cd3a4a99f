package application

import (
	"bytes"
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
	"github.com/ericfisherdev/keychainquery/internal/domain/port/driven"
)

// Keychain translates model.Query values into native store dictionaries and
// maps the store's statuses back into *model.Error values. It keeps no state
// between calls beyond its configuration, so one Keychain can serve any
// number of queries.
type Keychain struct {
	store                driven.SecureStore
	platform             model.Platform
	defaultAccessibility model.Accessibility
	logger               *zap.Logger
}

// Option configures a Keychain.
type Option func(*Keychain)

// WithPlatform sets the platform used for the synchronization and legacy
// mode probes. The zero Platform supports neither.
func WithPlatform(p model.Platform) Option {
	return func(k *Keychain) { k.platform = p }
}

// WithDefaultAccessibility sets the policy applied to saved items that do not
// set their own.
func WithDefaultAccessibility(a model.Accessibility) Option {
	return func(k *Keychain) { k.defaultAccessibility = a }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(k *Keychain) {
		if l != nil {
			k.logger = l
		}
	}
}

// NewKeychain creates a Keychain backed by store.
func NewKeychain(store driven.SecureStore, opts ...Option) *Keychain {
	k := &Keychain{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Save writes q as a new item. Items with the same account, service and
// access group are deleted first; a NotFound from that step is ignored, any
// other failure aborts the save.
func (k *Keychain) Save(ctx context.Context, q *model.Query) error {
	if err := k.validate(q, true); err != nil {
		return err
	}
	if q.SecretBytes == nil {
		return model.NewError(model.StatusBadArguments, "secret payload is not set")
	}

	log := k.logger.With(queryFields(q)...)

	err := k.store.Delete(ctx, k.identityPredicate(q))
	switch {
	case err == nil:
		log.Debug("replaced existing keychain item")
	case model.StatusOf(err) == model.StatusItemNotFound:
		log.Debug("no existing keychain item to replace")
	default:
		return model.FromStoreError(err)
	}

	if err := k.store.Add(ctx, k.addAttributes(q)); err != nil {
		return model.FromStoreError(err)
	}
	log.Debug("saved keychain item")
	return nil
}

// Delete removes every item matching q's identity. Deleting an identity with
// no stored item returns an error of kind NotFound; callers that want
// idempotent deletes can test for it with errors.Is(err, model.ErrNotFound).
func (k *Keychain) Delete(ctx context.Context, q *model.Query) error {
	if err := k.validate(q, true); err != nil {
		return err
	}
	if err := k.store.Delete(ctx, k.identityPredicate(q)); err != nil {
		return model.FromStoreError(err)
	}
	k.logger.Debug("deleted keychain items", queryFields(q)...)
	return nil
}

// FetchAll returns the attributes of every item matching q. Unset identity
// fields match anything, so a zero Query lists the whole keychain. No match
// is an empty result, not an error. Order is unspecified.
func (k *Keychain) FetchAll(ctx context.Context, q *model.Query) ([]model.Item, error) {
	if err := k.validate(q, false); err != nil {
		return nil, err
	}

	results, err := k.store.CopyMatching(ctx, k.fetchAllQuery(q))
	if err != nil {
		if model.StatusOf(err) == model.StatusItemNotFound {
			return []model.Item{}, nil
		}
		return nil, model.FromStoreError(err)
	}

	items := make([]model.Item, 0, len(results))
	for _, attrs := range results {
		items = append(items, model.ItemFromAttributes(attrs))
	}
	k.logger.Debug("fetched keychain items", append(queryFields(q), zap.Int("count", len(items)))...)
	return items, nil
}

// Fetch loads the single item matching q into q: its payload, and its label,
// comment and access group when the store returns them. On failure q is left
// unchanged.
func (k *Keychain) Fetch(ctx context.Context, q *model.Query) error {
	if err := k.validate(q, true); err != nil {
		return err
	}

	results, err := k.store.CopyMatching(ctx, k.fetchOneQuery(q))
	if err != nil {
		return model.FromStoreError(err)
	}
	if len(results) == 0 {
		return model.NewError(model.StatusItemNotFound, "")
	}

	attrs := results[0]
	data, ok := attrs.Bytes(model.KeyValueData)
	if !ok {
		return model.NewError(model.StatusDecode, "item has no payload")
	}

	q.SecretBytes = bytes.Clone(data)
	if v, ok := attrs.String(model.KeyLabel); ok {
		q.Label = v
	}
	if v, ok := attrs.String(model.KeyComment); ok {
		q.Comment = v
	}
	if v, ok := attrs.String(model.KeyAccessGroup); ok {
		q.AccessGroup = v
	}
	k.logger.Debug("fetched keychain item", queryFields(q)...)
	return nil
}

// validate rejects queries that cannot be expressed on the configured
// platform, and, when identity is set, queries with no account or service.
func (k *Keychain) validate(q *model.Query, identity bool) error {
	if q == nil {
		return model.NewError(model.StatusBadArguments, "query is nil")
	}
	if identity && !q.HasIdentity() {
		return model.NewError(model.StatusBadArguments, "account or service must be set")
	}
	if q.Backend == model.BackendLegacy && !model.IsLegacyModeAvailable(k.platform) {
		return model.NewError(model.StatusBadArguments, "legacy keychain is not available on "+k.platform.String())
	}
	if q.Accessibility != "" && !q.Accessibility.Valid() {
		return model.NewError(model.StatusBadArguments, "unknown accessibility "+string(q.Accessibility))
	}
	return nil
}

func queryFields(q *model.Query) []zap.Field {
	return []zap.Field{
		zap.String("service", q.Service),
		zap.String("account", q.Account),
		zap.String("access_group", q.AccessGroup),
		zap.Stringer("backend", q.Backend),
	}
}

// IsNotFound reports whether err is a NotFound keychain error.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
