// Package oskeyring adapts the operating system keyring (macOS Keychain,
// Secret Service, Windows Credential Manager, KWallet, pass or an encrypted
// file) to the SecureStore port via github.com/99designs/keyring.
package oskeyring

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/99designs/keyring"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
	"github.com/ericfisherdev/keychainquery/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SecureStore = (*Store)(nil)

// Config selects and configures the keyring backend.
type Config struct {
	// ServiceName namespaces the entries this store writes.
	ServiceName string
	// Backends restricts which keyring backends may be used, in preference
	// order ("keychain", "secret-service", "wincred", "file", ...). Empty
	// lets the library choose.
	Backends []string
	// FileDir and FilePassword configure the encrypted-file backend.
	FileDir      string
	FilePassword string
}

// Store is a SecureStore over a keyring.Keyring. Each item is stored under a
// key derived from its service, account and access group; label and comment
// travel in the keyring item's label and description.
type Store struct {
	kr keyring.Keyring
}

// Open opens the system keyring described by cfg.
func Open(cfg Config) (*Store, error) {
	kcfg := keyring.Config{
		ServiceName:              cfg.ServiceName,
		KeychainName:             "login",
		KeychainTrustApplication: true,
		LibSecretCollectionName:  "login",
		KWalletAppID:             cfg.ServiceName,
		KWalletFolder:            cfg.ServiceName,
		FileDir:                  cfg.FileDir,
		PassPrefix:               cfg.ServiceName,
	}
	for _, b := range cfg.Backends {
		kcfg.AllowedBackends = append(kcfg.AllowedBackends, keyring.BackendType(strings.TrimSpace(b)))
	}
	if cfg.FilePassword != "" {
		kcfg.FilePasswordFunc = keyring.FixedStringPrompt(cfg.FilePassword)
	}

	kr, err := keyring.Open(kcfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return New(kr), nil
}

// New wraps an already opened keyring.
func New(kr keyring.Keyring) *Store {
	return &Store{kr: kr}
}

// Add stores one item. The keyring has no notion of accessibility or
// partitions, so those attributes are accepted and dropped.
func (s *Store) Add(_ context.Context, attrs model.Dictionary) error {
	if err := checkClass(attrs); err != nil {
		return err
	}
	id := identityOf(attrs)

	if _, err := s.kr.Get(id.key()); err == nil {
		return model.NewStatusError(model.StatusDuplicateItem, "")
	} else if !errors.Is(err, keyring.ErrKeyNotFound) {
		return statusFrom(err)
	}

	item := keyring.Item{Key: id.key()}
	item.Data, _ = attrs.Bytes(model.KeyValueData)
	item.Label, _ = attrs.String(model.KeyLabel)
	item.Description, _ = attrs.String(model.KeyComment)
	if v, ok := attrs[model.KeySynchronizable]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return model.NewStatusError(model.StatusParam, "synchronizable must be a boolean when adding an item")
		}
		item.KeychainNotSynchronizable = !b
	} else {
		item.KeychainNotSynchronizable = true
	}

	if err := s.kr.Set(item); err != nil {
		return statusFrom(err)
	}
	return nil
}

// Delete removes every item whose key and sync state match query.
func (s *Store) Delete(_ context.Context, query model.Dictionary) error {
	keys, err := s.matchingKeys(query)
	if err != nil {
		return err
	}

	removed := 0
	for _, k := range keys {
		// Some backends remove missing keys without error, so look first.
		item, err := s.kr.Get(k)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return statusFrom(err)
		}
		if !matchesSync(query, item) {
			continue
		}
		if err := s.kr.Remove(k); err != nil {
			if errors.Is(err, keyring.ErrKeyNotFound) {
				continue
			}
			return statusFrom(err)
		}
		removed++
	}

	if removed == 0 {
		return model.NewStatusError(model.StatusItemNotFound, "")
	}
	return nil
}

// CopyMatching returns the items whose key and sync state match query. The
// match limit applies after the sync filter.
func (s *Store) CopyMatching(_ context.Context, query model.Dictionary) ([]model.Dictionary, error) {
	keys, err := s.matchingKeys(query)
	if err != nil {
		return nil, err
	}
	limitAll := false
	if v, _ := query.String(model.KeyMatchLimit); v == model.MatchLimitAll {
		limitAll = true
	}

	returnData, _ := query.Bool(model.KeyReturnData)
	returnAttrs, _ := query.Bool(model.KeyReturnAttributes)

	var results []model.Dictionary
	for _, k := range keys {
		item, err := s.kr.Get(k)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, statusFrom(err)
		}
		if !matchesSync(query, item) {
			continue
		}

		d := model.Dictionary{}
		if returnAttrs {
			id, _ := parseKey(k)
			id.attributes(d)
			if item.Label != "" {
				d[model.KeyLabel] = item.Label
			}
			if item.Description != "" {
				d[model.KeyComment] = item.Description
			}
			d[model.KeySynchronizable] = !item.KeychainNotSynchronizable
		}
		if returnData {
			data := item.Data
			if data == nil {
				data = []byte{}
			}
			d[model.KeyValueData] = data
		}
		results = append(results, d)
		if !limitAll {
			break
		}
	}

	if len(results) == 0 {
		return nil, model.NewStatusError(model.StatusItemNotFound, "")
	}
	return results, nil
}

// matchingKeys lists the keyring keys that belong to this store and match the
// identity fields set in query.
func (s *Store) matchingKeys(query model.Dictionary) ([]string, error) {
	if err := checkClass(query); err != nil {
		return nil, err
	}
	want := identityOf(query)
	_, hasAccount := query.String(model.KeyAccount)
	_, hasService := query.String(model.KeyService)
	_, hasGroup := query.String(model.KeyAccessGroup)

	// A fully specified identity needs no enumeration.
	if hasAccount && hasService && hasGroup {
		return []string{want.key()}, nil
	}

	all, err := s.kr.Keys()
	if err != nil {
		return nil, statusFrom(err)
	}

	var keys []string
	for _, k := range all {
		id, ok := parseKey(k)
		if !ok {
			continue
		}
		if hasAccount && id.account != want.account {
			continue
		}
		if hasService && id.service != want.service {
			continue
		}
		if hasGroup && id.group != want.group {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func matchesSync(query model.Dictionary, item keyring.Item) bool {
	v, wildcard := query.Synchronizable()
	if wildcard {
		return true
	}
	return v == !item.KeychainNotSynchronizable
}

// identity is the primary key of a keyring entry.
type identity struct {
	service string
	account string
	group   string
}

const keyPrefix = "kq"

func identityOf(d model.Dictionary) identity {
	var id identity
	id.service, _ = d.String(model.KeyService)
	id.account, _ = d.String(model.KeyAccount)
	id.group, _ = d.String(model.KeyAccessGroup)
	return id
}

// key encodes id as "kq/<service>/<account>/<group>" with each part
// query-escaped so it cannot contain a slash.
func (id identity) key() string {
	return strings.Join([]string{
		keyPrefix,
		url.QueryEscape(id.service),
		url.QueryEscape(id.account),
		url.QueryEscape(id.group),
	}, "/")
}

func parseKey(k string) (identity, bool) {
	parts := strings.Split(k, "/")
	if len(parts) != 4 || parts[0] != keyPrefix {
		return identity{}, false
	}
	var id identity
	var err error
	if id.service, err = url.QueryUnescape(parts[1]); err != nil {
		return identity{}, false
	}
	if id.account, err = url.QueryUnescape(parts[2]); err != nil {
		return identity{}, false
	}
	if id.group, err = url.QueryUnescape(parts[3]); err != nil {
		return identity{}, false
	}
	return id, true
}

func (id identity) attributes(d model.Dictionary) {
	d[model.KeyClass] = model.ClassGenericPassword
	if id.service != "" {
		d[model.KeyService] = id.service
	}
	if id.account != "" {
		d[model.KeyAccount] = id.account
	}
	if id.group != "" {
		d[model.KeyAccessGroup] = id.group
	}
}

func checkClass(attrs model.Dictionary) error {
	class, ok := attrs.String(model.KeyClass)
	if !ok || class == "" {
		return model.NewStatusError(model.StatusParam, "item class is required")
	}
	if class != model.ClassGenericPassword {
		return model.NewStatusError(model.StatusUnimplemented, fmt.Sprintf("item class %q is not supported", class))
	}
	return nil
}

// statusFrom maps keyring library errors onto native statuses.
func statusFrom(err error) error {
	switch {
	case errors.Is(err, keyring.ErrKeyNotFound):
		return model.WrapStatus(model.StatusItemNotFound, err)
	case errors.Is(err, keyring.ErrNoAvailImpl):
		return model.WrapStatus(model.StatusNotAvailable, err)
	default:
		return model.WrapStatus(model.StatusIO, err)
	}
}
