package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
	"github.com/ericfisherdev/keychainquery/internal/domain/port/driven"
)

// ErrEncryptionKeyNotSet is reported (as StatusNotAvailable) when the repo was
// constructed without a payload key and an operation needs one.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set KEYCHAINQUERY_SECRET_KEY")

// Compile-time interface satisfaction check.
var _ driven.SecureStore = (*CredentialRepo)(nil)

const itemsTable = "keychain_items"

const (
	partitionModern = "modern"
	partitionLegacy = "legacy"
)

var itemColumns = []string{
	"id", "keychain", "class", "account", "service", "access_group", "synchronizable",
	"label", "comment", "accessible", "data", "created_at", "updated_at",
}

// CredentialRepo is the SQLite implementation of the SecureStore port. It
// stores generic-password items in keychain_items, encrypting each payload
// with AES-256-GCM. Modern and legacy items live in separate partitions of
// the same table.
type CredentialRepo struct {
	db     *DB
	key    []byte // 32-byte AES-256 key; nil disables payload reads and writes.
	groups []string
	now    func() time.Time
}

// CredentialRepoOption configures a CredentialRepo.
type CredentialRepoOption func(*CredentialRepo)

// WithAccessGroups entitles the repo to the given access groups. Items added
// without a group get the first one; queries naming any other group fail
// with StatusMissingEntitlement. With no groups every group is allowed.
func WithAccessGroups(groups ...string) CredentialRepoOption {
	return func(r *CredentialRepo) {
		for _, g := range groups {
			if g = strings.TrimSpace(g); g != "" {
				r.groups = append(r.groups, g)
			}
		}
	}
}

// WithClock overrides the time source for created_at/updated_at.
func WithClock(now func() time.Time) CredentialRepoOption {
	return func(r *CredentialRepo) { r.now = now }
}

// NewCredentialRepo creates a CredentialRepo. key must be 32 bytes, or nil
// to run without payload access (attribute-only queries and deletes still
// work).
func NewCredentialRepo(db *DB, key []byte, opts ...CredentialRepoOption) *CredentialRepo {
	r := &CredentialRepo{db: db, key: key, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add inserts one item. The item must be a generic password; a missing
// accessibility defaults to AccessibleWhenUnlocked.
func (r *CredentialRepo) Add(ctx context.Context, attrs model.Dictionary) error {
	if r.key == nil {
		return model.WrapStatus(model.StatusNotAvailable, ErrEncryptionKeyNotSet)
	}
	if err := checkClass(attrs); err != nil {
		return err
	}

	account, _ := attrs.String(model.KeyAccount)
	service, _ := attrs.String(model.KeyService)

	group, _ := attrs.String(model.KeyAccessGroup)
	group, err := r.writeGroup(group)
	if err != nil {
		return err
	}

	sync := false
	if v, ok := attrs[model.KeySynchronizable]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return model.NewStatusError(model.StatusParam, "synchronizable must be a boolean when adding an item")
		}
		sync = b
	}

	accessible := model.AccessibleWhenUnlocked
	if v, ok := attrs.String(model.KeyAccessible); ok {
		accessible = model.Accessibility(v)
		if !accessible.Valid() {
			return model.NewStatusError(model.StatusParam, fmt.Sprintf("unknown accessibility %q", v))
		}
	}

	data, _ := attrs.Bytes(model.KeyValueData)
	sealed, err := seal(r.key, data)
	if err != nil {
		return model.WrapStatus(model.StatusInternalComponent, fmt.Errorf("encrypt item: %w", err))
	}

	now := r.now().UTC().Format(time.RFC3339Nano)
	query, args, err := sq.Insert(itemsTable).
		Columns("keychain", "class", "account", "service", "access_group", "synchronizable",
			"label", "comment", "accessible", "data", "created_at", "updated_at").
		Values(partition(attrs), model.ClassGenericPassword, account, service, group, boolToInt(sync),
			optionalString(attrs, model.KeyLabel), optionalString(attrs, model.KeyComment),
			string(accessible), sealed, now, now).
		ToSql()
	if err != nil {
		return model.WrapStatus(model.StatusInternalComponent, fmt.Errorf("build insert: %w", err))
	}

	if _, err := r.db.Writer.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.NewStatusError(model.StatusDuplicateItem, "")
		}
		return model.WrapStatus(model.StatusIO, fmt.Errorf("add item %q/%q: %w", service, account, err))
	}
	return nil
}

// Delete removes every item matching query.
func (r *CredentialRepo) Delete(ctx context.Context, query model.Dictionary) error {
	where, err := r.predicate(query)
	if err != nil {
		return err
	}

	stmt, args, err := sq.Delete(itemsTable).Where(where).ToSql()
	if err != nil {
		return model.WrapStatus(model.StatusInternalComponent, fmt.Errorf("build delete: %w", err))
	}

	result, err := r.db.Writer.ExecContext(ctx, stmt, args...)
	if err != nil {
		return model.WrapStatus(model.StatusIO, fmt.Errorf("delete items: %w", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return model.WrapStatus(model.StatusIO, fmt.Errorf("delete items rows affected: %w", err))
	}
	if n == 0 {
		return model.NewStatusError(model.StatusItemNotFound, "")
	}
	return nil
}

// CopyMatching returns the items matching query. Without a match limit only
// the first match is returned. Each result holds the attributes when
// KeyReturnAttributes is set and the payload when KeyReturnData is set.
func (r *CredentialRepo) CopyMatching(ctx context.Context, query model.Dictionary) ([]model.Dictionary, error) {
	where, err := r.predicate(query)
	if err != nil {
		return nil, err
	}

	for _, k := range []model.Key{model.KeyReturnRef, model.KeyReturnPersistentRef} {
		if v, _ := query.Bool(k); v {
			return nil, model.NewStatusError(model.StatusUnimplemented, "item references are not supported")
		}
	}

	limit := model.MatchLimitOne
	if v, ok := query[model.KeyMatchLimit]; ok {
		s, _ := v.(string)
		if s != model.MatchLimitOne && s != model.MatchLimitAll {
			return nil, model.NewStatusError(model.StatusParam, fmt.Sprintf("unsupported match limit %v", v))
		}
		limit = s
	}
	returnData, _ := query.Bool(model.KeyReturnData)
	returnAttrs, _ := query.Bool(model.KeyReturnAttributes)
	if returnData && r.key == nil {
		return nil, model.WrapStatus(model.StatusNotAvailable, ErrEncryptionKeyNotSet)
	}

	sel := sq.Select(itemColumns...).From(itemsTable).Where(where).OrderBy("id")
	if limit == model.MatchLimitOne {
		sel = sel.Limit(1)
	}
	stmt, args, err := sel.ToSql()
	if err != nil {
		return nil, model.WrapStatus(model.StatusInternalComponent, fmt.Errorf("build select: %w", err))
	}

	rows, err := r.db.Reader.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, model.WrapStatus(model.StatusIO, fmt.Errorf("query items: %w", err))
	}
	defer rows.Close()

	var results []model.Dictionary
	for rows.Next() {
		row, err := scanItem(rows)
		if err != nil {
			return nil, model.WrapStatus(model.StatusIO, err)
		}

		d := model.Dictionary{}
		if returnAttrs {
			if err := row.attributes(d); err != nil {
				return nil, model.WrapStatus(model.StatusDecode, err)
			}
		}
		if returnData {
			plaintext, err := unseal(r.key, row.data)
			if err != nil {
				return nil, model.WrapStatus(model.StatusDecode, fmt.Errorf("decrypt item %d: %w", row.id, err))
			}
			d[model.KeyValueData] = plaintext
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, model.WrapStatus(model.StatusIO, fmt.Errorf("iterate items: %w", err))
	}

	if len(results) == 0 {
		return nil, model.NewStatusError(model.StatusItemNotFound, "")
	}
	return results, nil
}

// predicate translates the search attributes of query into a WHERE clause.
func (r *CredentialRepo) predicate(query model.Dictionary) (sq.And, error) {
	if err := checkClass(query); err != nil {
		return nil, err
	}

	where := sq.And{
		sq.Eq{"keychain": partition(query)},
		sq.Eq{"class": model.ClassGenericPassword},
	}

	if v, ok := query.String(model.KeyAccount); ok {
		where = append(where, sq.Eq{"account": v})
	}
	if v, ok := query.String(model.KeyService); ok {
		where = append(where, sq.Eq{"service": v})
	}
	if v, ok := query.String(model.KeyLabel); ok {
		where = append(where, sq.Eq{"label": v})
	}

	if v, ok := query.String(model.KeyAccessGroup); ok {
		if !r.entitled(v) {
			return nil, model.NewStatusError(model.StatusMissingEntitlement, fmt.Sprintf("access group %q is not entitled", v))
		}
		where = append(where, sq.Eq{"access_group": v})
	} else if len(r.groups) > 0 {
		where = append(where, sq.Eq{"access_group": r.groups})
	}

	if v, ok := query[model.KeySynchronizable]; ok {
		switch s := v.(type) {
		case bool:
			where = append(where, sq.Eq{"synchronizable": boolToInt(s)})
		case string:
			if s != model.SynchronizableAny {
				return nil, model.NewStatusError(model.StatusParam, fmt.Sprintf("invalid synchronizable value %q", s))
			}
		default:
			return nil, model.NewStatusError(model.StatusParam, fmt.Sprintf("invalid synchronizable value %v", v))
		}
	}

	return where, nil
}

func (r *CredentialRepo) writeGroup(group string) (string, error) {
	if group == "" {
		if len(r.groups) > 0 {
			return r.groups[0], nil
		}
		return "", nil
	}
	if !r.entitled(group) {
		return "", model.NewStatusError(model.StatusMissingEntitlement, fmt.Sprintf("access group %q is not entitled", group))
	}
	return group, nil
}

func (r *CredentialRepo) entitled(group string) bool {
	return len(r.groups) == 0 || slices.Contains(r.groups, group)
}

// itemRow is one scanned keychain_items row.
type itemRow struct {
	id             int64
	keychain       string
	class          string
	account        string
	service        string
	accessGroup    string
	synchronizable int64
	label          sql.NullString
	comment        sql.NullString
	accessible     string
	data           string
	createdAt      string
	updatedAt      string
}

func scanItem(rows *sql.Rows) (itemRow, error) {
	var row itemRow
	err := rows.Scan(&row.id, &row.keychain, &row.class, &row.account, &row.service, &row.accessGroup,
		&row.synchronizable, &row.label, &row.comment, &row.accessible, &row.data, &row.createdAt, &row.updatedAt)
	if err != nil {
		return itemRow{}, fmt.Errorf("scan item: %w", err)
	}
	return row, nil
}

// attributes writes the row's attributes into d. Empty identity fields are
// left out, matching how they were written.
func (row itemRow) attributes(d model.Dictionary) error {
	d[model.KeyClass] = row.class
	if row.account != "" {
		d[model.KeyAccount] = row.account
	}
	if row.service != "" {
		d[model.KeyService] = row.service
	}
	if row.accessGroup != "" {
		d[model.KeyAccessGroup] = row.accessGroup
	}
	if row.label.Valid {
		d[model.KeyLabel] = row.label.String
	}
	if row.comment.Valid {
		d[model.KeyComment] = row.comment.String
	}
	d[model.KeyAccessible] = row.accessible
	d[model.KeySynchronizable] = row.synchronizable == 1

	created, err := parseTime(row.createdAt)
	if err != nil {
		return fmt.Errorf("parse created_at for item %d: %w", row.id, err)
	}
	updated, err := parseTime(row.updatedAt)
	if err != nil {
		return fmt.Errorf("parse updated_at for item %d: %w", row.id, err)
	}
	d[model.KeyCreationDate] = created
	d[model.KeyModificationDate] = updated
	return nil
}

// checkClass requires a generic-password class in attrs.
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

// partition maps the data-protection selector onto a keychain partition.
// Absent means modern.
func partition(attrs model.Dictionary) string {
	if modern, ok := attrs.Bool(model.KeyUseDataProtectionKeychain); ok && !modern {
		return partitionLegacy
	}
	return partitionModern
}

func optionalString(attrs model.Dictionary, k model.Key) sql.NullString {
	v, ok := attrs.String(k)
	return sql.NullString{String: v, Valid: ok}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTime accepts the RFC 3339 timestamps written by Add as well as SQLite's
// own CURRENT_TIMESTAMP format.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}
