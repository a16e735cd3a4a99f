package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
)

func genericPassword(service, account string, data []byte) model.Dictionary {
	d := model.Dictionary{model.KeyClass: model.ClassGenericPassword}
	if service != "" {
		d[model.KeyService] = service
	}
	if account != "" {
		d[model.KeyAccount] = account
	}
	if data != nil {
		d[model.KeyValueData] = data
	}
	return d
}

func fetchOne(service, account string) model.Dictionary {
	d := genericPassword(service, account, nil)
	d[model.KeyReturnData] = true
	d[model.KeyReturnAttributes] = true
	d[model.KeyMatchLimit] = model.MatchLimitOne
	return d
}

func TestCredentialRepo_AddAndCopyMatching(t *testing.T) {
	db := setupTestDB(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewCredentialRepo(db, testKey, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	attrs := genericPassword("mail", "alice", []byte("p@ss1"))
	attrs[model.KeyLabel] = "Mail"
	attrs[model.KeyComment] = "work account"
	require.NoError(t, repo.Add(ctx, attrs))

	results, err := repo.CopyMatching(ctx, fetchOne("mail", "alice"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	data, ok := got.Bytes(model.KeyValueData)
	require.True(t, ok)
	assert.Equal(t, []byte("p@ss1"), data)

	label, _ := got.String(model.KeyLabel)
	comment, _ := got.String(model.KeyComment)
	accessible, _ := got.String(model.KeyAccessible)
	created, _ := got.Time(model.KeyCreationDate)
	assert.Equal(t, "Mail", label)
	assert.Equal(t, "work account", comment)
	assert.Equal(t, string(model.AccessibleWhenUnlocked), accessible)
	assert.True(t, fixed.Equal(created))
}

func TestCredentialRepo_PayloadIsEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, genericPassword("mail", "alice", []byte("plaintext-secret"))))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT data FROM keychain_items WHERE account = ?`, "alice").Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "plaintext-secret")
}

func TestCredentialRepo_EmptyPayloadRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, genericPassword("mail", "alice", []byte{})))

	results, err := repo.CopyMatching(ctx, fetchOne("mail", "alice"))
	require.NoError(t, err)
	data, ok := results[0].Bytes(model.KeyValueData)
	require.True(t, ok)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestCredentialRepo_AddDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, genericPassword("mail", "alice", []byte("one"))))

	err := repo.Add(ctx, genericPassword("mail", "alice", []byte("two")))
	require.Error(t, err)
	assert.Equal(t, model.StatusDuplicateItem, model.StatusOf(err))
}

func TestCredentialRepo_CopyMatchingMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)

	_, err := repo.CopyMatching(context.Background(), fetchOne("mail", "nobody"))
	require.Error(t, err)
	assert.Equal(t, model.StatusItemNotFound, model.StatusOf(err))
}

func TestCredentialRepo_MatchLimitAllWithWildcards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, genericPassword("mail", "alice", []byte("a"))))
	require.NoError(t, repo.Add(ctx, genericPassword("mail", "bob", []byte("b"))))
	require.NoError(t, repo.Add(ctx, genericPassword("chat", "alice", []byte("c"))))

	query := genericPassword("mail", "", nil)
	query[model.KeyReturnAttributes] = true
	query[model.KeyMatchLimit] = model.MatchLimitAll

	results, err := repo.CopyMatching(ctx, query)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, d := range results {
		_, hasData := d[model.KeyValueData]
		assert.False(t, hasData, "attribute-only query must not return payload")
	}

	everything := genericPassword("", "", nil)
	everything[model.KeyReturnAttributes] = true
	everything[model.KeyMatchLimit] = model.MatchLimitAll
	results, err = repo.CopyMatching(ctx, everything)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestCredentialRepo_DeleteAllMatches(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, genericPassword("mail", "alice", []byte("a"))))
	require.NoError(t, repo.Add(ctx, genericPassword("mail", "bob", []byte("b"))))
	require.NoError(t, repo.Add(ctx, genericPassword("chat", "carol", []byte("c"))))

	require.NoError(t, repo.Delete(ctx, genericPassword("mail", "", nil)))

	_, err := repo.CopyMatching(ctx, fetchOne("mail", "alice"))
	assert.Equal(t, model.StatusItemNotFound, model.StatusOf(err))
	_, err = repo.CopyMatching(ctx, fetchOne("chat", "carol"))
	assert.NoError(t, err)
}

func TestCredentialRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)

	err := repo.Delete(context.Background(), genericPassword("mail", "nobody", nil))
	require.Error(t, err)
	assert.Equal(t, model.StatusItemNotFound, model.StatusOf(err))
}

func TestCredentialRepo_LegacyPartitionIsSeparate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	legacy := genericPassword("mail", "alice", []byte("old"))
	legacy[model.KeyUseDataProtectionKeychain] = false
	require.NoError(t, repo.Add(ctx, legacy))

	modern := genericPassword("mail", "alice", []byte("new"))
	modern[model.KeyUseDataProtectionKeychain] = true
	require.NoError(t, repo.Add(ctx, modern), "same identity in another partition is not a duplicate")

	query := fetchOne("mail", "alice")
	query[model.KeyUseDataProtectionKeychain] = false
	results, err := repo.CopyMatching(ctx, query)
	require.NoError(t, err)
	data, _ := results[0].Bytes(model.KeyValueData)
	assert.Equal(t, []byte("old"), data)

	results, err = repo.CopyMatching(ctx, fetchOne("mail", "alice"))
	require.NoError(t, err)
	data, _ = results[0].Bytes(model.KeyValueData)
	assert.Equal(t, []byte("new"), data, "absent selector means modern")
}

func TestCredentialRepo_Synchronizable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	attrs := genericPassword("mail", "alice", []byte("x"))
	attrs[model.KeySynchronizable] = true
	require.NoError(t, repo.Add(ctx, attrs))

	notSynced := fetchOne("mail", "alice")
	notSynced[model.KeySynchronizable] = false
	_, err := repo.CopyMatching(ctx, notSynced)
	assert.Equal(t, model.StatusItemNotFound, model.StatusOf(err))

	anySync := fetchOne("mail", "alice")
	anySync[model.KeySynchronizable] = model.SynchronizableAny
	results, err := repo.CopyMatching(ctx, anySync)
	require.NoError(t, err)
	synced, _ := results[0].Bool(model.KeySynchronizable)
	assert.True(t, synced)
}

func TestCredentialRepo_AddRejectsWildcardSync(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)

	attrs := genericPassword("mail", "alice", []byte("x"))
	attrs[model.KeySynchronizable] = model.SynchronizableAny

	err := repo.Add(context.Background(), attrs)
	assert.Equal(t, model.StatusParam, model.StatusOf(err))
}

func TestCredentialRepo_AccessGroups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey, WithAccessGroups("team.shared", "team.private"))
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, genericPassword("mail", "alice", []byte("x"))))

	results, err := repo.CopyMatching(ctx, fetchOne("mail", "alice"))
	require.NoError(t, err)
	group, _ := results[0].String(model.KeyAccessGroup)
	assert.Equal(t, "team.shared", group, "items without a group get the first entitled group")

	foreign := genericPassword("mail", "bob", []byte("y"))
	foreign[model.KeyAccessGroup] = "other.team"
	err = repo.Add(ctx, foreign)
	assert.Equal(t, model.StatusMissingEntitlement, model.StatusOf(err))

	query := fetchOne("mail", "alice")
	query[model.KeyAccessGroup] = "other.team"
	_, err = repo.CopyMatching(ctx, query)
	assert.Equal(t, model.StatusMissingEntitlement, model.StatusOf(err))
}

func TestCredentialRepo_AccessGroupsRestrictWildcardQueries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	open := NewCredentialRepo(db, testKey)
	outside := genericPassword("mail", "mallory", []byte("z"))
	outside[model.KeyAccessGroup] = "other.team"
	require.NoError(t, open.Add(ctx, outside))

	restricted := NewCredentialRepo(db, testKey, WithAccessGroups("team.shared"))
	require.NoError(t, restricted.Add(ctx, genericPassword("mail", "alice", []byte("x"))))

	query := genericPassword("mail", "", nil)
	query[model.KeyReturnAttributes] = true
	query[model.KeyMatchLimit] = model.MatchLimitAll
	results, err := restricted.CopyMatching(ctx, query)
	require.NoError(t, err)
	require.Len(t, results, 1)
	account, _ := results[0].String(model.KeyAccount)
	assert.Equal(t, "alice", account)
}

func TestCredentialRepo_WithoutKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewCredentialRepo(db, testKey).Add(ctx, genericPassword("mail", "alice", []byte("x"))))

	repo := NewCredentialRepo(db, nil)

	err := repo.Add(ctx, genericPassword("mail", "bob", []byte("y")))
	assert.Equal(t, model.StatusNotAvailable, model.StatusOf(err))
	assert.ErrorIs(t, err, ErrEncryptionKeyNotSet)

	_, err = repo.CopyMatching(ctx, fetchOne("mail", "alice"))
	assert.Equal(t, model.StatusNotAvailable, model.StatusOf(err))

	attrsOnly := genericPassword("mail", "alice", nil)
	attrsOnly[model.KeyReturnAttributes] = true
	_, err = repo.CopyMatching(ctx, attrsOnly)
	assert.NoError(t, err, "attribute queries do not need the key")
}

func TestCredentialRepo_RejectsUnsupportedQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	tests := []struct {
		name  string
		query model.Dictionary
		want  model.Status
	}{
		{
			name:  "missing class",
			query: model.Dictionary{model.KeyService: "mail"},
			want:  model.StatusParam,
		},
		{
			name:  "internet password class",
			query: model.Dictionary{model.KeyClass: "inet"},
			want:  model.StatusUnimplemented,
		},
		{
			name: "persistent reference",
			query: model.Dictionary{
				model.KeyClass:               model.ClassGenericPassword,
				model.KeyReturnPersistentRef: true,
			},
			want: model.StatusUnimplemented,
		},
		{
			name: "bad match limit",
			query: model.Dictionary{
				model.KeyClass:      model.ClassGenericPassword,
				model.KeyMatchLimit: "m_LimitTwo",
			},
			want: model.StatusParam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.CopyMatching(ctx, tt.query)
			require.Error(t, err)
			assert.Equal(t, tt.want, model.StatusOf(err))
		})
	}
}

func TestSealer_RoundTripAndKeyCheck(t *testing.T) {
	sealed, err := seal(testKey, []byte("hello"))
	require.NoError(t, err)

	plain, err := unseal(testKey, sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), plain)

	other := []byte("fedcba9876543210fedcba9876543210")
	_, err = unseal(other, sealed)
	assert.Error(t, err)

	_, err = seal([]byte("short"), []byte("hello"))
	assert.Error(t, err)
}
