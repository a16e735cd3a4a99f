package model

import "time"

// Key names an entry in a native query or attribute dictionary.
type Key string

// Attribute keys.
const (
	KeyClass            Key = "class"
	KeyAccount          Key = "acct"
	KeyService          Key = "svce"
	KeyLabel            Key = "labl"
	KeyComment          Key = "icmt"
	KeyAccessible       Key = "pdmn"
	KeyAccessGroup      Key = "agrp"
	KeySynchronizable   Key = "sync"
	KeyCreationDate     Key = "cdat"
	KeyModificationDate Key = "mdat"
)

// Value, return-shape and search keys.
const (
	KeyValueData                 Key = "v_Data"
	KeyReturnData                Key = "r_Data"
	KeyReturnAttributes          Key = "r_Attributes"
	KeyReturnRef                 Key = "r_Ref"
	KeyReturnPersistentRef       Key = "r_PersistentRef"
	KeyMatchLimit                Key = "m_Limit"
	KeyUseDataProtectionKeychain Key = "nleg"
)

// ClassGenericPassword is the only item class this package reads or writes.
const ClassGenericPassword = "genp"

// SynchronizableAny is the wildcard value for KeySynchronizable. It is only
// meaningful in predicates; writes carry a bool.
const SynchronizableAny = "syna"

// Match limits for KeyMatchLimit.
const (
	MatchLimitOne = "m_LimitOne"
	MatchLimitAll = "m_LimitAll"
)

// Dictionary is a native query or attribute set. Values are string, bool,
// []byte or time.Time depending on the key.
type Dictionary map[Key]any

// String returns the string value for k.
func (d Dictionary) String(k Key) (string, bool) {
	v, ok := d[k].(string)
	return v, ok
}

// Bool returns the bool value for k.
func (d Dictionary) Bool(k Key) (bool, bool) {
	v, ok := d[k].(bool)
	return v, ok
}

// Bytes returns the []byte value for k.
func (d Dictionary) Bytes(k Key) ([]byte, bool) {
	v, ok := d[k].([]byte)
	return v, ok
}

// Time returns the time.Time value for k.
func (d Dictionary) Time(k Key) (time.Time, bool) {
	v, ok := d[k].(time.Time)
	return v, ok
}

// Synchronizable decodes KeySynchronizable. wildcard is true when the key is
// absent or holds SynchronizableAny.
func (d Dictionary) Synchronizable() (value, wildcard bool) {
	switch v := d[KeySynchronizable].(type) {
	case bool:
		return v, false
	default:
		return false, true
	}
}
