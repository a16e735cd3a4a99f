package application

import (
	"bytes"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
)

// identityPredicate builds the base dictionary shared by every operation:
// item class, the set identity fields, the synchronizable predicate and the
// keychain selector. Unset identity fields are left out so they match
// anything.
func (k *Keychain) identityPredicate(q *model.Query) model.Dictionary {
	d := model.Dictionary{model.KeyClass: model.ClassGenericPassword}

	if q.Account != "" {
		d[model.KeyAccount] = q.Account
	}
	if q.Service != "" {
		d[model.KeyService] = q.Service
	}
	if q.AccessGroup != "" {
		d[model.KeyAccessGroup] = q.AccessGroup
	}

	if model.IsSynchronizationAvailable(k.platform) {
		switch q.SynchronizationMode {
		case model.SynchronizationNo:
			d[model.KeySynchronizable] = false
		case model.SynchronizationYes:
			d[model.KeySynchronizable] = true
		default:
			d[model.KeySynchronizable] = model.SynchronizableAny
		}
	}

	if model.IsLegacyModeAvailable(k.platform) {
		d[model.KeyUseDataProtectionKeychain] = q.Backend == model.BackendModern
	}

	return d
}

// addAttributes builds the dictionary for inserting q: the identity plus the
// descriptive attributes, the resolved accessibility and the payload. A
// wildcard sync predicate becomes "not set" since the store needs a concrete
// value on write.
func (k *Keychain) addAttributes(q *model.Query) model.Dictionary {
	d := k.identityPredicate(q)

	if v, ok := d[model.KeySynchronizable]; ok && v == model.SynchronizableAny {
		delete(d, model.KeySynchronizable)
	}
	if q.Label != "" {
		d[model.KeyLabel] = q.Label
	}
	if q.Comment != "" {
		d[model.KeyComment] = q.Comment
	}
	if a := k.resolveAccessibility(q); a != "" {
		d[model.KeyAccessible] = string(a)
	}
	d[model.KeyValueData] = bytes.Clone(q.SecretBytes)

	return d
}

// fetchOneQuery asks for exactly one match with payload and attributes.
func (k *Keychain) fetchOneQuery(q *model.Query) model.Dictionary {
	d := k.identityPredicate(q)
	d[model.KeyReturnData] = true
	d[model.KeyReturnAttributes] = true
	d[model.KeyMatchLimit] = model.MatchLimitOne
	return d
}

// fetchAllQuery asks for the attributes of every match and nothing else.
func (k *Keychain) fetchAllQuery(q *model.Query) model.Dictionary {
	d := k.identityPredicate(q)
	d[model.KeyReturnAttributes] = true
	d[model.KeyMatchLimit] = model.MatchLimitAll
	return d
}

func (k *Keychain) resolveAccessibility(q *model.Query) model.Accessibility {
	if q.Accessibility != "" {
		return q.Accessibility
	}
	return k.defaultAccessibility
}
