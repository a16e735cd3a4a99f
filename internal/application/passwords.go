package application

import (
	"context"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
)

// Password returns the UTF-8 secret stored for service and account.
func (k *Keychain) Password(ctx context.Context, service, account string) (string, error) {
	q := model.NewQuery(service, account)
	if err := k.Fetch(ctx, q); err != nil {
		return "", err
	}
	return q.SecretText()
}

// SetPassword stores password for service and account, replacing any
// existing item.
func (k *Keychain) SetPassword(ctx context.Context, password, service, account string) error {
	q := model.NewQuery(service, account)
	q.SetSecretText(password)
	return k.Save(ctx, q)
}

// DeletePassword removes the item for service and account.
func (k *Keychain) DeletePassword(ctx context.Context, service, account string) error {
	return k.Delete(ctx, model.NewQuery(service, account))
}

// Accounts lists the items stored for service. An empty service lists every
// item in the keychain.
func (k *Keychain) Accounts(ctx context.Context, service string) ([]model.Item, error) {
	return k.FetchAll(ctx, &model.Query{Service: service})
}
