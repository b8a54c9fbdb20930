package contacts_test

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spachava753/contactdir/macos/contacts"
)

func composeDialByName(name string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), contacts.DefaultTimeout)
	defer cancel()

	phones := contacts.FindNumber(ctx, name)
	if len(phones) == 0 {
		return "", fmt.Errorf("no phone number for %q", name)
	}
	return phones[0], nil
}

func composeCallerID(phone string) string {
	ctx, cancel := context.WithTimeout(context.Background(), contacts.DefaultTimeout)
	defer cancel()

	if name, ok := contacts.FindContactByPhone(ctx, phone); ok {
		return name
	}
	return phone
}

func composeLabelHandles(logger *zap.Logger, handles []string) map[string]string {
	dir := contacts.New(contacts.Config{Logger: logger, MaxContacts: 250})

	ctx, cancel := context.WithTimeout(context.Background(), contacts.DefaultTimeout)
	defer cancel()

	snap := dir.Snapshot(ctx)
	labels := make(map[string]string, len(handles))
	for _, handle := range handles {
		if name, ok := snap.ContactByPhone(handle); ok {
			labels[handle] = name
		}
	}
	return labels
}
