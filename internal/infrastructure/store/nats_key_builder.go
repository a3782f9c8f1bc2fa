// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
)

// Key prefixes used across the KV buckets.
const (
	KeyPrefixEvent   = "event"
	KeyPrefixAlarm   = "alarm"
	KeyPrefixTrigger = "trigger"

	KeyPrefixIndex           = "index"
	KeyPrefixIndexUID        = "uid"
	KeyPrefixIndexSeries     = "series"
	KeyPrefixIndexOccurrence = "occurrence"

	// uidIndexMasterSlot marks the series master entry in the uid index,
	// where change exceptions use their recurrence identifier.
	uidIndexMasterSlot = "master"
)

// KeyBuilder builds consistent NATS KV keys. Key components carrying
// client-supplied data (iCalendar UIDs, recurrence identifiers) are base64
// encoded per segment because NATS KV keys only allow a restricted character
// set.
type KeyBuilder struct{}

// NewKeyBuilder creates a new key builder.
func NewKeyBuilder() *KeyBuilder {
	return &KeyBuilder{}
}

// EventKey builds the key of a stored event (e.g. "event/evt-123").
func (kb *KeyBuilder) EventKey(eventID string) string {
	return fmt.Sprintf("%s/%s", KeyPrefixEvent, eventID)
}

// UIDIndexKey builds the encoded index key resolving (uid, owner, occurrence
// slot) to an event ID. A nil recurrenceID addresses the series master.
func (kb *KeyBuilder) UIDIndexKey(uid string, ownerID int, recurrenceID *string) (string, error) {
	slot := uidIndexMasterSlot
	if recurrenceID != nil {
		slot = *recurrenceID
	}
	key := fmt.Sprintf("%s/%s/%s/%s/%s",
		KeyPrefixIndex, KeyPrefixIndexUID, uid, strconv.Itoa(ownerID), slot)
	return kb.EncodeKey(key)
}

// SeriesIndexKey builds the encoded index key registering a change exception
// under its series master.
func (kb *KeyBuilder) SeriesIndexKey(seriesID, exceptionID string) (string, error) {
	key := fmt.Sprintf("%s/%s/%s/%s", KeyPrefixIndex, KeyPrefixIndexSeries, seriesID, exceptionID)
	return kb.EncodeKey(key)
}

// SeriesIndexPrefix builds the encoded key prefix under which all change
// exceptions of one series are registered.
func (kb *KeyBuilder) SeriesIndexPrefix(seriesID string) (string, error) {
	prefix := fmt.Sprintf("%s/%s/%s", KeyPrefixIndex, KeyPrefixIndexSeries, seriesID)
	encoded, err := kb.EncodeKey(prefix)
	if err != nil {
		return "", err
	}
	return encoded + ".", nil
}

// OccurrenceIndexKey builds the encoded index key resolving (series,
// recurrence identifier) to the materialized change exception's event ID.
func (kb *KeyBuilder) OccurrenceIndexKey(seriesID, recurrenceID string) (string, error) {
	key := fmt.Sprintf("%s/%s/%s/%s", KeyPrefixIndex, KeyPrefixIndexOccurrence, seriesID, recurrenceID)
	return kb.EncodeKey(key)
}

// AlarmKey builds the key of one user's alarm set for an event.
func (kb *KeyBuilder) AlarmKey(eventID string, userID int) string {
	return fmt.Sprintf("%s/%s/%d", KeyPrefixAlarm, eventID, userID)
}

// AlarmPrefix builds the key prefix of all per-user alarm sets of an event.
func (kb *KeyBuilder) AlarmPrefix(eventID string) string {
	return fmt.Sprintf("%s/%s/", KeyPrefixAlarm, eventID)
}

// TriggerKey builds the key of one precomputed alarm trigger.
func (kb *KeyBuilder) TriggerKey(eventID string, userID int, alarmID string) string {
	return fmt.Sprintf("%s/%s/%d/%s", KeyPrefixTrigger, eventID, userID, alarmID)
}

// TriggerPrefix builds the key prefix of all triggers of an event.
func (kb *KeyBuilder) TriggerPrefix(eventID string) string {
	return fmt.Sprintf("%s/%s/", KeyPrefixTrigger, eventID)
}

// EncodeKey encodes a slash-separated key for the NATS KV store.
// From https://github.com/ripienaar/encodedkv
//
// NATS limitations: https://docs.nats.io/nats-concepts/jetstream/key-value-store#notes
func (kb *KeyBuilder) EncodeKey(key string) (string, error) {
	res := []string{}
	for _, part := range strings.Split(strings.TrimPrefix(key, "/"), "/") {
		if part == ">" || part == "*" {
			res = append(res, part)
			continue
		}

		// URL-safe alphabet: "+" is not a valid KV key character.
		res = append(res, base64.URLEncoding.EncodeToString([]byte(part)))
	}

	if len(res) == 0 {
		return "", nats.ErrInvalidKey
	}

	return strings.Join(res, "."), nil
}

// DecodeKey decodes a key encoded with EncodeKey.
func (kb *KeyBuilder) DecodeKey(key string) (string, error) {
	res := []string{}
	for _, part := range strings.Split(key, ".") {
		k, err := base64.URLEncoding.DecodeString(part)
		if err != nil {
			return "", err
		}

		res = append(res, string(k))
	}

	if len(res) == 0 {
		return "", nats.ErrInvalidKey
	}

	return strings.Join(res, "/"), nil
}
