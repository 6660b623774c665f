// Package store is the local key/value persistence layer. Each key holds one
// JSON document that is replaced wholesale on every write.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"fotoforge/pkg/logger"
)

// Logical keys of the local store.
const (
	KeyUsers    = "ffv2_users"
	KeySession  = "ffv2_currentUser"
	KeyProjects = "ffv2_projects"
)

// Store is a key/value adapter over JSON documents.
//
// Get never fails: a missing key and a value that is not valid JSON both read
// as nil. Set replaces the whole value; there is no partial-write protection.
type Store interface {
	Get(ctx context.Context, key string) json.RawMessage
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// StorageParseError describes a stored value that could not be parsed.
// It is recovered locally as "no data" and only ever logged.
type StorageParseError struct {
	Key string
	Err error
}

func (e *StorageParseError) Error() string {
	return fmt.Sprintf("stored value for %q is not valid JSON: %v", e.Key, e.Err)
}

func (e *StorageParseError) Unwrap() error { return e.Err }

// GetInto decodes the value of key into dst. It reports false when the key is
// absent or its document does not decode into dst; dst is left untouched then.
func GetInto(ctx context.Context, s Store, key string, dst any) bool {
	raw := s.Get(ctx, key)
	if raw == nil {
		return false
	}

	if err := decodeInto(raw, dst); err != nil {
		recovered(&StorageParseError{Key: key, Err: err})
		return false
	}
	return true
}

// decodeInto decodes through a fresh value so a failed decode leaves dst as it was.
func decodeInto(raw json.RawMessage, dst any) error {
	if string(raw) == "null" {
		return fmt.Errorf("document is null")
	}

	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %T", dst)
	}

	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		return err
	}
	target.Elem().Set(fresh.Elem())
	return nil
}

// validate returns the raw value when it is well-formed JSON.
func validate(key string, raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		recovered(&StorageParseError{Key: key, Err: fmt.Errorf("%d bytes of malformed data", len(raw))})
		return nil
	}
	return json.RawMessage(raw)
}

func recovered(err *StorageParseError) {
	logger.LogWarn("Treating corrupt storage as empty: %v", err)
}

func marshal(key string, value any) ([]byte, error) {
	if raw, ok := value.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, fmt.Errorf("refusing to store invalid JSON under %q", key)
		}
		return raw, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	return data, nil
}
