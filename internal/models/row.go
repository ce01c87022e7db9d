package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrUnknownField is returned when a row payload names a field the collection does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrReadOnlyField is returned when a payload tries to set a store-owned field.
	ErrReadOnlyField = errors.New("read-only field")
	// ErrInvalidRow is returned when a row fails its collection's validation.
	ErrInvalidRow = errors.New("invalid row")
)

// Row is a record in a named collection.
type Row interface {
	TableName() string
	RowID() string
}

// Defaulter is implemented by rows that fill in defaulted fields on insert.
type Defaulter interface {
	ApplyDefaults()
}

// Validator is implemented by rows with collection-specific invariants.
type Validator interface {
	Validate() error
}

// Base carries the fields every collection row has.
type Base struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// RowID returns the row's store-assigned ID.
func (b Base) RowID() string {
	return b.ID
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// readOnly lists fields only the store may set.
var readOnly = map[string]bool{"id": true, "created_at": true, "updated_at": true}

// Payload is a partial row as sent by a client: JSON field name to raw value.
type Payload map[string]json.RawMessage

// Keys returns the payload's field names, sorted.
func (p Payload) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

var fieldCache sync.Map // reflect.Type -> map[string]bool

// Fields returns the JSON field names of row type T, including embedded ones.
func Fields[T Row]() map[string]bool {
	var zero T
	typ := reflect.TypeOf(zero)
	if cached, ok := fieldCache.Load(typ); ok {
		return cached.(map[string]bool)
	}
	fields := make(map[string]bool)
	collectFields(typ, fields)
	fieldCache.Store(typ, fields)
	return fields
}

func collectFields(typ reflect.Type, into map[string]bool) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Anonymous && f.Tag.Get("json") == "" {
			collectFields(f.Type, into)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		into[name] = true
	}
}

// CheckPayload rejects unknown and store-owned fields for row type T.
func CheckPayload[T Row](p Payload) error {
	fields := Fields[T]()
	for key := range p {
		if readOnly[key] {
			return fmt.Errorf("%w: %s", ErrReadOnlyField, key)
		}
		if !fields[key] {
			return fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
	}
	return nil
}

// Overlay decodes p onto row, replacing only the fields p names.
func Overlay[T Row](row *T, p Payload) error {
	if len(p) == 0 {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(row); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	return nil
}

// DecodeRow builds a new row of type T from a partial payload.
func DecodeRow[T Row](p Payload) (T, error) {
	var row T
	if err := CheckPayload[T](p); err != nil {
		return row, err
	}
	if err := Overlay(&row, p); err != nil {
		return row, err
	}
	return row, nil
}

// PayloadOf encodes v (a struct or map) as a Payload.
func PayloadOf(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Prepare applies defaults and validation to a row about to be written.
func Prepare(row any) error {
	if d, ok := row.(Defaulter); ok {
		d.ApplyDefaults()
	}
	if v, ok := row.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRow, err)
		}
	}
	return nil
}
