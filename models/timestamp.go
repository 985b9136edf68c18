package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// isoLayout keeps saved dates lexicographically ordered when stored as
// strings, which the duplicate-save query relies on.
const isoLayout = "2006-01-02T15:04:05.000000Z"

var parseLayouts = []string{
	isoLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp is a saved_date value. The API and the Python-era documents carry
// ISO-8601 strings, with or without a zone.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp accepts the layouts seen on the wire. Naive values are UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`null`)) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("saved_date: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.String())
}

func (t *Timestamp) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: typ, Value: data}
	switch typ {
	case bsontype.String:
		s := raw.StringValue()
		if s == "" {
			*t = Timestamp{}
			return nil
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*t = parsed
	case bsontype.DateTime:
		*t = NewTimestamp(raw.Time())
	case bsontype.Null, bsontype.Undefined:
		*t = Timestamp{}
	default:
		return fmt.Errorf("saved_date: unsupported bson type %s", typ)
	}
	return nil
}
