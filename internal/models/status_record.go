package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used to render record timestamps.
const DateLayout = "2006-01-02 15:04:05"

// InvalidDate is shown in place of a timestamp that cannot be read as Unix seconds.
const InvalidDate = "invalid date"

// StatusRecord is a single command entry held by the remote store.
type StatusRecord struct {
	ID       RecordID   `json:"id,omitempty"` // Assigned by the remote store only
	Name     string     `json:"name"`         // Operator identity
	Status   string     `json:"status"`       // Command token, not validated at the relay
	Date     RecordDate `json:"date"`         // Unix seconds as number or string
	IPClient string     `json:"ipClient"`     // Local address of the sender or "unavailable"
}

// RecordID is the store-assigned identifier. Stores differ in whether they send it
// as a JSON string or a JSON number, so both are accepted.
type RecordID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id must be a string or number: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// Int returns the numeric value of the id, if it has one.
func (id RecordID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// RecordDate keeps the date exactly as the caller supplied it. Rendering is
// deferred to Format so that a bad value never prevents a record from decoding.
type RecordDate struct {
	raw json.RawMessage
}

// UnixDate builds a RecordDate holding an integer Unix timestamp.
func UnixDate(t time.Time) RecordDate {
	return RecordDate{raw: json.RawMessage(strconv.FormatInt(t.Unix(), 10))}
}

// RawDate builds a RecordDate from an arbitrary JSON value.
func RawDate(raw string) RecordDate {
	return RecordDate{raw: json.RawMessage(raw)}
}

// MarshalJSON writes the stored value back unchanged; an empty date is null.
func (d RecordDate) MarshalJSON() ([]byte, error) {
	if len(d.raw) == 0 {
		return []byte("null"), nil
	}
	return d.raw, nil
}

// UnmarshalJSON stores any JSON value.
func (d *RecordDate) UnmarshalJSON(data []byte) error {
	d.raw = append(d.raw[:0], data...)
	return nil
}

// Unix returns the timestamp in seconds when the value is a number or a numeric string.
func (d RecordDate) Unix() (int64, bool) {
	raw := bytes.TrimSpace(d.raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
		n, err := strconv.ParseInt(text, 10, 64)
		return n, err == nil
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

// Format renders the date in local time or returns InvalidDate. Timestamps whose
// year falls outside 1..9999 are invalid.
func (d RecordDate) Format() string {
	secs, ok := d.Unix()
	if !ok {
		return InvalidDate
	}
	t := time.Unix(secs, 0)
	if year := t.Year(); year < 1 || year > 9999 {
		return InvalidDate
	}
	return t.Format(DateLayout)
}

// String returns the raw value for display in the "sent" panel.
func (d RecordDate) String() string {
	var s string
	if err := json.Unmarshal(d.raw, &s); err == nil {
		return s
	}
	return string(d.raw)
}

// Row is a record prepared for a table: every field is already a display string.
type Row struct {
	ID       string
	Name     string
	Status   string
	Date     string
	IPClient string
}

// ToRow converts a record into display strings. It never fails; an unreadable
// date becomes InvalidDate and the other fields are copied as they are.
func ToRow(r StatusRecord) Row {
	return Row{
		ID:       string(r.ID),
		Name:     r.Name,
		Status:   r.Status,
		Date:     r.Date.Format(),
		IPClient: r.IPClient,
	}
}
