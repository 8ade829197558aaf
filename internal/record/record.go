// Package record defines the self-delimiting, stream-decodable unit that
// every segment file is an append-only sequence of. A record is either a
// Set, carrying the value that made a key live at some version, or a
// Remove, marking a key dead as of that version.
package record

import (
	"encoding/json"
	"io"

	"github.com/ignitedb/ignitedb/pkg/errors"
)

// Kind distinguishes the two record shapes a segment can hold.
type Kind string

const (
	KindSet    Kind = "set"
	KindRemove Kind = "remove"
)

// Record is the unit appended to db.active and replayed back out of every
// segment at open time. Value is only meaningful when Kind is KindSet; the
// `[]byte` field lets encoding/json carry an arbitrary byte-safe value as
// base64 without the store having to escape it itself.
type Record struct {
	Kind    Kind   `json:"kind"`
	Key     string `json:"key"`
	Value   []byte `json:"value,omitempty"`
	Version uint64 `json:"version"`
}

// NewSet builds the record Set(key, value) appends at the given version.
func NewSet(key string, value []byte, version uint64) Record {
	return Record{Kind: KindSet, Key: key, Value: value, Version: version}
}

// NewRemove builds the record Remove(key) appends at the given version.
func NewRemove(key string, version uint64) Record {
	return Record{Kind: KindRemove, Key: key, Version: version}
}

func (r Record) IsSet() bool    { return r.Kind == KindSet }
func (r Record) IsRemove() bool { return r.Kind == KindRemove }

// Encode writes rec's JSON encoding to w, terminated by the newline
// json.Encoder always appends. The newline is what makes consecutive
// records in a segment file self-delimiting without a length prefix.
func Encode(w io.Writer, rec Record) error {
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeSerialization, "failed to encode record").
			WithDetail("key", rec.Key)
	}
	return nil
}

// Decoder streams Records out of a segment file opened at its start,
// reporting each record's absolute byte offset within that file alongside
// the decoded value. The index stores exactly that offset so a later Get
// can seek straight to the record instead of rescanning the segment.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps r, which must be positioned at byte offset 0 of the
// segment file it reads from; Decoder.Next()'s returned offsets are only
// meaningful relative to that starting position.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next decodes the record starting at the decoder's current position and
// returns it along with the absolute byte offset it started at. It returns
// io.EOF, unwrapped, once the stream is exhausted with no partial record
// pending.
func (d *Decoder) Next() (Record, int64, error) {
	// More skips the newline left after the previous record, so the offset
	// below is that of the record's first byte, matching what Append reports.
	d.dec.More()
	offset := d.dec.InputOffset()

	var rec Record
	if err := d.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, 0, io.EOF
		}
		return Record{}, 0, errors.NewStorageError(
			err, errors.ErrorCodeSerialization, "failed to decode record",
		).WithOffset(int(offset))
	}

	return rec, offset, nil
}
