package schema

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// DecodeTable reads a table document: a JSON object mapping record key to
// record object. Key and column order are kept as written, and repeated
// keys are kept as separate rows.
func DecodeTable(name string, r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.Wrap(err, "table document must be an object")
	}

	t := NewTable(name)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read record key")
		}
		key, _ := tok.(string)

		rec, err := decodeRecord(dec)
		if err != nil {
			return nil, errors.Wrapf(err, "record %q", key)
		}
		t.Append(key, rec)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after table document")
	}
	return t, nil
}

func decodeRecord(dec *json.Decoder) (*Record, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.Wrap(err, "record must be an object")
	}
	rec := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read column name")
		}
		col, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrapf(err, "column %q", col)
		}
		v, err := ParseJSON(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", col)
		}
		rec.Set(col, v)
	}
	return rec, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// MarshalJSON encodes the table in the same shape DecodeTable reads,
// preserving row and column order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, row.Key); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, col := range row.Record.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, col); err != nil {
				return nil, err
			}
			b, err := row.Record.Values[col].MarshalJSON()
			if err != nil {
				return nil, errors.Wrapf(err, "record %q column %q", row.Key, col)
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) error {
	b, err := json.Marshal(k)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}
