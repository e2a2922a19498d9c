package source

import (
	"bytes"
	"encoding/json"

	"db-sanity/internal/schema"
)

func marshalIndent(t *schema.Table) ([]byte, error) {
	raw, err := t.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
