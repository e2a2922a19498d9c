package rules

import (
	"db-sanity/internal/schema"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrEnumsMissing is returned when the enum document does not exist.
// Callers treat it as an empty rule set.
var ErrEnumsMissing = errors.New("enums file not found")

// LoadEnums reads an enum document of the form
//
//	enums:
//	  <table>:
//	    <column>: [allowed, values]
//
// keeping declaration order. With restoreOnOff set, boolean entries are
// turned back into the "on"/"off" tokens they were written as.
func LoadEnums(fs afero.Fs, path string, restoreOnOff bool) (*schema.EnumDef, error) {
	data, err := readDocument(fs, path, ErrEnumsMissing)
	if err != nil {
		return nil, err
	}

	def, err := ParseEnums(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse enums file %s", path)
	}
	if restoreOnOff {
		RestoreOnOff(def)
	}
	return def, nil
}

// ParseEnums decodes an enum document without normalization.
func ParseEnums(data []byte) (*schema.EnumDef, error) {
	def := schema.NewEnumDef()

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return def, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: document must be a mapping", root.Line)
	}

	enums := mappingValue(root, "enums")
	if enums == nil || enums.Tag == "!!null" {
		return def, nil
	}
	if enums.Kind != yaml.MappingNode {
		return nil, errors.Errorf("line %d: enums must map table names to columns", enums.Line)
	}

	for i := 0; i+1 < len(enums.Content); i += 2 {
		table := enums.Content[i].Value
		columns := enums.Content[i+1]
		if columns.Kind != yaml.MappingNode {
			return nil, errors.Errorf("line %d: enums.%s must map column names to value lists", columns.Line, table)
		}
		for j := 0; j+1 < len(columns.Content); j += 2 {
			column := columns.Content[j].Value
			allowed, err := decodeValues(columns.Content[j+1])
			if err != nil {
				return nil, errors.Wrapf(err, "enums.%s.%s", table, column)
			}
			def.Add(table, column, allowed)
		}
	}
	return def, nil
}

func decodeValues(node *yaml.Node) ([]schema.Value, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, errors.Errorf("line %d: expected a list of values", node.Line)
	}
	vals := make([]schema.Value, 0, len(node.Content))
	for _, item := range node.Content {
		var x interface{}
		if err := item.Decode(&x); err != nil {
			return nil, errors.Wrapf(err, "line %d", item.Line)
		}
		v, err := schema.FromInterface(x)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", item.Line)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// RestoreOnOff rewrites boolean allowed values as "on" (true) and "off"
// (false). YAML 1.1 writers and readers turn the bare tokens on/off into
// booleans, while record values keep the original strings.
func RestoreOnOff(def *schema.EnumDef) {
	for _, table := range def.Tables {
		te := def.Table(table)
		for _, col := range te.Columns {
			allowed := te.Allowed[col]
			for i, v := range allowed {
				if b, ok := v.Bool(); ok {
					if b {
						allowed[i] = schema.NewString("on")
					} else {
						allowed[i] = schema.NewString("off")
					}
				}
			}
		}
	}
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func readDocument(fs afero.Fs, path string, missing error) ([]byte, error) {
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	if !ok {
		return nil, errors.Wrap(missing, path)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return data, nil
}
