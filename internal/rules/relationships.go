package rules

import (
	"db-sanity/internal/schema"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrRelationshipsMissing is returned when the relationship document does not exist.
var ErrRelationshipsMissing = errors.New("relationships file not found")

type relationshipsDoc struct {
	ForeignKeys []schema.Relationship `yaml:"foreign_keys"`
}

// LoadRelationships reads the foreign_keys list. Entries are taken as
// written; unknown tables and types are dealt with by the validator.
func LoadRelationships(fs afero.Fs, path string) ([]schema.Relationship, error) {
	data, err := readDocument(fs, path, ErrRelationshipsMissing)
	if err != nil {
		return nil, err
	}
	rels, err := ParseRelationships(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse relationships file %s", path)
	}
	return rels, nil
}

func ParseRelationships(data []byte) ([]schema.Relationship, error) {
	var doc relationshipsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.ForeignKeys, nil
}

// WriteRelationships stores rels in the document shape LoadRelationships reads.
func WriteRelationships(fs afero.Fs, path string, rels []schema.Relationship) error {
	data, err := yaml.Marshal(relationshipsDoc{ForeignKeys: rels})
	if err != nil {
		return errors.Wrap(err, "failed to encode relationships")
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
