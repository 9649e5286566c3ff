package motif

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// errNoRelations is returned by Parse when the description names no
// relations at all, so there is nothing to plan.
var errNoRelations = errors.New("description has no relations")

// errSourceOutOfRange is returned by Parse when Description.Source does not
// index one of Description.Relations.
var errSourceOutOfRange = errors.New("source index out of range")

// Description is the on-disk YAML form of a motif: a flat list of relations
// naming attributes by string instead of the small integers Relation uses
// internally, plus the index into Relations of the source relation whose
// own changes the resulting plan tracks.
//
// Example:
//
//	relations:
//	  - [a, b]
//	  - [b, c]
//	  - [c, a]
//	source: 0
type Description struct {
	Relations [][2]string `yaml:"relations"`
	Source    int         `yaml:"source"`
}

// Parse decodes a Description from YAML and resolves its named attributes
// into Relation's small-integer form, in first-seen order.
func Parse(data []byte) ([]Relation, int, error) {
	var desc Description

	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, 0, fmt.Errorf("motif: parse description: %w", err)
	}

	if len(desc.Relations) == 0 {
		return nil, 0, fmt.Errorf("motif: parse description: %w", errNoRelations)
	}

	if desc.Source < 0 || desc.Source >= len(desc.Relations) {
		return nil, 0, fmt.Errorf("motif: parse description: %w", errSourceOutOfRange)
	}

	ids := make(map[string]int)
	next := 0

	attrID := func(name string) int {
		if id, ok := ids[name]; ok {
			return id
		}

		id := next
		ids[name] = id
		next++

		return id
	}

	relations := make([]Relation, len(desc.Relations))

	for i, pair := range desc.Relations {
		relations[i] = Relation{Src: attrID(pair[0]), Dst: attrID(pair[1])}
	}

	return relations, desc.Source, nil
}
