package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var errIDListShape = errors.New("members must be a user id or a list of user ids")

// IDList is a list of identifiers accepted on the wire either as a single id
// string or as an array of id strings. Anything else fails to decode.
type IDList []uuid.UUID

func (l *IDList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		id, err := ParseID(single)
		if err != nil {
			return err
		}
		*l = IDList{id}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errIDListShape
	}

	ids := make(IDList, 0, len(many))
	for _, raw := range many {
		id, err := ParseID(raw)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}

// Unique returns the ids with duplicates removed, keeping first occurrence.
func (l IDList) Unique() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(l))
	out := make([]uuid.UUID, 0, len(l))
	for _, id := range l {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ParseID parses a canonical identifier.
func ParseID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
