package aggregate

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders a Kind as its name rather than its ordinal, so a
// persisted AbstractFeature stays readable and stable across
// reorderings of the Kind constants.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON parses a Kind from its name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("aggregate: decoding kind: %w", err)
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
