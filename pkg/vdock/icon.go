package vdock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Icon is either a single icon name or a FontAwesome style [prefix, name]
// pair. It is written back in the form it was read in.
type Icon struct {
	Name  string
	Parts []string
}

// IconName returns an icon given by a single name.
func IconName(name string) Icon {
	return Icon{Name: name}
}

// IconParts returns an icon given as a list, e.g. IconParts("fas", "play").
func IconParts(parts ...string) Icon {
	return Icon{Parts: parts}
}

func (i Icon) IsZero() bool {
	return i.Name == "" && i.Parts == nil
}

func (i Icon) String() string {
	if i.Parts != nil {
		return strings.Join(i.Parts, " ")
	}
	return i.Name
}

func (i Icon) Clone() Icon {
	if i.Parts != nil {
		parts := make([]string, len(i.Parts))
		copy(parts, i.Parts)
		i.Parts = parts
	}
	return i
}

func (i Icon) MarshalJSON() ([]byte, error) {
	if i.Parts != nil {
		return json.Marshal(i.Parts)
	}
	return json.Marshal(i.Name)
}

func (i *Icon) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*i = Icon{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("decode icon list: %w", err)
		}
		*i = Icon{Parts: parts}
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("decode icon: %w", err)
	}
	*i = Icon{Name: name}
	return nil
}
