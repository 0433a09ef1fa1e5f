package decoder

import (
	"encoding/json"
	"fmt"

	"udfconv/internal/tabular"
)

// payload is the JSON document the decoder tool prints on stdout. Each channel
// carries exactly one value array matching its kind.
type payload struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
	Channels []payloadChannel  `json:"channels"`
}

type payloadChannel struct {
	Name    string    `json:"name"`
	Kind    string    `json:"kind"`
	Floats  []float64 `json:"floats,omitempty"`
	Ints    []int64   `json:"ints,omitempty"`
	Strings []string  `json:"strings,omitempty"`
}

func parsePayload(data []byte) (*tabular.Table, error) {
	var doc payload
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse decoder output: %w", err)
	}

	table := &tabular.Table{
		Name:    doc.Name,
		Columns: make([]tabular.Column, 0, len(doc.Channels)),
	}
	if len(doc.Metadata) > 0 {
		table.Meta = make(map[string]string, len(doc.Metadata))
		for key, value := range doc.Metadata {
			table.Meta[key] = value
		}
	}

	for _, channel := range doc.Channels {
		column := tabular.Column{Name: channel.Name}
		switch channel.Kind {
		case "float":
			column.Kind = tabular.KindFloat
			column.Floats = channel.Floats
		case "int":
			column.Kind = tabular.KindInt
			column.Ints = channel.Ints
		case "string":
			column.Kind = tabular.KindString
			column.Strings = channel.Strings
		default:
			return nil, fmt.Errorf("channel %q has unknown kind %q", channel.Name, channel.Kind)
		}
		table.Columns = append(table.Columns, column)
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
