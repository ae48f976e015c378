// -- cmd/describe.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/descry/internal/describe"
)

// describeOutput is the JSON shape for one parsed description.
type describeOutput struct {
	Original   string            `json:"original"`
	Normalized string            `json:"normalized"`
	Type       string            `json:"elementType,omitempty"`
	Action     string            `json:"action,omitempty"`
	Modifiers  []string          `json:"modifiers,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Role       string            `json:"role,omitempty"`
	Text       string            `json:"text,omitempty"`
	Exact      bool              `json:"exact,omitempty"`
}

// newDescribeCmd creates the `describe` command, which parses descriptions
// without touching a browser. Useful for inspecting how a phrase will be
// interpreted before pointing it at a page.
func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [descriptions...]",
		Short: "Parses element descriptions and prints the normalized interpretation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]describeOutput, 0, len(args))
			for _, raw := range args {
				d := describe.Normalize(raw)
				hints := d.Hints()
				item := describeOutput{
					Original:   d.Original,
					Normalized: d.Normalized,
					Type:       string(d.Type),
					Action:     string(d.Action),
					Attributes: d.Attributes,
					Role:       hints.Role,
					Text:       hints.Text,
					Exact:      hints.Exact,
				}
				for _, m := range d.Modifiers {
					item.Modifiers = append(item.Modifiers, m.String())
				}
				out = append(out, item)
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode output: %w", err)
			}
			cmd.Println(string(data))
			return nil
		},
	}
}
