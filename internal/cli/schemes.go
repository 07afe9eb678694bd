package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/heatmap/pkg/colorscheme"
)

const swatchCells = 32

// schemesCommand lists registered colour schemes with a terminal swatch.
func (c *CLI) schemesCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "schemes",
		Short: "List available colour schemes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range colorscheme.Names() {
				if plain {
					fmt.Println(name)
					continue
				}
				s, err := colorscheme.Get(name)
				if err != nil {
					return err
				}
				printKeyValue(name, swatch(s, swatchCells))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print names only")
	return cmd
}
