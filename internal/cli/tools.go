package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tuaneric255-blip/Imaxai/internal/tool"
)

// ToolsCmd creates the tools command listing the catalog.
func ToolsCmd(env *Env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools [name]",
		Short: "List the image tools and their inputs",
		Long: `List the image tools, or describe one tool's image slots and parameters.

Image slots are passed to 'imaxai run' as --image slot=path, parameters as
--param name=value.`,
		Example: `  imaxai tools
  imaxai tools id-photo
  imaxai tools --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runToolDetail(env, args[0], asJSON)
			}
			return runToolList(env, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}

func runToolList(env *Env, asJSON bool) error {
	specs := tool.Specs()
	if asJSON {
		return writeJSON(env.Stdout, specs)
	}

	w := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	for _, s := range specs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.OutputName, s.Summary)
	}
	return w.Flush()
}

func runToolDetail(env *Env, name string, asJSON bool) error {
	n, err := tool.ParseName(name)
	if err != nil {
		return err
	}
	spec := n.Spec()
	if asJSON {
		return writeJSON(env.Stdout, spec)
	}

	out := env.Stdout
	fmt.Fprintf(out, "%s: %s\n", spec.Name, spec.Summary)
	fmt.Fprintf(out, "Output: %s\n", spec.OutputName)
	if len(spec.Images) > 0 {
		fmt.Fprintf(out, "Images: %s\n", strings.Join(spec.Images, ", "))
	}
	if len(spec.OptionalImages) > 0 {
		fmt.Fprintf(out, "Optional images: %s\n", strings.Join(spec.OptionalImages, ", "))
	}
	if len(spec.Params) == 0 {
		return nil
	}

	fmt.Fprintln(out, "Params:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range spec.Params {
		var notes []string
		if p.Required {
			notes = append(notes, "required")
		}
		if p.Default != "" {
			notes = append(notes, "default: "+p.Default)
		}
		if len(p.Choices) > 0 {
			notes = append(notes, "one of: "+strings.Join(p.Choices, ", "))
		}
		line := p.Help
		if len(notes) > 0 {
			line += " (" + strings.Join(notes, "; ") + ")"
		}
		fmt.Fprintf(w, "  %s\t%s\n", p.Name, line)
	}
	return w.Flush()
}
