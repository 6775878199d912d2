package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tuaneric255-blip/Imaxai/internal/format"
	"github.com/tuaneric255-blip/Imaxai/internal/interrupt"
	"github.com/tuaneric255-blip/Imaxai/internal/tool"
)

// RunCmd creates the run command executing one tool.
func RunCmd(env *Env) *cobra.Command {
	var (
		images []string
		params []string
		output string
		flags  genFlags
	)

	cmd := &cobra.Command{
		Use:   "run <tool>",
		Short: "Run one image tool",
		Long: `Run one image tool against the provider.

Image tools save the generated image (default: <tool>-<id>.<ext> in the
output directory). Analysis tools print their JSON result to stdout.

Quota and overload failures are retried with exponential backoff; the wait
is printed before each retry. See 'imaxai tools <name>' for a tool's inputs.`,
		Example: `  imaxai run restore --image photo=old.jpg
  imaxai run bg-swap --image subject=me.png --image background=beach.jpg -o swapped.png
  imaxai run id-photo --image portrait=me.jpg --param background=blue
  imaxai run prompt-maker --param brief="neon city at night"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, env, &flags, args[0], images, params, output)
		},
	}

	cmd.Flags().StringArrayVarP(&images, "image", "i", nil, "Input image as slot=path (repeatable)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Tool parameter as name=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file for image results")
	flags.register(cmd.Flags())

	return cmd
}

func runTool(cmd *cobra.Command, env *Env, flags *genFlags, name string, imageArgs, paramArgs []string, output string) error {
	handler, ctx := interrupt.NewHandler(cmd.Context(), interrupt.Cancel)
	defer handler.Stop()

	n, err := tool.ParseName(name)
	if err != nil {
		return err
	}
	slots, err := parseAssignments("image", imageArgs)
	if err != nil {
		return err
	}
	params, err := parseAssignments("param", paramArgs)
	if err != nil {
		return err
	}

	sess, err := openSession(env, flags)
	if err != nil {
		return err
	}
	defer sess.Close()

	images, err := loadSlots(ctx, slots)
	if err != nil {
		return err
	}
	in := tool.Inputs{Images: images, Params: params}

	// Validate before any network traffic.
	if _, err := tool.Build(n, in); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Running %s (provider: %s)...\n", n, sess.provider)
	start := env.Now()
	res, err := tool.Run(ctx, sess.gen, n, in)
	if err != nil {
		return err
	}
	elapsed := env.Now().Sub(start).Round(time.Second)

	if res.Image == nil {
		fmt.Fprintf(env.Stderr, "Done in %s\n", format.Elapsed(elapsed))
		return writeJSON(env.Stdout, res.Data)
	}

	path, err := saveArtifact(*res.Image, output, sess.outputDir, n.String()+"-"+runID())
	if err != nil {
		return err
	}
	reportSaved(env.Stderr, path, *res.Image)
	fmt.Fprintf(env.Stderr, "Done in %s\n", format.Elapsed(elapsed))
	return nil
}
