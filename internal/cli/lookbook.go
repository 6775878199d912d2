package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/format"
	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/interrupt"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
	"github.com/tuaneric255-blip/Imaxai/internal/tool"
)

// lookbookOptions holds the lookbook command flags.
type lookbookOptions struct {
	product          string
	background       string
	backgroundPrompt string
	model            string
	modelPrompt      string
	modelLock        int
	bgLock           int
	category         string
	angles           []string
	textureMacro     bool
	brandTag         bool
	detailCircle     bool
	details          []string
	variations       bool
	consult          bool
	info             string
	name             string
	features         string
	pacing           time.Duration
}

// LookbookCmd creates the lookbook command rendering a shot list in sequence.
func LookbookCmd(env *Env) *cobra.Command {
	var (
		opts  lookbookOptions
		flags genFlags
	)

	cmd := &cobra.Command{
		Use:   "lookbook",
		Short: "Render a product lookbook, one shot at a time",
		Long: `Render a product lookbook: one image per shot, generated sequentially
with a pause between shots to stay under the provider's rate limit.

Shots come from --angle (or the --category preset when no angle is given),
the macro toggles, --detail, and --variations. With --consult the product is
first analyzed; the recommended shots are added and the material and lighting
analysis guides every shot.

Press Ctrl+C once to stop after the current shot, twice to abort.`,
		Example: `  imaxai lookbook --product bag.jpg --category bags --texture-macro
  imaxai lookbook --product dress.png --model model.jpg --angle "Full Body Front" --angle "Back View"
  imaxai lookbook --product ring.jpg --category jewelry --consult --info "18k gold, handmade"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookbook(cmd.Context(), env, &flags, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.product, "product", "", "Product image (required)")
	f.StringVar(&opts.background, "background", "", "Background reference image")
	f.StringVar(&opts.backgroundPrompt, "background-prompt", tool.DefaultLookbookBackground, "Background description when no background image")
	f.StringVar(&opts.model, "model", "", "Model reference image")
	f.StringVar(&opts.modelPrompt, "model-prompt", tool.DefaultLookbookModel, "Model description when no model image")
	f.IntVar(&opts.modelLock, "model-lock", tool.DefaultModelLock, "Model reference lock strength, 0-100")
	f.IntVar(&opts.bgLock, "bg-lock", tool.DefaultBackgroundLock, "Background reference lock strength, 0-100")
	f.StringVar(&opts.category, "category", "", "Angle preset: "+strings.Join(tool.LookbookCategories, ", "))
	f.StringArrayVar(&opts.angles, "angle", nil, "Camera angle shot (repeatable)")
	f.BoolVar(&opts.textureMacro, "texture-macro", false, "Add a texture macro shot")
	f.BoolVar(&opts.brandTag, "brand-tag", false, "Add a brand tag / lining shot")
	f.BoolVar(&opts.detailCircle, "detail-circle", false, "Add a magnified detail circle shot")
	f.StringArrayVar(&opts.details, "detail", nil, "Functional detail close-up, e.g. \"zipper\" (repeatable)")
	f.BoolVar(&opts.variations, "variations", false, "Add four creative variations")
	f.BoolVar(&opts.consult, "consult", false, "Analyze the product first and follow its recommendations")
	f.StringVar(&opts.info, "info", "", "Extra product context for --consult")
	f.StringVar(&opts.name, "name", "", "Product name")
	f.StringVar(&opts.features, "features", "", "Key features to highlight")
	f.DurationVar(&opts.pacing, "pacing", imagegen.DefaultPacing, "Pause between shots")
	flags.register(f)
	_ = cmd.MarkFlagRequired("product")

	return cmd
}

func runLookbook(parent context.Context, env *Env, flags *genFlags, opts lookbookOptions) error {
	if opts.modelLock < 0 || opts.modelLock > 100 || opts.bgLock < 0 || opts.bgLock > 100 {
		return fmt.Errorf("lock strength must be between 0 and 100: %w", tool.ErrInvalidParam)
	}
	angles := opts.angles
	if len(angles) == 0 && opts.category != "" {
		preset, err := tool.Angles(opts.category)
		if err != nil {
			return err
		}
		angles = preset
	}

	if err := checkFile(opts.product); err != nil {
		return err
	}
	product, err := media.Load(opts.product)
	if err != nil {
		return err
	}
	background, err := loadOptional(opts.background)
	if err != nil {
		return err
	}
	model, err := loadOptional(opts.model)
	if err != nil {
		return err
	}

	sess, err := openSession(env, flags)
	if err != nil {
		return err
	}
	defer sess.Close()

	base := tool.NewLookbookRequest(product)
	base.Background = tool.Context{Image: background, Prompt: opts.backgroundPrompt}
	base.Model = tool.Context{Image: model, Prompt: opts.modelPrompt}
	base.ModelLock = opts.modelLock
	base.BgLock = opts.bgLock
	base.Name = opts.name
	base.Features = opts.features

	if opts.consult {
		c, err := consult(parent, env, sess, product, opts.info)
		if err != nil {
			return err
		}
		base.Guidance = c.Guidance()
		angles = append(angles, c.ShotNames()...)
	}

	shots := tool.ShotList{
		Angles:            angles,
		TextureMacro:      opts.textureMacro,
		BrandTag:          opts.brandTag,
		DetailCircle:      opts.detailCircle,
		FunctionalDetails: opts.details,
		Variations:        opts.variations,
	}.Tasks()
	if len(shots) == 0 {
		return fmt.Errorf("add --angle, --category or a shot toggle: %w", ErrNoShots)
	}

	handler, ctx := interrupt.NewHandler(parent, interrupt.StopAfterTask)
	defer handler.Stop()

	id := runID()
	total := len(shots)
	done := 0
	var saveErr error

	fmt.Fprintf(env.Stderr, "Rendering %d shot(s) (provider: %s)...\n", total, sess.provider)
	start := env.Now()
	report := imagegen.RunBatch(ctx, tool.LookbookTasks(sess.gen, base, shots), imagegen.BatchOptions{
		Pacing: opts.pacing,
		Stop:   handler.Stopping,
		Sleep:  env.Sleep,
		Logger: sess.logger,
		OnStart: func(i int, t imagegen.Task) {
			fmt.Fprintf(env.Stderr, "%s %s...\n", format.Progress(i+1, total), t.Name)
		},
		OnResult: func(r imagegen.TaskResult) {
			done++
			if r.Err != nil {
				fmt.Fprintf(env.Stderr, "  Failed: %s\n", apierr.Friendly(r.Err))
				return
			}
			base := fmt.Sprintf("lookbook-%s-%02d-%s", id, done, slug(r.Name))
			path, err := saveArtifact(r.Artifact, "", sess.outputDir, base)
			if err != nil {
				fmt.Fprintf(env.Stderr, "  Failed to save: %v\n", err)
				saveErr = errors.Join(saveErr, err)
				return
			}
			reportSaved(env.Stderr, path, r.Artifact)
		},
	})

	fmt.Fprintf(env.Stderr, "Done in %s: %d succeeded, %d failed, %d skipped\n",
		format.Elapsed(env.Now().Sub(start).Round(time.Second)),
		report.Succeeded(), report.Failed(), report.Skipped)

	switch {
	case report.HaltErr != nil:
		return report.HaltErr
	case report.Stopped && (handler.WasInterrupted() || parent.Err() != nil):
		return fmt.Errorf("lookbook stopped: %w", context.Canceled)
	case saveErr != nil:
		return saveErr
	case report.Succeeded() == 0 && report.Failed() > 0:
		return report.Results[len(report.Results)-1].Err
	}
	return nil
}

// consult runs the lookbook consultation and prints its recommendations.
func consult(ctx context.Context, env *Env, sess *session, product media.Image, info string) (*tool.LookbookConsultation, error) {
	fmt.Fprintln(env.Stderr, "Consulting on the product...")
	res, err := tool.Run(ctx, sess.gen, tool.MustParseName(tool.LookbookConsult), tool.Inputs{
		Images: map[string]media.Image{tool.SlotProduct: product},
		Params: map[string]string{"info": info},
	})
	if err != nil {
		return nil, err
	}
	c, ok := res.Data.(*tool.LookbookConsultation)
	if !ok {
		return nil, fmt.Errorf("unexpected consultation result %T", res.Data)
	}

	fmt.Fprintf(env.Stderr, "  Product: %s\n", c.ProductType)
	for _, s := range c.RecommendedShots {
		if s.ShotName != "" {
			fmt.Fprintf(env.Stderr, "  + %s: %s\n", s.ShotName, s.Rationale)
		}
	}
	return c, nil
}
