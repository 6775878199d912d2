package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// Lookbook defaults.
const (
	DefaultLookbookBackground = "Professional studio lighting, neutral background"
	DefaultLookbookModel      = "Professional fashion model, natural pose"
	DefaultModelLock          = 80
	DefaultBackgroundLock     = 70
)

// Special shot names.
const (
	ShotTextureMacro     = "Texture Macro"
	ShotBrandTag         = "Brand Tag / Lining"
	ShotDetailCircle     = "Detail Circle Shot"
	ShotFunctionalPrefix = "Functional Detail: "
	variationCount       = 4
)

const lookbookNegative = "Negative prompt: bad anatomy, distorted hands, missing fingers, extra limbs, blurry, low quality, watermark, text, distorted face, bad eyes, unnatural pose, mannequin, plastic skin."

// categoryAngles maps product categories to their camera angles.
var categoryAngles = map[string][]string{
	"clothing": {"Front View", "Back View", "Side View", "3/4 Angle", "Dynamic Movement"},
	"jewelry":  {"On-Model", "Flat Lay", "Macro Detail", "Side Profile", "Perspective Shot"},
	"bags":     {"Front View", "Side Profile", "3/4 Angle", "On-Model", "Interior Peek"},
	"footwear": {"Side Profile", "Top-down", "Front View", "Heel Detail", "On-Model"},
	"other":    {"Front View", "Isometric 45°", "Top-down", "Detail Shot", "In-Context"},
}

// LookbookCategories lists the categories accepted by Angles.
var LookbookCategories = []string{"clothing", "jewelry", "bags", "footwear", "other"}

// Angles returns the camera angles offered for a lookbook category.
func Angles(category string) ([]string, error) {
	angles, ok := categoryAngles[category]
	if !ok {
		return nil, fmt.Errorf("category must be one of %s, got %q: %w",
			strings.Join(LookbookCategories, ", "), category, ErrInvalidParam)
	}
	out := make([]string, len(angles))
	copy(out, angles)
	return out, nil
}

// ---------------------------------------------------------------------------
// Shot list
// ---------------------------------------------------------------------------

// ShotList selects the shots of a lookbook batch.
type ShotList struct {
	Angles            []string
	TextureMacro      bool
	BrandTag          bool
	DetailCircle      bool
	FunctionalDetails []string
	Variations        bool
}

// Tasks returns the shot names in generation order: angles, texture macro,
// brand tag, detail circle, functional details, then variations.
func (s ShotList) Tasks() []string {
	var tasks []string
	seen := make(map[string]bool)
	for _, a := range s.Angles {
		if a = strings.TrimSpace(a); a != "" && !seen[a] {
			seen[a] = true
			tasks = append(tasks, a)
		}
	}
	if s.TextureMacro {
		tasks = append(tasks, ShotTextureMacro)
	}
	if s.BrandTag {
		tasks = append(tasks, ShotBrandTag)
	}
	if s.DetailCircle {
		tasks = append(tasks, ShotDetailCircle)
	}
	for _, d := range s.FunctionalDetails {
		if d = strings.TrimSpace(d); d != "" {
			tasks = append(tasks, ShotFunctionalPrefix+d)
		}
	}
	if s.Variations {
		for i := 1; i <= variationCount; i++ {
			tasks = append(tasks, fmt.Sprintf("Variation %d", i))
		}
	}
	return tasks
}

// ---------------------------------------------------------------------------
// Request
// ---------------------------------------------------------------------------

// Context is a background or model reference: an image or a description.
type Context struct {
	Image  *media.Image
	Prompt string
}

// LookbookRequest holds everything needed to render one lookbook shot.
type LookbookRequest struct {
	Product    media.Image
	Shot       string
	Background Context
	Model      Context
	ModelLock  int
	BgLock     int
	Guidance   string
	Name       string
	Features   string
}

// NewLookbookRequest returns a request with default contexts and locks.
func NewLookbookRequest(product media.Image) LookbookRequest {
	return LookbookRequest{
		Product:    product,
		Background: Context{Prompt: DefaultLookbookBackground},
		Model:      Context{Prompt: DefaultLookbookModel},
		ModelLock:  DefaultModelLock,
		BgLock:     DefaultBackgroundLock,
	}
}

// Request builds the provider request. Images are the product, then the
// background image, then the model image, when present.
func (r LookbookRequest) Request() imagegen.Request {
	images := []media.Image{r.Product}
	if r.Background.Image != nil {
		images = append(images, *r.Background.Image)
	}
	if r.Model.Image != nil {
		images = append(images, *r.Model.Image)
	}

	var scene strings.Builder
	if r.Background.Image == nil {
		fmt.Fprintf(&scene, "Background context: %s. ", r.Background.Prompt)
	} else {
		fmt.Fprintf(&scene, "Use the provided background image as context (lock strength %d%%). ", r.BgLock)
	}
	if r.Model.Image == nil {
		fmt.Fprintf(&scene, "Model description: %s. ", r.Model.Prompt)
	} else {
		fmt.Fprintf(&scene, "Use the provided model image as reference (lock strength %d%%). ", r.ModelLock)
	}

	var product strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&product, "Product Name: %s. ", r.Name)
	}
	if r.Features != "" {
		fmt.Fprintf(&product, "Key Features/Highlights: %s. ", r.Features)
	}

	var guidance string
	if r.Guidance != "" {
		guidance = "EXPERT PHOTOGRAPHY RULES: " + r.Guidance
	}

	lines := []string{
		"Professional Fashion Lookbook Photography. 8k resolution, highly detailed.",
		strings.TrimSpace("Product: See first image. " + product.String()),
		strings.TrimSpace(scene.String()),
		"Task: " + shotInstruction(r.Shot),
		guidance,
		"Ensure high quality, correct lighting, and realistic textures.",
		lookbookNegative,
	}
	kept := lines[:0]
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}

	return imagegen.Request{
		Model:       imagegen.ImageModel,
		Instruction: strings.Join(kept, "\n"),
		Images:      images,
		Output:      imagegen.OutputImage,
	}
}

// shotInstruction picks the task text by keyword; first match wins.
func shotInstruction(shot string) string {
	switch {
	case strings.Contains(shot, "Detail Circle") || strings.Contains(shot, "Magnified"):
		return "Create a high-quality product shot. IMPORTANT: Overlay a magnified circular inset (loupe style) in one corner that zooms in on the material texture or a specific detail."
	case strings.Contains(shot, "Texture Macro"):
		return "MACRO PHOTOGRAPHY. Extreme close-up on the material/fabric texture. Focus on weaving, stitching, grain, or surface details. High sharpness, tactile feel. Do not show the full object."
	case strings.Contains(shot, "Functional Detail"):
		detail := "detail"
		if _, after, ok := strings.Cut(shot, ":"); ok && strings.TrimSpace(after) != "" {
			detail = strings.TrimSpace(after)
		}
		return fmt.Sprintf(`MACRO/CLOSE-UP SHOT. Focus specifically on this functional element: "%s". Shallow depth of field to isolate the %s. Ensure high clarity on the hardware/stitching. Do not show the full model.`, detail, detail)
	case strings.Contains(shot, "Brand Tag"):
		return "MACRO PHOTOGRAPHY. Extreme close-up shot of the Brand Tag, Label, or Internal Lining. Ensure the text/logo on the tag is sharp and legible. Shallow depth of field."
	case strings.Contains(shot, "Variation"):
		return "Create a unique variation of the product lookbook shot. High fashion style. Change the angle slightly to add variety."
	default:
		return fmt.Sprintf("Generate a photorealistic fashion lookbook shot. Camera Angle/Type: %s. The model should be wearing/using the product naturally in the scene.", shot)
	}
}

func buildLookbook(in Inputs) (imagegen.Request, error) {
	modelLock, err := in.percent("model-lock", DefaultModelLock)
	if err != nil {
		return imagegen.Request{}, err
	}
	bgLock, err := in.percent("bg-lock", DefaultBackgroundLock)
	if err != nil {
		return imagegen.Request{}, err
	}

	product, _ := in.image(SlotProduct)
	r := NewLookbookRequest(product)
	r.Shot = in.param("shot", "")
	r.ModelLock = modelLock
	r.BgLock = bgLock
	r.Guidance = in.param("guidance", "")
	r.Name = in.param("name", "")
	r.Features = in.param("features", "")
	if img, ok := in.image(SlotBackground); ok {
		r.Background = Context{Image: &img}
	} else {
		r.Background = Context{Prompt: in.param("background", DefaultLookbookBackground)}
	}
	if img, ok := in.image(SlotModel); ok {
		r.Model = Context{Image: &img}
	} else {
		r.Model = Context{Prompt: in.param("model", DefaultLookbookModel)}
	}
	return r.Request(), nil
}

func buildLookbookConsult(in Inputs) (imagegen.Request, error) {
	product, _ := in.image(SlotProduct)
	instruction := fmt.Sprintf(`You are an Expert Fashion Photography Consultant (15+ years experience in E-commerce & Luxury).

Analyze the provided product image and the additional context: "%s".

Your goal is to provide a "Must-Have Shot List" to maximize conversion rates and showcase the product's best features (Material, Fit, Detail).

Return a JSON object with:
1. product_type: Specific type (e.g., Silk Dress, Leather Tote).
2. material_analysis: Description of material properties (sheen, texture, weight).
3. lighting_suggestion: Best lighting setup (e.g., Softbox for soft shadows, Hard light for texture).
4. recommended_shots: An array of objects, each containing:
- shot_name: Title of the shot (e.g., "Texture Macro", "Waist Tie Detail", "Dynamic Spin").
- rationale: Why this shot sells the product.
- technical_prompt: A specific instruction for the photographer/AI generator (e.g., "Macro lens, focus on stitching, f/8").

Prioritize shots like "Texture Macro" for fabrics, "Hardware Detail" for bags, etc.`, in.param("info", ""))

	return imagegen.Request{
		Model:       imagegen.TextModel,
		Instruction: instruction,
		Images:      []media.Image{product},
		Output:      imagegen.OutputJSON,
		Schema:      LookbookConsultationSchema(),
	}, nil
}

// LookbookTasks returns one batch task per shot, each rendering base with
// that shot through gen.
func LookbookTasks(gen imagegen.Generator, base LookbookRequest, shots []string) []imagegen.Task {
	tasks := make([]imagegen.Task, 0, len(shots))
	for _, shot := range shots {
		r := base
		r.Shot = shot
		req := r.Request()
		tasks = append(tasks, imagegen.Task{
			Name: shot,
			Run: func(ctx context.Context) (media.Artifact, error) {
				return gen.GenerateImage(ctx, req)
			},
		})
	}
	return tasks
}
