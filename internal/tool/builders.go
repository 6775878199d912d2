package tool

import (
	"fmt"
	"strings"

	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// Image slot names.
const (
	SlotFace       = "face"
	SlotPhoto      = "photo"
	SlotPerson     = "person"
	SlotSubject    = "subject"
	SlotBackground = "background"
	SlotSource     = "source"
	SlotMask       = "mask"
	SlotPortrait   = "portrait"
	SlotModel      = "model"
	SlotProduct    = "product"
)

// Defaults shared by the CLI and the server.
const (
	DefaultFaceLock         = 85
	DefaultFaceSafeNegative = "mutated face, deformed, ugly, bad anatomy, extra limbs, blurry, low quality"
	DefaultIDBackground     = "white"
)

// Choice lists.
var (
	IDBackgrounds = []string{"white", "#dbe9fa", "#e5e7eb"}
	TravelStyles  = []string{"Photorealistic", "Cinematic", "Vintage", "Anime Art", "Fantasy Art"}
	TravelTimes   = []string{"Daytime", "Golden Hour", "Twilight", "Night", "Blue Hour"}
	// FashionCategories lists product-fashion categories; unknown values
	// fall back to clothing instructions.
	FashionCategories = []string{"clothing", "watch", "jewelry", "shoes", "bag"}
)

const tryOnNegative = "Negative prompt: bad anatomy, distorted hands, missing fingers, extra limbs, blurry, low quality, watermark, text, distorted face, bad eyes, unnatural pose, mannequin, plastic skin, wrong orientation, upside down watch, distorted dial."

var tryOnInstructions = map[string]string{
	"watch":    "The product is a wrist watch. Place it naturally on the model's wrist. Ensure the watch face is clearly visible, facing outward/upward, and oriented correctly (12 o'clock at the top). The strap should wrap realistically around the wrist. Do not distort the watch dial.",
	"jewelry":  "The product is jewelry. Place it on the appropriate body part (neck, ears, or finger). Ensure high reflection and realistic metal texture.",
	"shoes":    "The product is footwear. Replace the model's shoes with this product. Ensure realistic ground contact and perspective.",
	"bag":      "The product is a bag. Have the model hold the bag naturally or wear it on their shoulder. Ensure the scale is correct.",
	"clothing": "The product is clothing. Drape it naturally on the model. Match the pose and lighting. Ensure folds and fabric texture look realistic.",
}

func init() {
	register(entry{
		spec: Spec{
			Name:    FaceSafe,
			Summary: "Generate an image from a prompt with a face resembling the uploaded portrait",
			Images:  []string{SlotFace},
			Params: []Param{
				{Name: "prompt", Help: "scene description", Required: true},
				{Name: "negative", Help: "negative prompt", Default: DefaultFaceSafeNegative},
				{Name: "face-lock", Help: "face resemblance strength (0-100)", Default: "85"},
			},
		},
		build: buildFaceSafe,
	})
	register(entry{
		spec: Spec{
			Name:    Img2Prompt,
			Summary: "Describe an image as a text-to-image prompt with camera and lighting notes",
			Images:  []string{SlotPhoto},
			Output:  imagegen.OutputJSON,
		},
		build:   buildImg2Prompt,
		newData: func() any { return &ImageAnalysis{} },
	})
	register(entry{
		spec: Spec{
			Name:    OOTDExtract,
			Summary: "Extract the outfit worn by a person onto a transparent background",
			Images:  []string{SlotPerson},
		},
		build: single(SlotPerson, "From the person in this image, precisely extract their complete outfit (clothing, shoes, accessories). The output must be an image with a transparent background containing only the extracted items."),
	})
	register(entry{
		spec: Spec{
			Name:    BgSwap,
			Summary: "Place the subject of one image onto another background",
			Images:  []string{SlotSubject, SlotBackground},
		},
		build: buildBgSwap,
	})
	register(entry{
		spec: Spec{
			Name:    Restore,
			Summary: "Restore and colorize an old or damaged photo",
			Images:  []string{SlotPhoto},
		},
		build: single(SlotPhoto, "Restore this old, damaged, or low-quality photo. Improve clarity, fix scratches, remove noise, enhance details, and realistically colorize it if it's black and white."),
	})
	register(entry{
		spec: Spec{
			Name:    Inpaint,
			Summary: "Replace the white area of a mask with new content",
			Images:  []string{SlotSource, SlotMask},
			Params:  []Param{{Name: "prompt", Help: "content for the masked area", Required: true}},
		},
		build: buildInpaint,
	})
	register(entry{
		spec: Spec{
			Name:    PromptMaker,
			Summary: "Turn a short brief into four text-to-image prompts",
			Params:  []Param{{Name: "brief", Help: "creative brief", Required: true}},
			Output:  imagegen.OutputJSON,
		},
		build:   buildPromptMaker,
		newData: func() any { return &PromptList{} },
	})
	register(entry{
		spec: Spec{
			Name:    IDPhoto,
			Summary: "Convert a portrait into a 3:4 ID photo",
			Images:  []string{SlotPortrait},
			Params: []Param{
				{Name: "background", Help: "background color", Default: DefaultIDBackground, Choices: IDBackgrounds},
				{Name: "attire", Help: "add business attire (true/false)", Default: "false"},
			},
		},
		build: buildIDPhoto,
	})
	register(entry{
		spec: Spec{
			Name:    Travel,
			Summary: "Place a person into a travel scene",
			Images:  []string{SlotSubject},
			Params: []Param{
				{Name: "location", Help: "scene description", Required: true},
				{Name: "style", Help: "rendering style", Default: TravelStyles[0], Choices: TravelStyles},
				{Name: "time", Help: "time of day", Default: TravelTimes[0], Choices: TravelTimes},
			},
		},
		build: buildTravel,
	})
	register(entry{
		spec: Spec{
			Name:    ProductFashion,
			Summary: "Virtual try-on of a product on a model",
			Images:  []string{SlotModel, SlotProduct},
			Params: []Param{
				{Name: "category", Help: "product category", Default: "clothing", Choices: FashionCategories},
			},
		},
		build: buildProductFashion,
	})
	register(entry{
		spec: Spec{
			Name:    LookbookConsult,
			Summary: "Recommend a lookbook shot list for a product",
			Images:  []string{SlotProduct},
			Params:  []Param{{Name: "info", Help: "additional product context"}},
			Output:  imagegen.OutputJSON,
		},
		build:   buildLookbookConsult,
		newData: func() any { return &LookbookConsultation{} },
	})
	register(entry{
		spec: Spec{
			Name:           Lookbook,
			Summary:        "Generate one lookbook shot of a product",
			Images:         []string{SlotProduct},
			OptionalImages: []string{SlotBackground, SlotModel},
			Params: []Param{
				{Name: "shot", Help: "shot type or camera angle", Required: true},
				{Name: "background", Help: "background description when no background image", Default: DefaultLookbookBackground},
				{Name: "model", Help: "model description when no model image", Default: DefaultLookbookModel},
				{Name: "model-lock", Help: "model image lock strength (0-100)", Default: "80"},
				{Name: "bg-lock", Help: "background image lock strength (0-100)", Default: "70"},
				{Name: "guidance", Help: "expert photography rules"},
				{Name: "name", Help: "product name"},
				{Name: "features", Help: "key features or highlights"},
			},
		},
		build: buildLookbook,
	})
}

// single builds a one-image request with a fixed instruction.
func single(slot, instruction string) func(Inputs) (imagegen.Request, error) {
	return func(in Inputs) (imagegen.Request, error) {
		img, _ := in.image(slot)
		return imageRequest(instruction, img), nil
	}
}

func imageRequest(instruction string, images ...media.Image) imagegen.Request {
	return imagegen.Request{
		Model:       imagegen.ImageModel,
		Instruction: instruction,
		Images:      images,
		Output:      imagegen.OutputImage,
	}
}

func buildFaceSafe(in Inputs) (imagegen.Request, error) {
	lock, err := in.percent("face-lock", DefaultFaceLock)
	if err != nil {
		return imagegen.Request{}, err
	}
	face, _ := in.image(SlotFace)
	instruction := fmt.Sprintf("%s, with a face that strongly resembles the person in the provided image. Face lock strength at %d%%. Negative prompt: %s.",
		in.param("prompt", ""), lock, in.param("negative", DefaultFaceSafeNegative))
	return imageRequest(instruction, face), nil
}

func buildImg2Prompt(in Inputs) (imagegen.Request, error) {
	photo, _ := in.image(SlotPhoto)
	return imagegen.Request{
		Model:       imagegen.TextModel,
		Instruction: "Analyze this image and generate a detailed prompt for a text-to-image model to recreate it. Also provide a negative prompt, relevant tags, and describe the camera and lighting setup. Respond in JSON format.",
		Images:      []media.Image{photo},
		Output:      imagegen.OutputJSON,
		Schema:      ImageAnalysisSchema(),
	}, nil
}

func buildBgSwap(in Inputs) (imagegen.Request, error) {
	subject, _ := in.image(SlotSubject)
	bg, _ := in.image(SlotBackground)
	return imageRequest("Take the primary subject from the first image and place them realistically onto the second image, which is the new background. Ensure lighting, shadows, and perspective are consistent.",
		subject, bg), nil
}

func buildInpaint(in Inputs) (imagegen.Request, error) {
	source, _ := in.image(SlotSource)
	mask, _ := in.image(SlotMask)
	// The mask is always sent as PNG.
	mask.MIMEType = "image/png"
	instruction := fmt.Sprintf(`Use the second image as a mask. In the first image, replace the white area defined by the mask with: "%s". The result should be seamless and photorealistic.`,
		in.param("prompt", ""))
	return imageRequest(instruction, source, mask), nil
}

func buildPromptMaker(in Inputs) (imagegen.Request, error) {
	return imagegen.Request{
		Model:       imagegen.TextModel,
		Instruction: fmt.Sprintf(`Based on the following brief, generate 4 creative, detailed, and distinct text-to-image prompts. Brief: "%s"`, in.param("brief", "")),
		Output:      imagegen.OutputJSON,
		Schema:      PromptListSchema(),
	}, nil
}

func buildIDPhoto(in Inputs) (imagegen.Request, error) {
	attire, err := in.flag("attire")
	if err != nil {
		return imagegen.Request{}, err
	}
	var attirePrompt string
	if attire {
		attirePrompt = "Add professional business attire (like a suit or blouse) suitable for an ID photo."
	}
	portrait, _ := in.image(SlotPortrait)
	instruction := fmt.Sprintf("Convert this image into a standard, high-quality ID photo. The background must be a solid, uniform color: %s. The subject should be centered and facing forward. %s Ensure the final image has a 3:4 aspect ratio.",
		in.param("background", DefaultIDBackground), attirePrompt)
	return imageRequest(instruction, portrait), nil
}

func buildTravel(in Inputs) (imagegen.Request, error) {
	subject, _ := in.image(SlotSubject)
	instruction := fmt.Sprintf(`Place the person from the provided image into this scene: "%s". The final image should have a "%s" style, set during "%s". The composition must be photorealistic, with accurate lighting, shadows, and perspective.`,
		in.param("location", ""), in.param("style", TravelStyles[0]), in.param("time", TravelTimes[0]))
	return imageRequest(instruction, subject), nil
}

func buildProductFashion(in Inputs) (imagegen.Request, error) {
	category := in.param("category", "clothing")
	specific, ok := tryOnInstructions[category]
	if !ok {
		specific = tryOnInstructions["clothing"]
	}
	instruction := strings.Join([]string{
		"Virtual Try-On Task.",
		"Image 1: The Model.",
		fmt.Sprintf("Image 2: The Product (%s).", category),
		"Goal: Generate a photorealistic image of the model wearing the product.",
		"Instructions: " + specific,
		"Maintain the model's identity, pose, and the lighting of the original scene. High quality, 8k resolution.",
		tryOnNegative,
	}, "\n")

	model, _ := in.image(SlotModel)
	product, _ := in.image(SlotProduct)
	return imageRequest(instruction, model, product), nil
}
