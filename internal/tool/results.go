package tool

import (
	"fmt"

	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
)

// ImageAnalysis is the img2prompt result.
type ImageAnalysis struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negativePrompt"`
	Tags           []string `json:"tags"`
	Camera         string   `json:"camera"`
	Lighting       string   `json:"lighting"`
}

// ImageAnalysisSchema returns the response schema for ImageAnalysis.
func ImageAnalysisSchema() *imagegen.Schema {
	return imagegen.Object(
		imagegen.Prop("prompt", imagegen.String()),
		imagegen.Prop("negativePrompt", imagegen.String()),
		imagegen.Prop("tags", imagegen.ArrayOf(imagegen.String())),
		imagegen.Prop("camera", imagegen.String()),
		imagegen.Prop("lighting", imagegen.String()),
	)
}

// PromptList is the prompt-maker result.
type PromptList struct {
	Prompts []string `json:"prompts"`
}

// PromptListSchema returns the response schema for PromptList.
func PromptListSchema() *imagegen.Schema {
	return imagegen.Object(imagegen.Prop("prompts", imagegen.ArrayOf(imagegen.String())))
}

// RecommendedShot is one entry of a lookbook consultation.
type RecommendedShot struct {
	ShotName        string `json:"shot_name"`
	Rationale       string `json:"rationale"`
	TechnicalPrompt string `json:"technical_prompt"`
}

// LookbookConsultation is the lookbook-consult result.
type LookbookConsultation struct {
	ProductType        string            `json:"product_type"`
	MaterialAnalysis   string            `json:"material_analysis"`
	LightingSuggestion string            `json:"lighting_suggestion"`
	RecommendedShots   []RecommendedShot `json:"recommended_shots"`
}

// Guidance renders the consultation as expert rules for lookbook shots.
func (c *LookbookConsultation) Guidance() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("Material: %s. Lighting: %s.", c.MaterialAnalysis, c.LightingSuggestion)
}

// ShotNames returns the recommended shot names, skipping blanks.
func (c *LookbookConsultation) ShotNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.RecommendedShots))
	for _, s := range c.RecommendedShots {
		if s.ShotName != "" {
			names = append(names, s.ShotName)
		}
	}
	return names
}

// LookbookConsultationSchema returns the response schema for LookbookConsultation.
func LookbookConsultationSchema() *imagegen.Schema {
	return imagegen.Object(
		imagegen.Prop("product_type", imagegen.String()),
		imagegen.Prop("material_analysis", imagegen.String()),
		imagegen.Prop("lighting_suggestion", imagegen.String()),
		imagegen.Prop("recommended_shots", imagegen.ArrayOf(imagegen.Object(
			imagegen.Prop("shot_name", imagegen.String()),
			imagegen.Prop("rationale", imagegen.String()),
			imagegen.Prop("technical_prompt", imagegen.String()),
		))),
	)
}
