// Package tool holds the catalog of image tools and builds their provider
// requests. Builders are pure: they never resolve credentials or retry.
package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// Tool name constants.
// Use these instead of string literals for compile-time safety.
const (
	FaceSafe        = "face-safe"
	Img2Prompt      = "img2prompt"
	OOTDExtract     = "ootd-extract"
	BgSwap          = "bg-swap"
	Restore         = "restore"
	Inpaint         = "inpaint"
	PromptMaker     = "prompt-maker"
	IDPhoto         = "id-photo"
	Travel          = "travel"
	ProductFashion  = "product-fashion"
	LookbookConsult = "lookbook-consult"
	Lookbook        = "lookbook"
)

// ---------------------------------------------------------------------------
// Name type - represents a validated tool name
// ---------------------------------------------------------------------------

// Name represents a validated tool name.
// Zero value is invalid and must not be used with Spec().
// Use ParseName to create from user input.
type Name struct {
	name string
}

// ParseName validates and parses a tool name string.
// Returns ErrUnknown if the name is not recognized.
func ParseName(s string) (Name, error) {
	if s == "" {
		return Name{}, fmt.Errorf("tool name cannot be empty: %w", ErrUnknown)
	}
	if _, ok := catalog[s]; !ok {
		return Name{}, fmt.Errorf("unknown tool %q (available: %s): %w", s, strings.Join(Names(), ", "), ErrUnknown)
	}
	return Name{name: s}, nil
}

// MustParseName parses a tool name, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the tool name string.
// Returns empty string for zero value.
func (n Name) String() string {
	return n.name
}

// IsZero returns true if this is the zero value.
func (n Name) IsZero() bool {
	return n.name == ""
}

// Spec returns the tool description.
// Panics if called on zero value.
func (n Name) Spec() Spec {
	if n.name == "" {
		panic("tool.Name.Spec called on zero value")
	}
	return catalog[n.name].spec
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// Param describes a textual tool parameter.
type Param struct {
	Name     string   `json:"name"`
	Help     string   `json:"help"`
	Default  string   `json:"default,omitempty"`
	Required bool     `json:"required,omitempty"`
	Choices  []string `json:"choices,omitempty"`
}

// Spec describes a tool's inputs and output.
type Spec struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	// Images lists required image slots in upload order.
	Images []string `json:"images"`
	// OptionalImages lists image slots that may be omitted.
	OptionalImages []string        `json:"optionalImages,omitempty"`
	Params         []Param         `json:"params"`
	Output         imagegen.Output `json:"-"`
	OutputName     string          `json:"output"`
}

// Inputs carries user-supplied images by slot name and parameters by name.
type Inputs struct {
	Images map[string]media.Image
	Params map[string]string
}

// Result is the outcome of Run. Exactly one of Image and Data is set.
type Result struct {
	Tool  string
	Image *media.Artifact
	// Data holds the typed structured result (*ImageAnalysis, *PromptList
	// or *LookbookConsultation).
	Data any
}

// entry binds a Spec to its request builder and structured result type.
type entry struct {
	spec    Spec
	build   func(in Inputs) (imagegen.Request, error)
	newData func() any
}

// order defines the canonical order for Names().
var order = []string{
	FaceSafe, Img2Prompt, OOTDExtract, BgSwap, Restore, Inpaint,
	PromptMaker, IDPhoto, Travel, ProductFashion, LookbookConsult, Lookbook,
}

var catalog = map[string]entry{}

func register(e entry) {
	e.spec.OutputName = e.spec.Output.String()
	catalog[e.spec.Name] = e
}

// Names returns the available tool names in catalog order.
func Names() []string {
	result := make([]string, len(order))
	copy(result, order)
	return result
}

// Specs returns every tool Spec in catalog order.
func Specs() []Spec {
	specs := make([]Spec, 0, len(order))
	for _, n := range order {
		specs = append(specs, catalog[n].spec)
	}
	return specs
}

// Build validates in and returns the request for the named tool.
func Build(name Name, in Inputs) (imagegen.Request, error) {
	e, ok := catalog[name.name]
	if !ok {
		return imagegen.Request{}, fmt.Errorf("unknown tool %q: %w", name.name, ErrUnknown)
	}
	for _, slot := range e.spec.Images {
		if _, ok := in.Images[slot]; !ok {
			return imagegen.Request{}, fmt.Errorf("%s: image %q is required: %w", name.name, slot, ErrMissingInput)
		}
	}
	for _, p := range e.spec.Params {
		if p.Required && strings.TrimSpace(in.Params[p.Name]) == "" {
			return imagegen.Request{}, fmt.Errorf("%s: parameter %q is required: %w", name.name, p.Name, ErrMissingInput)
		}
		if v := in.Params[p.Name]; v != "" && len(p.Choices) > 0 && !contains(p.Choices, v) {
			return imagegen.Request{}, fmt.Errorf("%s: %s must be one of %s, got %q: %w",
				name.name, p.Name, strings.Join(p.Choices, ", "), v, ErrInvalidParam)
		}
	}
	return e.build(in)
}

// Run builds the request for the named tool and sends it through gen.
func Run(ctx context.Context, gen imagegen.Generator, name Name, in Inputs) (Result, error) {
	req, err := Build(name, in)
	if err != nil {
		return Result{}, err
	}

	res := Result{Tool: name.name}
	e := catalog[name.name]
	if e.spec.Output == imagegen.OutputJSON {
		data := e.newData()
		if err := gen.GenerateJSON(ctx, req, data); err != nil {
			return Result{}, err
		}
		res.Data = data
		return res, nil
	}

	art, err := gen.GenerateImage(ctx, req)
	if err != nil {
		return Result{}, err
	}
	res.Image = &art
	return res, nil
}

// ---------------------------------------------------------------------------
// Input helpers
// ---------------------------------------------------------------------------

// param returns the trimmed value of key, or def when empty.
func (in Inputs) param(key, def string) string {
	if v := strings.TrimSpace(in.Params[key]); v != "" {
		return v
	}
	return def
}

// percent parses key as an integer in [0, 100], or returns def when empty.
func (in Inputs) percent(key string, def int) (int, error) {
	v := strings.TrimSpace(in.Params[key])
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(v, "%"))
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("%s must be an integer between 0 and 100, got %q: %w", key, v, ErrInvalidParam)
	}
	return n, nil
}

// flag parses key as a boolean, false when empty.
func (in Inputs) flag(key string) (bool, error) {
	v := strings.TrimSpace(in.Params[key])
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q: %w", key, v, ErrInvalidParam)
	}
	return b, nil
}

// image returns the image in slot, if provided.
func (in Inputs) image(slot string) (media.Image, bool) {
	img, ok := in.Images[slot]
	return img, ok
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
