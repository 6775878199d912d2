// Package imagegen holds the provider-neutral request and response types,
// the response extractor, the retrying Client and the sequential batch runner.
//
// Provider adapters (internal/gemini, internal/openaiimg) implement Transport
// and translate to and from these types at their boundary.
package imagegen

import (
	"context"

	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// Default model identifiers.
const (
	ImageModel = "gemini-2.5-flash-image"
	TextModel  = "gemini-2.5-flash"
)

// Output selects the kind of response requested.
type Output int

const (
	// OutputImage requests an image part in the response.
	OutputImage Output = iota
	// OutputJSON requests a text part holding JSON matching Request.Schema.
	OutputJSON
)

// String returns the string representation of the Output.
func (o Output) String() string {
	if o == OutputJSON {
		return "json"
	}
	return "image"
}

// SchemaType is the JSON type of a Schema node.
type SchemaType string

// Schema types used by structured tools.
const (
	TypeObject SchemaType = "object"
	TypeArray  SchemaType = "array"
	TypeString SchemaType = "string"
)

// Schema describes the JSON shape expected from a structured request.
type Schema struct {
	Type       SchemaType
	Properties map[string]*Schema
	// Order lists property names in the order the model should emit them.
	Order    []string
	Items    *Schema
	Required []string
}

// Object builds an object schema whose properties are all required, in order.
func Object(props ...Property) *Schema {
	s := &Schema{Type: TypeObject, Properties: make(map[string]*Schema, len(props))}
	for _, p := range props {
		s.Properties[p.Name] = p.Schema
		s.Order = append(s.Order, p.Name)
		s.Required = append(s.Required, p.Name)
	}
	return s
}

// ArrayOf builds an array schema.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

// String builds a string schema.
func String() *Schema {
	return &Schema{Type: TypeString}
}

// Property is a named object member used with Object.
type Property struct {
	Name   string
	Schema *Schema
}

// Prop is shorthand for Property{name, schema}.
func Prop(name string, schema *Schema) Property {
	return Property{Name: name, Schema: schema}
}

// Request is one generation call. Images precede Instruction in the
// content sent to the provider, in slice order.
type Request struct {
	Model       string
	Instruction string
	Images      []media.Image
	Output      Output
	// Schema is required when Output is OutputJSON.
	Schema *Schema
}

// Response is the provider-neutral view of a generation result.
type Response struct {
	Candidates []Candidate
}

// Candidate is one alternative returned by the model.
type Candidate struct {
	Parts []Part
}

// Part is either text or inline binary data.
type Part struct {
	Text   string
	Inline *media.Artifact
}

// Transport performs a single generation call against a provider.
// Implementations do not retry.
type Transport interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// TransportFactory creates a Transport bound to an API key.
type TransportFactory interface {
	NewTransport(ctx context.Context, apiKey string) (Transport, error)
}

// TransportFactoryFunc adapts a function to TransportFactory.
type TransportFactoryFunc func(ctx context.Context, apiKey string) (Transport, error)

// NewTransport calls f.
func (f TransportFactoryFunc) NewTransport(ctx context.Context, apiKey string) (Transport, error) {
	return f(ctx, apiKey)
}
