package imagegen

import (
	"fmt"
	"strings"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// maxReplyInError bounds the model text quoted in ErrNoImageData.
const maxReplyInError = 200

// Extract returns the first inline image of the first candidate.
// A missing MIME type defaults to image/png.
func Extract(resp *Response) (media.Artifact, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return media.Artifact{}, apierr.ErrNoCandidates
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Parts {
		if p.Inline != nil {
			a := *p.Inline
			if a.MIMEType == "" {
				a.MIMEType = media.DefaultMIMEType
			}
			return a, nil
		}
		text.WriteString(p.Text)
	}

	// Models that decline a request usually say why in a text part.
	if reply := strings.TrimSpace(text.String()); reply != "" {
		if len(reply) > maxReplyInError {
			reply = reply[:maxReplyInError] + "..."
		}
		return media.Artifact{}, fmt.Errorf("%w: model replied %q", apierr.ErrNoImageData, reply)
	}
	return media.Artifact{}, apierr.ErrNoImageData
}

// ExtractText concatenates the text parts of the first candidate.
func ExtractText(resp *Response) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apierr.ErrNoCandidates
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", apierr.ErrNoTextData
	}
	return text, nil
}
