package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/credential"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
	"github.com/tuaneric255-blip/Imaxai/internal/tool"
)

// RunRequest is the body of POST /api/tools/:name.
// Image values are data URIs or bare base64 payloads.
type RunRequest struct {
	Images map[string]string `json:"images"`
	Params map[string]string `json:"params"`
}

// RunResponse carries either a generated image or a structured result.
type RunResponse struct {
	Tool     string `json:"tool"`
	Image    string `json:"image,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Result   any    `json:"result,omitempty"`
}

// ErrorResponse is returned for every failure.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// CredentialRequest is the body of PUT /api/credential.
type CredentialRequest struct {
	APIKey string `json:"apiKey"`
}

// CredentialResponse echoes the stored key, masked.
type CredentialResponse struct {
	Masked string `json:"masked"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": tool.Specs()})
}

func (s *Server) handleRunTool(c *gin.Context) {
	name, err := tool.ParseName(c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var body RunRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, &badRequest{err})
		return
	}

	in := tool.Inputs{Images: make(map[string]media.Image, len(body.Images)), Params: body.Params}
	for slot, raw := range body.Images {
		img, err := media.ParseDataURI(raw)
		if err != nil {
			s.fail(c, err)
			return
		}
		in.Images[slot] = img
	}

	res, err := tool.Run(c.Request.Context(), s.gen, name, in)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := RunResponse{Tool: res.Tool, Result: res.Data}
	if res.Image != nil {
		out.Image = res.Image.DataURI()
		out.MIMEType = res.Image.MIMEType
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSetCredential(c *gin.Context) {
	var body CredentialRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, &badRequest{err})
		return
	}
	key, err := credential.ValidateUserKey(body.APIKey)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.keys.Set(s.key, key); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, CredentialResponse{Masked: credential.Mask(key)})
}

func (s *Server) handleDeleteCredential(c *gin.Context) {
	if err := s.keys.Unset(s.key); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// badRequest marks malformed request bodies.
type badRequest struct{ err error }

func (e *badRequest) Error() string { return "invalid request body: " + e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

// fail writes the friendly message for err with its mapped status.
func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	id := c.GetString("requestID")
	if status >= http.StatusInternalServerError {
		s.logger.Errorf("request %s failed: %v", id, err)
	} else {
		s.logger.Warnf("request %s rejected: %v", id, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: apierr.Friendly(err), RequestID: id})
}

// StatusFor maps an error to an HTTP status.
func StatusFor(err error) int {
	var br *badRequest
	var given *apierr.GivenUpError
	switch {
	case errors.As(err, &br),
		errors.Is(err, tool.ErrMissingInput),
		errors.Is(err, tool.ErrInvalidParam),
		errors.Is(err, media.ErrUnsupportedImage),
		errors.Is(err, media.ErrInvalidDataURI),
		errors.Is(err, credential.ErrKeyTooShort),
		errors.Is(err, apierr.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, tool.ErrUnknown):
		return http.StatusNotFound
	case errors.Is(err, apierr.ErrMissingCredential),
		errors.Is(err, apierr.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.As(err, &given):
		if given.Kind == apierr.KindQuota {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	case errors.Is(err, apierr.ErrBadRequest),
		errors.Is(err, apierr.ErrTimeout),
		errors.Is(err, apierr.ErrNoCandidates),
		errors.Is(err, apierr.ErrNoImageData),
		errors.Is(err, apierr.ErrNoTextData),
		errors.Is(err, apierr.ErrRateLimit),
		errors.Is(err, apierr.ErrOverloaded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
