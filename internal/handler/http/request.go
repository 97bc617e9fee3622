package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
	apperrors "github.com/camilomoreno07/gorkis-api/pkg/errors"
)

const maxBodyBytes = 1 << 20

// serviceRequest is the body of POST /services and PUT /services/{id}.
// A nil field was absent from the request.
type serviceRequest struct {
	Author      *string `json:"author" validate:"omitempty,max=200"`
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Rate        *int    `json:"rate"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url,max=2048"`
}

func (req *serviceRequest) patch() domain.ServicePatch {
	return domain.ServicePatch{
		Author:      req.Author,
		Title:       req.Title,
		Description: req.Description,
		Rate:        req.Rate,
		ImageURL:    req.ImageURL,
	}
}

// rateRequest is the body of PUT /services/rate/{id}.
type rateRequest struct {
	Rate *int `json:"rate" validate:"required"`
}

// readFields returns the body fields keyed by name. Bodies may be JSON
// objects or urlencoded forms; an empty body has no fields. JSON nulls and
// an empty form rate are dropped so they read as absent.
func readFields(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, apperrors.InvalidInput("invalid form body")
		}
		fields := make(map[string]any, len(r.PostForm))
		for key, values := range r.PostForm {
			if key == domain.AttrRate && len(values) > 0 && values[0] == "" {
				continue
			}
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
		return fields, nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.InvalidInput("request body too large")
		}
		return nil, apperrors.InvalidInput("invalid request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, apperrors.InvalidInput("request body must be a JSON object")
	}
	for key, v := range fields {
		if v == nil {
			delete(fields, key)
		}
	}
	return fields, nil
}

func stringField(fields map[string]any, name string) (*string, error) {
	v, ok := fields[name]
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("field '%s' must be a string", name))
	}
	return &s, nil
}

func rateField(fields map[string]any) (*int, error) {
	v, ok := fields[domain.AttrRate]
	if !ok {
		return nil, nil
	}
	rate, err := domain.ParseRate(v)
	if err != nil {
		return nil, apperrors.InvalidInput("field 'rate' must be an integer")
	}
	return &rate, nil
}

func parseServiceRequest(fields map[string]any) (*serviceRequest, error) {
	var (
		req serviceRequest
		err error
	)
	if req.Author, err = stringField(fields, domain.AttrAuthor); err != nil {
		return nil, err
	}
	if req.Title, err = stringField(fields, domain.AttrTitle); err != nil {
		return nil, err
	}
	if req.Description, err = stringField(fields, domain.AttrDescription); err != nil {
		return nil, err
	}
	if req.ImageURL, err = stringField(fields, domain.AttrImageURL); err != nil {
		return nil, err
	}
	if req.Rate, err = rateField(fields); err != nil {
		return nil, err
	}
	return &req, nil
}

func parseRateRequest(fields map[string]any) (*rateRequest, error) {
	rate, err := rateField(fields)
	if err != nil {
		return nil, err
	}
	return &rateRequest{Rate: rate}, nil
}
