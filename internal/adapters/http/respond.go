package web

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"vacademy/internal/application/orchestrators"
	"vacademy/internal/domain/asset"
	"vacademy/internal/domain/campaign"
	"vacademy/internal/domain/course"
	"vacademy/internal/domain/customfield"
	"vacademy/internal/domain/outbox"
	"vacademy/internal/domain/richtext"
	"vacademy/internal/domain/template"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// validate checks request DTOs; error messages use JSON field names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// notFound lists sentinels answered with 404.
var notFound = []error{
	course.ErrNotFound,
	campaign.ErrNotFound,
	template.ErrNotFound,
	template.ErrEditorStateNotFound,
	asset.ErrNotFound,
	outbox.ErrNotFound,
}

// badRequest lists sentinels answered with 400.
var badRequest = []error{
	course.ErrEmptyName, course.ErrEmptyInstituteID, course.ErrDuplicateID,
	customfield.ErrMalformedSetup, customfield.ErrEmptyID, customfield.ErrEmptyKey,
	campaign.ErrEmptyName, campaign.ErrEmptyInstituteID, campaign.ErrEmptyAudienceID,
	campaign.ErrEmptyResponseID, campaign.ErrInvalidRange, orchestrators.ErrInvalidStatus,
	template.ErrEmptyName, template.ErrEmptyInstituteID, template.ErrInvalidChannel,
	template.ErrEmptySubject, template.ErrEmptyPlaceholder, template.ErrEmptyFieldKey,
	template.ErrUnknownPlaceholder, template.ErrNotEmailChannel, template.ErrInvalidEditorState,
	asset.ErrEmptyInstituteID, asset.ErrEmptyFileName, asset.ErrEmptyURL, asset.ErrNegativeSize,
	richtext.ErrUnknownKind, richtext.ErrMissingKind, richtext.ErrEmptySource,
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	if errors.Is(err, orchestrators.ErrCampaignInactive) || errors.Is(err, outbox.ErrTerminal) {
		return http.StatusConflict
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.As(err, &maxErr), errors.Is(err, errBadBody):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var errBadBody = errors.New("malformed request body")

// fail writes err with its mapped status. 500s log the real error and
// return a generic message to the client.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, status, map[string]string{"error": publicMessage(err)})
}

// internalError logs the real error and returns a generic message to the client.
func (s *server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Errorw("internal_error", "error", err.Error(), "method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func publicMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// strictDecode decodes a JSON body, rejecting unknown fields and trailing data.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errors.Wrap(errBadBody, err.Error())
		}
		return err
	}
	if dec.More() {
		return errors.Wrap(errBadBody, "trailing data")
	}
	return nil
}

// decodeAndValidate decodes the body into v and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) error {
	if err := strictDecode(w, r, v); err != nil {
		return err
	}
	return validate.Struct(v)
}

func queryInt(r *http.Request, key string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return n
	}
	return def
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
