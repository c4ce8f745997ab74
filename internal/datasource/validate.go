package datasource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/nikhilbhutani/datasource-admin/internal/models"
)

type CreateRequest struct {
	Name           string                `json:"name" validate:"required,max=256,nonul"`
	Description    string                `json:"description" validate:"max=512,nonul"`
	DataSourceType models.DataSourceType `json:"data_source_type" validate:"required,datasource_type"`
	Config         json.RawMessage       `json:"config" validate:"required"`
	BuildKGIndex   bool                  `json:"build_kg_index"`
}

// FileRef points at a previously uploaded file.
type FileRef struct {
	FileID   int64  `json:"file_id" validate:"required,gt=0"`
	FileName string `json:"file_name" validate:"required"`
}

type WebSinglePageConfig struct {
	URLs []string `json:"urls" validate:"required,min=1,dive,url"`
}

type WebSitemapConfig struct {
	URL string `json:"url" validate:"required,url"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Postgres text and jsonb both reject NUL.
	v.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), 0)
	})
	v.RegisterValidation("datasource_type", func(fl validator.FieldLevel) bool {
		return models.DataSourceType(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks the request fields, then checks config against the shape
// its data_source_type requires.
func (r CreateRequest) Validate() error {
	verr := &ValidationError{}

	if err := validate.Struct(r); err != nil {
		collect(verr, "", err)
		return verr
	}

	cfg := bytes.TrimSpace(r.Config)
	if len(cfg) == 0 || (cfg[0] != '{' && cfg[0] != '[') {
		verr.add("config", "must be an object or a list")
		return verr
	}
	if msg := checkJSONText(cfg); msg != "" {
		verr.add("config", msg)
		return verr
	}

	switch r.DataSourceType {
	case models.DataSourceFile:
		var files []FileRef
		if err := json.Unmarshal(cfg, &files); err != nil {
			verr.add("config", "file config must be a list of {file_id, file_name}")
			break
		}
		if len(files) == 0 {
			verr.add("config", "must reference at least one file")
		}
		for i, f := range files {
			collect(verr, fmt.Sprintf("config[%d]", i), validate.Struct(f))
		}
	case models.DataSourceWebSinglePage:
		var c WebSinglePageConfig
		if err := json.Unmarshal(cfg, &c); err != nil {
			verr.add("config", "web_single_page config must be an object with a urls list")
			break
		}
		collect(verr, "config", validate.Struct(c))
	case models.DataSourceWebSitemap:
		var c WebSitemapConfig
		if err := json.Unmarshal(cfg, &c); err != nil {
			verr.add("config", "web_sitemap config must be an object with a url")
			break
		}
		collect(verr, "config", validate.Struct(c))
	}

	return verr.orNil()
}

// checkJSONText rejects JSON that decodes but cannot be stored as jsonb.
func checkJSONText(raw []byte) string {
	if !utf8.Valid(raw) {
		return "must be valid UTF-8"
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return ""
		}
		if err != nil {
			return "must be valid JSON"
		}
		if s, ok := tok.(string); ok && strings.ContainsRune(s, 0) {
			return "must not contain NUL characters"
		}
	}
}

func collect(verr *ValidationError, prefix string, err error) {
	if err == nil {
		return
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		field := prefix
		if field == "" {
			field = "body"
		}
		verr.add(field, err.Error())
		return
	}
	for _, fe := range ves {
		field := fieldPath(fe)
		if prefix != "" {
			field = prefix + "." + field
		}
		verr.add(field, message(fe))
	}
}

// fieldPath drops the struct type name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "datasource_type":
		return "must be one of: file, web_single_page, web_sitemap"
	case "nonul":
		return "must not contain NUL characters"
	case "url":
		return "must be an absolute URL"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
