package greeting

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"
)

const (
	// DefaultGreetingPrefix is used when no language, or an unknown one, is requested.
	DefaultGreetingPrefix = "Hello"
	// DefaultName is used when the caller does not supply a name.
	DefaultName = "World"
	// DefaultLanguage is echoed back when the caller does not supply a language.
	DefaultLanguage = "en"
)

// Config holds the read-only settings a Service is built from.
type Config struct {
	GreetingPrefix string
	DefaultName    string
	Languages      map[string]string
}

// DefaultConfig returns the compiled-in settings.
func DefaultConfig() Config {
	return Config{
		GreetingPrefix: DefaultGreetingPrefix,
		DefaultName:    DefaultName,
		Languages:      DefaultLanguages(),
	}
}

// GreetingRequest is the input of the hello operation.
type GreetingRequest struct {
	Name      string `json:"name,omitempty"`
	Language  string `json:"language,omitempty"`
	Uppercase bool   `json:"uppercase,omitempty"`
}

// GreetingResponse is the result of the hello operation.
type GreetingResponse struct {
	Greeting  string `json:"greeting"`
	Language  string `json:"language"`
	Name      string `json:"name"`
	Uppercase bool   `json:"uppercase"`
}

// LanguagesResponse is the result of the list_languages operation.
type LanguagesResponse struct {
	Languages map[string]string `json:"languages"`
	Count     int               `json:"count"`
}

// TemplateRequest is the input of the custom_greeting operation.
type TemplateRequest struct {
	Template  string            `json:"template"`
	Name      string            `json:"name,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

// TemplateResponse is either a rendered greeting or an error description.
// Error is empty on success.
type TemplateResponse struct {
	Greeting           string
	Template           string
	Substitutions      map[string]string
	Error              string
	AvailableVariables []string
}

// Failed reports whether the response carries an error.
func (r TemplateResponse) Failed() bool {
	return r.Error != ""
}

// MarshalJSON emits only the fields belonging to the response shape.
func (r TemplateResponse) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Error              string   `json:"error"`
			Template           string   `json:"template"`
			AvailableVariables []string `json:"available_variables"`
		}{r.Error, r.Template, r.AvailableVariables})
	}
	return json.Marshal(struct {
		Greeting      string            `json:"greeting"`
		Template      string            `json:"template"`
		Substitutions map[string]string `json:"substitutions"`
	}{r.Greeting, r.Template, r.Substitutions})
}

// Service implements the greeting operations over an immutable configuration.
type Service struct {
	prefix      string
	defaultName string
	languages   LanguageTable
}

// NewService builds a Service. The language map is copied.
func NewService(cfg Config) *Service {
	return &Service{
		prefix:      cfg.GreetingPrefix,
		defaultName: cfg.DefaultName,
		languages:   NewLanguageTable(cfg.Languages),
	}
}

// Languages returns the service's language table.
func (s *Service) Languages() LanguageTable {
	return s.languages
}

// Hello composes "<word>, <name>!".
//
// An unknown language code falls back to the greeting prefix but is still
// echoed back as given; callers compare against ListLanguages to tell the
// two cases apart.
func (s *Service) Hello(req GreetingRequest) GreetingResponse {
	name := s.resolveName(req.Name)

	word := s.prefix
	if req.Language != "" {
		if w, ok := s.languages.Lookup(req.Language); ok {
			word = w
		}
	}

	greeting := fmt.Sprintf("%s, %s!", word, name)
	if req.Uppercase {
		greeting = cases.Upper(textlang.Und).String(greeting)
	}

	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}

	return GreetingResponse{
		Greeting:  greeting,
		Language:  language,
		Name:      name,
		Uppercase: req.Uppercase,
	}
}

// ListLanguages returns a copy of the language table and its size.
func (s *Service) ListLanguages() LanguagesResponse {
	return LanguagesResponse{
		Languages: s.languages.Map(),
		Count:     s.languages.Len(),
	}
}

// CustomGreeting renders req.Template. Failures are reported in the
// response, never as a Go error.
func (s *Service) CustomGreeting(req TemplateRequest) TemplateResponse {
	subs := map[string]string{"name": s.resolveName(req.Name)}
	for k, v := range req.Variables {
		subs[k] = v
	}

	greeting, err := Substitute(req.Template, subs)
	if err != nil {
		resp := TemplateResponse{
			Template:           req.Template,
			AvailableVariables: variableNames(subs),
		}
		var missing *MissingVariableError
		var malformed *MalformedTemplateError
		switch {
		case errors.As(err, &missing), errors.As(err, &malformed):
			resp.Error = err.Error()
		default:
			resp.Error = (&MalformedTemplateError{Reason: err.Error()}).Error()
		}
		return resp
	}

	return TemplateResponse{
		Greeting:      greeting,
		Template:      req.Template,
		Substitutions: subs,
	}
}

func (s *Service) resolveName(name string) string {
	if name == "" {
		return s.defaultName
	}
	return name
}

// variableNames lists "name" first, then the rest sorted.
func variableNames(subs map[string]string) []string {
	names := make([]string, 0, len(subs))
	for k := range subs {
		if k != "name" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return append([]string{"name"}, names...)
}
