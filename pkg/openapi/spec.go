package openapi

// Version is the OpenAPI release documents are written against.
const Version = "3.1.0"

// Spec is the root of an OpenAPI document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec starts a document with the shared components and no paths.
func NewSpec(title, version string) *Spec {
	return &Spec{
		OpenAPI:    Version,
		Info:       &Info{Title: title, Version: version},
		Paths:      map[string]*PathItem{},
		Components: NewComponents(),
	}
}

// AddServer lists url as a base URL for every path.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// SetDescription sets the document description.
func (s *Spec) SetDescription(desc string) {
	s.Info.Description = desc
}
