package domain

// Surveillance camera placed on the site.
type Camera struct {
	ID        string      `json:"id" yaml:"id" validate:"required"`
	Name      string      `json:"name" yaml:"name" validate:"required"`
	Location  Coordinates `json:"location" yaml:"location"`
	Zone      string      `json:"zone" yaml:"zone"`
	StreamURL string      `json:"stream_url,omitempty" yaml:"stream_url"`
	IsActive  bool        `json:"is_active" yaml:"is_active"`
}
