// Package catalog holds the static site data shipped with the service:
// demo routes, camera positions and site geography.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"sitetrack-service/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Named point of interest on the site (building, entrance, parking area).
type Place struct {
	ID       string  `json:"id" yaml:"id" validate:"required"`
	Name     string  `json:"name" yaml:"name" validate:"required"`
	Lat      float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lng      float64 `json:"lng" yaml:"lng" validate:"gte=-180,lte=180"`
	Type     string  `json:"type,omitempty" yaml:"type"`
	Capacity int     `json:"capacity,omitempty" yaml:"capacity"`
}

type Bounds struct {
	North float64 `json:"north" yaml:"north"`
	South float64 `json:"south" yaml:"south"`
	East  float64 `json:"east" yaml:"east"`
	West  float64 `json:"west" yaml:"west"`
}

// Contains reports whether c lies inside the bounding box.
func (b Bounds) Contains(c domain.Coordinates) bool {
	return c.Lat <= b.North && c.Lat >= b.South && c.Lng <= b.East && c.Lng >= b.West
}

type Site struct {
	Name      string             `json:"name" yaml:"name" validate:"required"`
	Center    domain.Coordinates `json:"center" yaml:"center"`
	Bounds    Bounds             `json:"bounds" yaml:"bounds"`
	Buildings []Place            `json:"buildings" yaml:"buildings" validate:"dive"`
	Entrances []Place            `json:"entrances" yaml:"entrances" validate:"dive"`
	Parking   []Place            `json:"parking" yaml:"parking" validate:"dive"`
}

type Catalog struct {
	Site    Site            `yaml:"site" validate:"required"`
	Cameras []domain.Camera `yaml:"cameras" validate:"dive"`
	Routes  []domain.Route  `yaml:"routes"`

	byID map[string]int
}

var validate = validator.New()

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("catalog: load embedded: %w", err)
	}
	return c, nil
}

// Load reads the catalog from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("catalog: load %q: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: decode yaml: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("parse catalog: %v: %w", err, domain.ErrValidation)
	}

	c.byID = make(map[string]int, len(c.Routes))
	for i := range c.Routes {
		r := &c.Routes[i]
		if r.ID == "" {
			return nil, fmt.Errorf("parse catalog: route %d has no id: %w", i, domain.ErrValidation)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate route id %q: %w", r.ID, domain.ErrValidation)
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		c.byID[r.ID] = i
	}

	return &c, nil
}

// Route returns a copy of the catalog route with the given id.
func (c *Catalog) Route(id string) (*domain.Route, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	r := c.Routes[i]
	r.Waypoints = append([]domain.Waypoint(nil), r.Waypoints...)
	return &r, true
}

// ActiveCameras returns the cameras flagged active.
func (c *Catalog) ActiveCameras() []domain.Camera {
	out := make([]domain.Camera, 0, len(c.Cameras))
	for _, cam := range c.Cameras {
		if cam.IsActive {
			out = append(out, cam)
		}
	}
	return out
}
