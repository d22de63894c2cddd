package pipeline

import (
	"bytes"
	"image"
	"os"

	"github.com/matzehuels/llumina/pkg/cache"
	"github.com/matzehuels/llumina/pkg/compositor"
	"github.com/matzehuels/llumina/pkg/errors"
	"github.com/matzehuels/llumina/pkg/project"
)

// Scene is a project together with its decoded base image.
type Scene struct {
	Project *project.Project
	Image   image.Image

	// Hash covers the base image bytes and every project field that changes
	// rendered pixels. Day records are excluded; the displayed counter is
	// part of each artifact key instead.
	Hash string

	imageHash string
}

// sceneFields are the hashed project fields.
type sceneFields struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Seed          string  `json:"seed"`
	MaskColor     string  `json:"mask_color"`
	PixelsPerUnit float64 `json:"pixels_per_unit"`
	RevealMode    string  `json:"reveal_mode"`
	Persona       string  `json:"persona"`
	Locale        string  `json:"locale"`
}

// LoadScene reads and decodes the project's base image.
func LoadScene(p *project.Project) (*Scene, error) {
	path := p.BaseImagePath()
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "project %q has no base image", p.Name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "base image %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read base image %s", path)
	}
	return NewScene(p, data)
}

// NewScene decodes image data as the base image of p.
func NewScene(p *project.Project, data []byte) (*Scene, error) {
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "project is required")
	}
	img, err := compositor.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s := &Scene{Project: p, Image: img, imageHash: cache.Hash(data)}
	s.Rehash()
	return s, nil
}

// Rehash recomputes Hash after project fields changed.
func (s *Scene) Rehash() {
	s.Hash = cache.SceneHash(fieldsOf(s.Project), []byte(s.imageHash))
}

// Clone returns a scene over a private copy of the project. The decoded
// image is shared; it is never written to.
func (s *Scene) Clone() *Scene {
	c := *s
	c.Project = s.Project.Clone()
	return &c
}

func fieldsOf(p *project.Project) sceneFields {
	return sceneFields{
		Width:         p.Resolution.Width,
		Height:        p.Resolution.Height,
		Seed:          p.Seed,
		MaskColor:     p.MaskColor,
		PixelsPerUnit: p.PixelsPerUnit,
		RevealMode:    string(p.RevealMode),
		Persona:       string(p.Persona),
		Locale:        p.Locale,
	}
}
