package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/llumina/pkg/persona"
	"github.com/matzehuels/llumina/pkg/project"
)

// initFlags holds the flags of the init command.
type initFlags struct {
	name          string
	platform      string
	seed          string
	mode          string
	persona       string
	maskColor     string
	locale        string
	pixelsPerUnit float64
	force         bool
}

// initCommand creates the init command that writes a new project file.
func (c *CLI) initCommand() *cobra.Command {
	var flags initFlags

	cmd := &cobra.Command{
		Use:   "init [image]",
		Short: "Create a project file for a photo",
		Long: `Create a project file for a photo.

The project is written to --project (default llumina.toml). The image path is
stored relative to the project file so the pair can be moved together. The
seed defaults to the new project's ID; pass --seed to reproduce a reveal order
from another project.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "project name (default: image file name)")
	cmd.Flags().StringVar(&flags.platform, "platform", string(project.DefaultPlatform), "canvas preset: TikTok, Instagram, Shorts")
	cmd.Flags().StringVar(&flags.seed, "seed", "", "reveal order seed (default: project ID)")
	cmd.Flags().StringVar(&flags.mode, "mode", string(project.ModeTotal), "reveal mode: TOTAL or DELTA")
	cmd.Flags().StringVar(&flags.persona, "persona", string(persona.Default), "look persona: Kore, Puck, Charon, Fenrir, Zephyr")
	cmd.Flags().StringVar(&flags.maskColor, "mask-color", project.DefaultMaskColor, "mask color as #RRGGBB")
	cmd.Flags().StringVar(&flags.locale, "locale", project.DefaultLocale, "number formatting locale")
	cmd.Flags().Float64Var(&flags.pixelsPerUnit, "ppu", project.DefaultPixelsPerUnit, "pixels revealed per counted unit")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing project file")

	_ = cmd.RegisterFlagCompletionFunc("platform", enumCompletion("TikTok", "Instagram", "Shorts"))
	_ = cmd.RegisterFlagCompletionFunc("mode", enumCompletion("TOTAL", "DELTA"))
	_ = cmd.RegisterFlagCompletionFunc("persona", enumCompletion(personaNames()...))

	return cmd
}

// runInit builds, validates and writes the project.
func (c *CLI) runInit(image string, flags initFlags) error {
	if _, err := os.Stat(c.projectPath); err == nil && !flags.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", c.projectPath)
	}
	if _, err := os.Stat(image); err != nil {
		return fmt.Errorf("base image: %w", err)
	}

	p, err := newProject(c.projectPath, image, flags)
	if err != nil {
		return err
	}
	if err := c.saveProject(p); err != nil {
		return err
	}

	printSuccess("Created project %s", StyleHighlight.Render(p.Name))
	printFile(c.projectPath)
	printKeyValue("Canvas", fmt.Sprintf("%d×%d (%s)", p.Resolution.Width, p.Resolution.Height, p.Platform))
	printKeyValue("Pixels", groupDigits(p.Total()))
	printKeyValue("Per unit", fmt.Sprintf("%g px", p.PixelsPerUnit))
	printKeyValue("Mode", string(p.RevealMode))
	printKeyValue("Persona", string(p.Persona))
	fmt.Println()
	printNextStep("Render day 1 at 100", "llumina render --counter 100")
	return nil
}

// newProject assembles a validated project for image, with the image path
// stored relative to the directory of projectPath.
func newProject(projectPath, image string, flags initFlags) (*project.Project, error) {
	name := flags.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(image), filepath.Ext(image))
	}

	p := &project.Project{
		Name:          name,
		Platform:      project.Platform(flags.platform),
		BaseImage:     relativeTo(filepath.Dir(projectPath), image),
		MaskColor:     flags.maskColor,
		Seed:          flags.seed,
		PixelsPerUnit: flags.pixelsPerUnit,
		RevealMode:    project.RevealMode(flags.mode),
		Persona:       persona.Persona(flags.persona),
		Locale:        flags.locale,
	}
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// relativeTo returns path relative to dir when it lies below dir, else the
// absolute path. Project files never store ".." components.
func relativeTo(dir, path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return absPath
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return absPath
	}
	return rel
}

func personaNames() []string {
	names := make([]string, len(persona.All))
	for i, p := range persona.All {
		names[i] = string(p)
	}
	return names
}
