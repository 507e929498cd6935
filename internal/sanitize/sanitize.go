// Package sanitize normalizes generated Manim source before it is executed.
// It is a pure text transform: no network, no filesystem.
package sanitize

import (
	"regexp"
	"strings"

	"sceneforge/internal/pkg/errors"
)

const (
	manimImport = "from manim import *"
	numpyImport = "import numpy as np"
)

// rewriteRule retires one deprecated API spelling. Rules run in order: the
// import guarantees at the end assume every spelling rewrite already ran.
type rewriteRule struct {
	pattern     *regexp.Regexp
	replacement string
}

var rules = []rewriteRule{
	// Removed Line helper, both call and keyword forms.
	{regexp.MustCompile(`\.shorten_ends\([^)]*\)`), ""},
	{regexp.MustCompile(`shorten_ends\s*=\s*[^,)]+\s*,?`), ""},

	// Superseded animation verbs.
	{regexp.MustCompile(`\bShowCreation\(`), "Create("},

	// Deprecated Axes helpers.
	{regexp.MustCompile(`\.add_coordinates\(\)`), ".add_coordinate_labels()"},

	// Deprecated positioning helpers.
	{regexp.MustCompile(`\.next_to_point\(`), ".next_to("},
	{regexp.MustCompile(`\.shift_onto_screen\(\)`), ".to_edge()"},

	// Retired color constants.
	{regexp.MustCompile(`\bAVERAGE_COLOR\b`), "BLUE"},
	{regexp.MustCompile(`\bCOLOR_MAP\b`), "BLUE"},

	// Deprecated styling calls.
	{regexp.MustCompile(`\.set_stroke_width\(`), ".set_stroke(width="},
	{regexp.MustCompile(`\.set_fill_opacity\(`), ".set_fill(opacity="},

	// Scene API rename.
	{regexp.MustCompile(`self\.add_fixed_in_frame_mobjects\(`), "self.add_fixed_orientation_mobjects("},
}

// Sanitize applies the rewrite rules, guarantees required imports and
// verifies the structural minimum for a renderable scene. It is
// deterministic and idempotent.
func Sanitize(source string) (string, error) {
	code := source

	for _, r := range rules {
		code = r.pattern.ReplaceAllString(code, r.replacement)
	}

	code = ensureImports(code)

	if err := validateStructure(code); err != nil {
		return "", err
	}
	return code, nil
}

// ensureImports inserts the framework import (and numpy when referenced)
// exactly once.
func ensureImports(code string) string {
	if !strings.Contains(code, manimImport) {
		code = manimImport + "\n" + code
	}
	if strings.Contains(code, "np.") && !strings.Contains(code, numpyImport) {
		code = strings.Replace(code, manimImport, manimImport+"\n"+numpyImport, 1)
	}
	return code
}

func validateStructure(code string) error {
	if !strings.Contains(code, "class") || !strings.Contains(code, "Scene") {
		return errors.New(errors.CodeInvalidCode, "code missing required scene class")
	}
	if !strings.Contains(code, "def construct(self):") {
		return errors.New(errors.CodeInvalidCode, "code missing construct method")
	}
	return nil
}
