package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evsingleline/singleline/pkg/electrical"
	perrors "github.com/evsingleline/singleline/pkg/errors"
	surveyio "github.com/evsingleline/singleline/pkg/io"
	"github.com/evsingleline/singleline/pkg/pipeline"
	"github.com/evsingleline/singleline/pkg/survey"
)

// loadSurvey reads and validates a snapshot file.
func loadSurvey(path string) (survey.Survey, error) {
	s, err := surveyio.ImportJSON(path)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, survey.ErrInvalidSnapshot):
		return s, perrors.Wrap(perrors.ErrCodeInvalidSnapshot, err, "%s", path)
	case errors.Is(err, surveyio.ErrMalformed):
		return s, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "%s", path)
	default:
		return s, err
	}
}

// saveSurvey validates s and writes it to path in place.
func saveSurvey(path string, s survey.Survey) error {
	if err := s.Validate(); err != nil {
		return perrors.Wrap(perrors.ErrCodeInternal, err, "edit produced an invalid snapshot")
	}
	return surveyio.ExportJSON(s, path)
}

// editSurvey loads path, applies fn and writes the result back.
func (c *CLI) editSurvey(path string, fn func(survey.Survey, *survey.Editor) (survey.Survey, error)) (survey.Survey, error) {
	s, err := loadSurvey(path)
	if err != nil {
		return s, err
	}
	out, err := fn(s, survey.NewEditor(c.ids))
	switch {
	case err == nil:
	case errors.Is(err, survey.ErrInvalidBreaker),
		errors.Is(err, survey.ErrInvalidTransformer),
		errors.Is(err, survey.ErrFeederBreaker):
		return s, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "%s", path)
	default:
		return s, err
	}
	if err := saveSurvey(path, out); err != nil {
		return s, err
	}
	c.Logger.Debug("saved survey", "path", path, "panels", len(out.Panels))
	return out, nil
}

// =============================================================================
// References
// =============================================================================

// resolvePanel finds a panel by id or, failing that, by unique
// case-insensitive name.
func resolvePanel(s survey.Survey, ref string) (survey.Panel, error) {
	if p, ok := s.Panel(ref); ok {
		return p, nil
	}
	var found []survey.Panel
	for _, p := range s.Panels {
		if strings.EqualFold(p.Name, ref) {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return survey.Panel{}, perrors.Wrap(perrors.ErrCodeNotFound, survey.ErrPanelNotFound, "%q", ref)
	default:
		return survey.Panel{}, perrors.New(perrors.ErrCodeInvalidInput, "%d panels are named %q; use the panel id", len(found), ref)
	}
}

// resolveBreaker finds a breaker in p by id, circuit number or unique
// case-insensitive label.
func resolveBreaker(p survey.Panel, ref string) (survey.Breaker, error) {
	if b, ok := p.Breaker(ref); ok {
		return b, nil
	}
	var found []survey.Breaker
	for _, b := range p.Breakers {
		if b.CircuitNumber == ref || strings.EqualFold(b.Label, ref) {
			found = append(found, b)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return survey.Breaker{}, perrors.Wrap(perrors.ErrCodeNotFound, survey.ErrBreakerNotFound, "%q in %s", ref, displayName(p.Name))
	default:
		return survey.Breaker{}, perrors.New(perrors.ErrCodeInvalidInput, "%d breakers in %s match %q; use the breaker id", len(found), displayName(p.Name), ref)
	}
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

// parseSystem parses a --voltage style flag.
func parseSystem(flag, v string) (electrical.System, error) {
	sys, err := electrical.ParseSystem(v)
	if err != nil {
		return "", perrors.New(perrors.ErrCodeInvalidInput, "--%s: want 120/240, 120/208 or 277/480, got %q", flag, v)
	}
	return sys, nil
}

// parseLevel parses a --level flag: 1, 2, 3, "Level 2" or dcfc.
func parseLevel(v string) (electrical.Level, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "l1", "level 1", "level1":
		return electrical.Level1, nil
	case "2", "l2", "level 2", "level2":
		return electrical.Level2, nil
	case "3", "l3", "level 3", "level3", "dcfc":
		return electrical.Level3, nil
	}
	return "", perrors.New(perrors.ErrCodeInvalidInput, "--level: want 1, 2 or 3, got %q", v)
}

// =============================================================================
// Output Paths
// =============================================================================

// basePath derives the base output path from the output and input paths.
// If output is empty the input's extension is stripped; a known artifact
// extension on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	longest := ""
	for _, ext := range pipeline.Extensions {
		if strings.HasSuffix(output, ext) && len(ext) > len(longest) {
			longest = ext
		}
	}
	return strings.TrimSuffix(output, longest)
}

// outputPaths maps each format to its output file. A single format written
// to an explicit -o keeps that name unchanged.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + pipeline.Extensions[f]
	}
	return paths
}

func describeBreaker(b survey.Breaker) string {
	label := b.Label
	if label == "" {
		label = b.Kind.Label()
	}
	return fmt.Sprintf("%s (circuit %s, %s)", label, b.CircuitNumber, amps(b.Amps))
}
