package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrInvalid tags every parse failure so callers can classify manifest
// problems as validation errors.
var ErrInvalid = errors.New("invalid manifest")

// Documented defaults; everything else fails closed.
const (
	DefaultTransition  = TransitionCut
	DefaultKenBurns    = KenBurnsStatic
	DefaultResolution  = Resolution1080p
	DefaultAspectRatio = AspectRatio("16:9")
)

// DefaultMasterVolume returns the mixing levels applied when the manifest
// omits masterVolume.
func DefaultMasterVolume() *MasterVolume {
	return &MasterVolume{Voice: 1.0, Music: 0.3, SFX: 0.6}
}

// Parse decodes and validates a manifest document. Any unknown enum value or
// missing required field rejects the whole document with an error naming the
// offending field and value.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalid, err)
	}

	if err := requireString("projectId", m.ProjectID); err != nil {
		return nil, err
	}
	if err := requireString("projectTitle", m.ProjectTitle); err != nil {
		return nil, err
	}
	if err := requireString("generatedAt", m.GeneratedAt); err != nil {
		return nil, err
	}
	if err := validateGlobalSettings(&m.GlobalSettings); err != nil {
		return nil, err
	}
	if m.AudioMood != "" {
		if err := requireEnum("audioMood", m.AudioMood, audioMoods); err != nil {
			return nil, err
		}
	}
	if len(m.Scenes) == 0 {
		return nil, fieldMissing("scenes")
	}
	for i := range m.Scenes {
		if err := validateScene(i, &m.Scenes[i]); err != nil {
			return nil, err
		}
	}
	for i := range m.ExportJobs {
		if err := validateExportJob(i, &m.ExportJobs[i], len(m.Scenes)); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

func validateGlobalSettings(gs *GlobalSettings) error {
	if err := requireEnum("globalSettings.genre", gs.Genre, genres); err != nil {
		return err
	}
	if err := requireEnum("globalSettings.visualStyle", gs.VisualStyle, visualStyles); err != nil {
		return err
	}
	if err := requireEnum("globalSettings.aspectRatio", gs.AspectRatio, aspectRatios); err != nil {
		return err
	}
	if gs.MasterVolume == nil {
		gs.MasterVolume = DefaultMasterVolume()
	}
	return nil
}

func validateScene(index int, scene *Scene) error {
	prefix := fmt.Sprintf("scenes[%d]", index)
	if strings.TrimSpace(scene.NarratorScript) == "" {
		return fieldMissing(prefix + ".narratorScript")
	}
	if scene.DurationSeconds <= 0 {
		return fieldInvalid(prefix+".durationSeconds", fmt.Sprintf("%g", scene.DurationSeconds))
	}
	for j := range scene.VisualBeats {
		if err := validateBeat(prefix, j, &scene.VisualBeats[j]); err != nil {
			return err
		}
	}
	return nil
}

func validateBeat(scenePrefix string, index int, beat *VisualBeat) error {
	prefix := fmt.Sprintf("%s.visualBeats[%d]", scenePrefix, index)
	if strings.TrimSpace(beat.ID) == "" {
		return fieldMissing(prefix + ".id")
	}
	if strings.TrimSpace(beat.Description) == "" {
		return fieldMissing(prefix + ".description")
	}
	if beat.DurationSeconds <= 0 {
		return fieldInvalid(prefix+".durationSeconds", fmt.Sprintf("%g", beat.DurationSeconds))
	}
	if err := requireEnum(prefix+".mediaType", beat.MediaType, mediaTypes); err != nil {
		return err
	}
	if beat.KenBurns == "" {
		beat.KenBurns = DefaultKenBurns
	} else if err := requireEnum(prefix+".kenBurns", beat.KenBurns, kenBurnsEffects); err != nil {
		return err
	}
	if beat.Transition == "" {
		beat.Transition = DefaultTransition
	} else if err := requireEnum(prefix+".transition", beat.Transition, transitions); err != nil {
		return err
	}
	return nil
}

func validateExportJob(index int, job *ExportJob, sceneCount int) error {
	prefix := fmt.Sprintf("exportJobs[%d]", index)
	if strings.TrimSpace(job.ID) == "" {
		return fieldMissing(prefix + ".id")
	}
	if err := requireEnum(prefix+".platform", job.Platform, platforms); err != nil {
		return err
	}
	if err := requireEnum(prefix+".type", job.Type, exportTypes); err != nil {
		return err
	}
	if job.RenderResolution == "" {
		job.RenderResolution = DefaultResolution
	} else if err := requireEnum(prefix+".renderResolution", job.RenderResolution, resolutions); err != nil {
		return err
	}
	if job.RenderAspectRatio == "" {
		job.RenderAspectRatio = DefaultAspectRatio
	} else if err := requireEnum(prefix+".renderAspectRatio", job.RenderAspectRatio, aspectRatios); err != nil {
		return err
	}
	if job.Status == "" {
		job.Status = ExportPending
	} else if err := requireEnum(prefix+".status", job.Status, exportStatuses); err != nil {
		return err
	}
	if job.StartSceneIndex < 0 || job.StartSceneIndex >= sceneCount {
		return fieldInvalid(prefix+".startSceneIndex", fmt.Sprintf("%d", job.StartSceneIndex))
	}
	if job.EndSceneIndex < job.StartSceneIndex || job.EndSceneIndex >= sceneCount {
		return fieldInvalid(prefix+".endSceneIndex", fmt.Sprintf("%d", job.EndSceneIndex))
	}
	return nil
}

func requireEnum[T ~string](field string, value T, valid map[T]struct{}) error {
	if _, ok := valid[value]; ok {
		return nil
	}
	if value == "" {
		return fieldMissing(field)
	}
	return fieldInvalid(field, string(value))
}

func requireString(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fieldMissing(field)
	}
	return nil
}

func fieldMissing(field string) error {
	return fmt.Errorf("%w: %s: required field missing", ErrInvalid, field)
}

func fieldInvalid(field, value string) error {
	return fmt.Errorf("%w: %s: unsupported value %q", ErrInvalid, field, value)
}
