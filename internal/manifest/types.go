// Package manifest models the production plan consumed by the director: the
// scene timeline, visual beats, export jobs, and global settings, plus the
// closed enumerations the external JSON contract uses. Parse rejects the
// whole document on any unknown enum value or missing required field; only
// documented defaults are ever applied silently.
package manifest

// MediaType selects how a visual beat is produced.
type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

// Platform identifies the distribution target of an export job.
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformTikTok   Platform = "tiktok"
	PlatformFacebook Platform = "facebook"
	PlatformSpotify  Platform = "spotify"
	PlatformPatreon  Platform = "patreon"
)

// ExportType selects what slice of the production an export job renders.
type ExportType string

const (
	ExportVideoFull ExportType = "video_full"
	ExportVideoPart ExportType = "video_part"
	ExportAudioOnly ExportType = "audio_only"
)

// ExportStatus tracks an export job through its lifecycle.
type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportReady      ExportStatus = "ready"
	ExportProcessing ExportStatus = "processing"
	ExportCompleted  ExportStatus = "completed"
	ExportPosted     ExportStatus = "posted"
)

// Resolution names a render resolution tier.
type Resolution string

const (
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
	Resolution4K    Resolution = "4k"
)

// Transition names the cut between consecutive visual beats.
type Transition string

const (
	TransitionCut           Transition = "Cut"
	TransitionFadeToBlack   Transition = "Fade to Black"
	TransitionCrossDissolve Transition = "Cross Dissolve"
	TransitionWipe          Transition = "Wipe"
	TransitionZoomIn        Transition = "Zoom In"
	TransitionGlitch        Transition = "Glitch"
)

// KenBurns names the motion applied to a still image while it is on screen.
type KenBurns string

const (
	KenBurnsZoomIn   KenBurns = "Zoom In"
	KenBurnsZoomOut  KenBurns = "Zoom Out"
	KenBurnsPanLeft  KenBurns = "Pan Left"
	KenBurnsPanRight KenBurns = "Pan Right"
	KenBurnsStatic   KenBurns = "Static"
)

// Genre, VisualStyle, AudioMood, and AspectRatio are label enums from the
// external contract; their values are display strings chosen upstream.
type (
	Genre       string
	VisualStyle string
	AudioMood   string
	AspectRatio string
)

var genres = enumSet[Genre](
	"Mystery / Thriller",
	"True Crime",
	"Historical Documentary",
	"Tech News / Update",
	"Educational / Explainer",
	"Comedy / Satire",
	"Cosmic Horror",
	"Corporate Presentation",
	"Sci-Fi / Speculative",
)

var visualStyles = enumSet[VisualStyle](
	"Cinematic Photorealistic",
	"Vintage 35mm Film",
	"Anime / 2D Animation",
	"Neon Cyberpunk / Sci-Fi",
	"Claymation / Stop Motion",
	"Minimalist Vector Art",
	"Charcoal Sketch",
	"VHS / Glitch Art",
	"Abstract Data Visualization",
)

var audioMoods = enumSet[AudioMood](
	"Suspenseful (Eerie, Low drones)",
	"Melancholic (Piano, Rain, Somber)",
	"Futuristic (Synth, Glitch, Digital)",
	"Nature (Wind, Birds, Flowing water)",
	"Intense (Heartbeat, Riser, Tense)",
	"Upbeat (Light, Inspiring)",
	"Corporate (Clean, Driving, Minimal)",
	"Dark Ambient (Space, Void)",
)

var aspectRatios = enumSet[AspectRatio]("16:9", "9:16", "1:1", "4:3")

var mediaTypes = enumSet(MediaTypeImage, MediaTypeVideo)

var platforms = enumSet(PlatformYouTube, PlatformTikTok, PlatformFacebook, PlatformSpotify, PlatformPatreon)

var exportTypes = enumSet(ExportVideoFull, ExportVideoPart, ExportAudioOnly)

var exportStatuses = enumSet(ExportPending, ExportReady, ExportProcessing, ExportCompleted, ExportPosted)

var resolutions = enumSet(Resolution720p, Resolution1080p, Resolution4K)

var transitions = enumSet(TransitionCut, TransitionFadeToBlack, TransitionCrossDissolve, TransitionWipe, TransitionZoomIn, TransitionGlitch)

var kenBurnsEffects = enumSet(KenBurnsZoomIn, KenBurnsZoomOut, KenBurnsPanLeft, KenBurnsPanRight, KenBurnsStatic)

func enumSet[T ~string](values ...T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// VisualBeat is a single visual unit within a scene, mapped to one generated
// image or video clip. AssetURL is populated by the visuals phase.
type VisualBeat struct {
	ID               string     `json:"id"`
	BeatIndex        int        `json:"beatIndex"`
	Description      string     `json:"description"`
	DurationSeconds  float64    `json:"durationSeconds"`
	MediaType        MediaType  `json:"mediaType"`
	ProductionPrompt string     `json:"productionPrompt,omitempty"`
	KenBurns         KenBurns   `json:"kenBurns,omitempty"`
	Transition       Transition `json:"transition,omitempty"`
	AssetURL         string     `json:"assetUrl,omitempty"`
}

// Scene is one narration unit with its visual beats and optional sound
// effect. AudioURL and SoundEffectURL are populated during execution.
type Scene struct {
	SceneNumber            int          `json:"sceneNumber"`
	NarratorScript         string       `json:"narratorScript"`
	DurationSeconds        float64      `json:"durationSeconds"`
	VisualBeats            []VisualBeat `json:"visualBeats"`
	AudioURL               string       `json:"audioUrl,omitempty"`
	SoundEffectDescription string       `json:"soundEffectDescription,omitempty"`
	SoundEffectURL         string       `json:"soundEffectUrl,omitempty"`
	SFXTriggerPhrase       string       `json:"sfxTriggerPhrase,omitempty"`
	SFXDelay               *float64     `json:"sfxDelay,omitempty"`
	SFXVolume              *float64     `json:"sfxVolume,omitempty"`
}

// MasterVolume holds the audio mixing levels for assembly.
type MasterVolume struct {
	Voice float64 `json:"voice"`
	Music float64 `json:"music"`
	SFX   float64 `json:"sfx"`
}

// GlobalSettings carries production-wide creative direction.
type GlobalSettings struct {
	Genre              Genre         `json:"genre"`
	VisualStyle        VisualStyle   `json:"visualStyle"`
	AspectRatio        AspectRatio   `json:"aspectRatio"`
	MasterVolume       *MasterVolume `json:"masterVolume"`
	BackgroundAudioURL string        `json:"backgroundAudioUrl,omitempty"`
}

// VideoMetadata carries distribution copy attached to an export job.
type VideoMetadata struct {
	Platform         string   `json:"platform"`
	Titles           []string `json:"titles"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	Hashtags         []string `json:"hashtags"`
	ThumbnailConcept string   `json:"thumbnailConcept"`
	StrategyTips     []string `json:"strategyTips"`
	Rationale        string   `json:"rationale"`
}

// ExportJob describes one platform-specific render sliced from the scene
// timeline. Status and DownloadURL are updated by the assembly phase.
type ExportJob struct {
	ID                string         `json:"id"`
	Platform          Platform       `json:"platform"`
	Type              ExportType     `json:"type"`
	StartSceneIndex   int            `json:"startSceneIndex"`
	EndSceneIndex     int            `json:"endSceneIndex"`
	StartTime         float64        `json:"startTime"`
	EndTime           float64        `json:"endTime"`
	Duration          float64        `json:"duration"`
	PartNumber        *int           `json:"partNumber,omitempty"`
	TotalParts        *int           `json:"totalParts,omitempty"`
	RenderResolution  Resolution     `json:"renderResolution,omitempty"`
	RenderAspectRatio AspectRatio    `json:"renderAspectRatio,omitempty"`
	WatermarkText     string         `json:"watermarkText,omitempty"`
	Status            ExportStatus   `json:"status,omitempty"`
	Metadata          *VideoMetadata `json:"metadata,omitempty"`
	DownloadURL       string         `json:"downloadUrl,omitempty"`
}

// EngineConfig selects active backends and carries per-engine settings.
type EngineConfig struct {
	ActiveVideoEngineID string                    `json:"activeVideoEngineId,omitempty"`
	ActiveTTSEngineID   string                    `json:"activeTTSEngineId,omitempty"`
	ActiveAudioEngineID string                    `json:"activeAudioEngineId,omitempty"`
	ActiveImageEngineID string                    `json:"activeImageEngineId,omitempty"`
	EngineSettings      map[string]map[string]any `json:"engineSettings,omitempty"`
	ColabURL            string                    `json:"colabUrl,omitempty"`
	LocalBackendURL     string                    `json:"localBackendUrl,omitempty"`
}

// Manifest is the complete production plan. Scene and export-job order is
// semantically meaningful: jobs reference scenes by index and scenes render
// sequentially.
type Manifest struct {
	ProjectID      string         `json:"projectId"`
	ProjectTitle   string         `json:"projectTitle"`
	GeneratedAt    string         `json:"generatedAt"`
	GlobalSettings GlobalSettings `json:"globalSettings"`
	Scenes         []Scene        `json:"scenes"`
	ExportJobs     []ExportJob    `json:"exportJobs"`
	AudioMood      AudioMood      `json:"audioMood,omitempty"`
	EngineConfig   *EngineConfig  `json:"engineConfig,omitempty"`
}

// TotalBeats counts visual beats across all scenes.
func (m *Manifest) TotalBeats() int {
	total := 0
	for _, scene := range m.Scenes {
		total += len(scene.VisualBeats)
	}
	return total
}

// SFXScenes counts scenes that declare a sound-effect description.
func (m *Manifest) SFXScenes() int {
	total := 0
	for _, scene := range m.Scenes {
		if scene.SoundEffectDescription != "" {
			total++
		}
	}
	return total
}
