package ffmpeg

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"callsheet/internal/media"
)

// buildArgs translates an assembly request into an ffmpeg invocation.
// Input order: one visual per clip, then one audio per clip that has
// narration, then optional sound effects, then optional music.
func (a *Assembler) buildArgs(req media.AssemblyRequest, outputPath string) []string {
	fps := req.FPS
	if fps <= 0 {
		fps = a.fps
	}

	audioOnly := req.Format != "" && req.Format != media.ExtVideo

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}

	visualCount := 0
	if !audioOnly {
		for _, clip := range req.Clips {
			if clip.VideoPath != "" {
				args = append(args, "-i", clip.VideoPath)
			} else {
				args = append(args, "-loop", "1", "-t", formatSeconds(clip.Duration), "-i", clip.ImagePath)
			}
			visualCount++
		}
	}

	voiceInputs := make([]int, 0, len(req.Clips))
	sfxInputs := make([]int, 0, len(req.Clips))
	next := visualCount
	for _, clip := range req.Clips {
		if clip.AudioPath != "" {
			args = append(args, "-i", clip.AudioPath)
			voiceInputs = append(voiceInputs, next)
			next++
		}
	}
	for _, clip := range req.Clips {
		if clip.SFXPath != "" {
			args = append(args, "-i", clip.SFXPath)
			sfxInputs = append(sfxInputs, next)
			next++
		}
	}
	musicInput := -1
	if req.MusicPath != "" {
		args = append(args, "-i", req.MusicPath)
		musicInput = next
	}

	filter := a.buildFilter(req, fps, voiceInputs, sfxInputs, musicInput, audioOnly)
	args = append(args, "-filter_complex", filter)

	if !audioOnly {
		args = append(args, "-map", "[vout]")
	}
	args = append(args, "-map", "[aout]")

	if audioOnly {
		args = append(args, "-c:a", "libmp3lame", "-q:a", "2")
	} else {
		args = append(args,
			"-r", strconv.Itoa(fps),
			"-c:v", videoCodec(req.Codec, a.codec),
			"-crf", crfFor(req.Quality, a.quality),
			"-pix_fmt", "yuv420p",
			"-c:a", "aac",
			"-shortest",
		)
	}
	return append(args, outputPath)
}

// buildFilter constructs the filtergraph: per-clip scale and ken-burns
// motion, concat, voice/sfx/music mix at master volumes, then watermark.
func (a *Assembler) buildFilter(req media.AssemblyRequest, fps int, voiceInputs, sfxInputs []int, musicInput int, audioOnly bool) string {
	var graph bytes.Buffer

	if !audioOnly {
		for i, clip := range req.Clips {
			fmt.Fprintf(&graph, "[%d:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
				i, req.Width, req.Height, req.Width, req.Height)
			if clip.VideoPath == "" {
				if expr := kenBurnsExpr(clip.KenBurns); expr != "" {
					fmt.Fprintf(&graph, ",zoompan=%s:d=%d:s=%dx%d:fps=%d",
						expr, int(clip.Duration*float64(fps)), req.Width, req.Height, fps)
				}
			}
			if clip.Transition == fadeTransition {
				fmt.Fprintf(&graph, ",fade=t=in:st=0:d=0.5")
			}
			fmt.Fprintf(&graph, ",setsar=1[v%d];", i)
		}
		for i := range req.Clips {
			fmt.Fprintf(&graph, "[v%d]", i)
		}
		fmt.Fprintf(&graph, "concat=n=%d:v=1:a=0[vbase];", len(req.Clips))

		if req.Watermark != "" {
			fmt.Fprintf(&graph, "[vbase]drawtext=text='%s':fontcolor=white@0.6:fontsize=%d:x=w-tw-20:y=h-th-20[vout];",
				escapeDrawtext(req.Watermark), req.Height/30)
		} else {
			graph.WriteString("[vbase]copy[vout];")
		}
	}

	// Voice track: narration clips in sequence.
	mixLabels := make([]string, 0, 3)
	if len(voiceInputs) > 0 {
		for _, idx := range voiceInputs {
			fmt.Fprintf(&graph, "[%d:a]", idx)
		}
		fmt.Fprintf(&graph, "concat=n=%d:v=0:a=1,volume=%s[voice];", len(voiceInputs), formatVolume(req.VoiceVolume))
		mixLabels = append(mixLabels, "[voice]")
	}
	if len(sfxInputs) > 0 {
		for _, idx := range sfxInputs {
			fmt.Fprintf(&graph, "[%d:a]", idx)
		}
		fmt.Fprintf(&graph, "amix=inputs=%d:duration=longest,volume=%s[sfx];", len(sfxInputs), formatVolume(req.SFXVolume))
		mixLabels = append(mixLabels, "[sfx]")
	}
	if musicInput >= 0 {
		fmt.Fprintf(&graph, "[%d:a]volume=%s[music];", musicInput, formatVolume(req.MusicVolume))
		mixLabels = append(mixLabels, "[music]")
	}

	switch len(mixLabels) {
	case 0:
		// Silent timeline; synthesize an empty track so the map succeeds.
		graph.WriteString("anullsrc=channel_layout=stereo:sample_rate=44100[aout]")
	case 1:
		fmt.Fprintf(&graph, "%sacopy[aout]", mixLabels[0])
	default:
		fmt.Fprintf(&graph, "%samix=inputs=%d:duration=longest:normalize=0[aout]",
			strings.Join(mixLabels, ""), len(mixLabels))
	}

	return graph.String()
}

const fadeTransition = "Fade to Black"

// kenBurnsExpr maps a ken-burns label to a zoompan expression. Unknown
// labels and Static render without motion.
func kenBurnsExpr(effect string) string {
	switch effect {
	case "Zoom In":
		return "z='min(zoom+0.0015,1.2)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)'"
	case "Zoom Out":
		return "z='if(lte(zoom,1.0),1.2,max(zoom-0.0015,1.0))':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)'"
	case "Pan Left":
		return "z=1.1:x='max(iw-iw/zoom-(t*30),0)':y='ih/2-(ih/zoom/2)'"
	case "Pan Right":
		return "z=1.1:x='min(t*30,iw-iw/zoom)':y='ih/2-(ih/zoom/2)'"
	default:
		return ""
	}
}

func videoCodec(requested, fallback string) string {
	codec := requested
	if codec == "" {
		codec = fallback
	}
	switch codec {
	case "h264", "":
		return "libx264"
	case "h265", "hevc":
		return "libx265"
	default:
		return codec
	}
}

func crfFor(requested, fallback string) string {
	quality := requested
	if quality == "" {
		quality = fallback
	}
	switch quality {
	case "low":
		return "30"
	case "medium":
		return "24"
	default:
		return "18"
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// formatVolume renders a master-volume level for the filtergraph. Zero is a
// deliberate mute and passes through; only negative (unset) values default
// to full volume.
func formatVolume(v float64) string {
	if v < 0 {
		v = 1.0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `%`, `\%`)
	return replacer.Replace(text)
}

func lastLine(output []byte) string {
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) == 0 {
		return "no output"
	}
	if i := bytes.LastIndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return string(trimmed)
}
