package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Default channel mix and geometry used by the overlay filter graph.
const (
	RedWashRed   = 1.0
	RedWashGreen = 0.5
	RedWashBlue  = 0.5

	CyanWashRed   = 0.5
	CyanWashGreen = 1.0
	CyanWashBlue  = 1.0

	// OverlayScaleDivisor shrinks the secondary video to iw/N x ih/N.
	OverlayScaleDivisor = 2
	// MergedAudioChannels is the channel count of the merged audio stream.
	MergedAudioChannels = 2
)

// Filter graph stream labels.
const (
	LabelPrimaryWashed   = "v0_red"
	LabelSecondaryWashed = "v1_cyan_scaled"
	LabelVideoOut        = "v_out"
	LabelAudioOut        = "a_out"
)

// ChannelMix holds the diagonal terms of ffmpeg's colorchannelmixer.
type ChannelMix struct {
	Red   float64
	Green float64
	Blue  float64
}

// WashParams configures the transform encoded by the filter graph.
type WashParams struct {
	Primary       ChannelMix
	Secondary     ChannelMix
	ScaleDivisor  int
	AudioChannels int
}

// DefaultWashParams returns the red/cyan wash with a half-size centered overlay
// and stereo audio.
func DefaultWashParams() WashParams {
	return WashParams{
		Primary:       ChannelMix{Red: RedWashRed, Green: RedWashGreen, Blue: RedWashBlue},
		Secondary:     ChannelMix{Red: CyanWashRed, Green: CyanWashGreen, Blue: CyanWashBlue},
		ScaleDivisor:  OverlayScaleDivisor,
		AudioChannels: MergedAudioChannels,
	}
}

// CommandSpec is a fully built ffmpeg invocation.
type CommandSpec struct {
	Binary string
	Args   []string
}

// Argv returns the binary followed by its arguments.
func (c CommandSpec) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Binary)
	return append(argv, c.Args...)
}

// String renders the command line for logging.
func (c CommandSpec) String() string {
	return strings.Join(c.Argv(), " ")
}

// FilterGraph returns the -filter_complex description for the given parameters.
//
// Stage 1 washes input 0, stage 2 washes and shrinks input 1, stage 3 centers
// stage 2 over stage 1 and stage 4 merges both audio tracks. Division in the
// scale and overlay expressions is evaluated by ffmpeg itself.
func FilterGraph(p WashParams) string {
	stages := []string{
		fmt.Sprintf("[0:v]%s[%s]", channelMixer(p.Primary), LabelPrimaryWashed),
		fmt.Sprintf("[1:v]%s,scale=iw/%d:ih/%d[%s]",
			channelMixer(p.Secondary), p.ScaleDivisor, p.ScaleDivisor, LabelSecondaryWashed),
		fmt.Sprintf("[%s][%s]overlay=(main_w-overlay_w)/2:(main_h-overlay_h)/2[%s]",
			LabelPrimaryWashed, LabelSecondaryWashed, LabelVideoOut),
		fmt.Sprintf("[0:a][1:a]amerge=inputs=2[%s]", LabelAudioOut),
	}
	return strings.Join(stages, ";")
}

// BuildOverlayCommand assembles the ffmpeg arguments for one overlay run.
// It touches neither the filesystem nor any process state.
func BuildOverlayCommand(binary, primary, secondary, output string, p WashParams) CommandSpec {
	if binary == "" {
		binary = "ffmpeg"
	}

	args := []string{
		"-i", primary, // Background, red wash
		"-i", secondary, // Overlay, cyan wash
		"-filter_complex", FilterGraph(p),
		"-map", "[" + LabelVideoOut + "]",
		"-map", "[" + LabelAudioOut + "]",
		"-ac", strconv.Itoa(p.AudioChannels),
		"-y", // Overwrite output file without asking
		output,
	}

	return CommandSpec{Binary: binary, Args: args}
}

func channelMixer(m ChannelMix) string {
	return fmt.Sprintf("colorchannelmixer=rr=%s:gg=%s:bb=%s",
		formatRatio(m.Red), formatRatio(m.Green), formatRatio(m.Blue))
}

// formatRatio always keeps one decimal place so 1 renders as "1.0".
func formatRatio(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
