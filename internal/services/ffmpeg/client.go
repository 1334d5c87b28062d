package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes the command and returns its combined stdout+stderr.
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
	// Capture executes the command returning stdout and stderr separately.
	// Used for operations whose stdout is binary payload.
	Capture(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client drives ffmpeg and ffprobe for compositing, cropping, and probing.
type Client struct {
	ffmpeg  string
	ffprobe string
	exec    Executor
}

// New constructs a raster engine client.
func New(ffmpegBinary, ffprobeBinary string, opts ...Option) (*Client, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffmpegBinary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	if ffprobeBinary == "" {
		return nil, errors.New("ffprobe binary required")
	}
	client := &Client{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ProbeDimensions reads the pixel dimensions of an image file.
func (c *Client) ProbeDimensions(ctx context.Context, imagePath string) (int, int, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0:s=x",
		imagePath,
	}
	output, err := c.exec.Run(ctx, c.ffprobe, args)
	if err != nil {
		return 0, 0, toolError("ffprobe dimensions", output, err)
	}
	text := strings.TrimSpace(string(output))
	parts := strings.Split(text, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected ffprobe output: %q", text)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse width from %q: %w", text, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse height from %q: %w", text, err)
	}
	return width, height, nil
}

// RawRGBA decodes one frame of an image to raw RGBA bytes on stdout.
func (c *Client) RawRGBA(ctx context.Context, imagePath string) ([]byte, error) {
	args := []string{
		"-v", "error",
		"-i", imagePath,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-frames:v", "1",
		"-",
	}
	stdout, stderr, err := c.exec.Capture(ctx, c.ffmpeg, args)
	if err != nil {
		return nil, toolError("ffmpeg raw rgba extract", stderr, err)
	}
	return stdout, nil
}

// FlattenLayers stacks the given cel images over a transparent canvas of the
// project dimensions, alpha-compositing in slice order, and writes one
// flattened RGBA frame to outFile.
func (c *Client) FlattenLayers(ctx context.Context, layerPaths []string, outFile string, canvasWidth, canvasHeight int) error {
	if len(layerPaths) == 0 {
		return errors.New("flatten called with no input layers")
	}

	args := []string{
		"-y",
		"-loglevel", "error",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black@0.0:s=%dx%d,format=rgba", canvasWidth, canvasHeight),
	}
	for _, path := range layerPaths {
		args = append(args, "-i", path)
	}

	filterParts := []string{"[0:v]format=rgba[b0]"}
	prev := "b0"
	for i := 1; i <= len(layerPaths); i++ {
		cur := fmt.Sprintf("b%d", i)
		filterParts = append(filterParts, fmt.Sprintf("[%s][%d:v]overlay=0:0:format=auto[%s]", prev, i, cur))
		prev = cur
	}

	args = append(args,
		"-filter_complex", strings.Join(filterParts, ";"),
		"-map", "["+prev+"]",
		"-frames:v", "1",
		outFile,
	)
	if output, err := c.exec.Run(ctx, c.ffmpeg, args); err != nil {
		return toolError("ffmpeg layer flatten", output, err)
	}
	return nil
}

// ScaleCropPanel cover-scales src to fill panelWidth x bgHeight (no
// letterboxing) and crops from the top-left corner to exactly that size.
func (c *Client) ScaleCropPanel(ctx context.Context, src, outFile string, panelWidth, bgHeight int) error {
	args := []string{
		"-y",
		"-loglevel", "error",
		"-i", src,
		"-vf", fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d:0:0",
			panelWidth, bgHeight, panelWidth, bgHeight,
		),
		"-frames:v", "1",
		"-compression_level", "9",
		"-pred", "mixed",
		"-pix_fmt", "rgba",
		outFile,
	}
	if output, err := c.exec.Run(ctx, c.ffmpeg, args); err != nil {
		return toolError("ffmpeg panel scale", output, err)
	}
	return nil
}

// CropFrame crops src to the given rectangle, preserving RGBA with maximum
// lossless compression.
func (c *Client) CropFrame(ctx context.Context, src, outFile string, x, y, w, h int) error {
	args := []string{
		"-y",
		"-loglevel", "error",
		"-i", src,
		"-vf", fmt.Sprintf("crop=%d:%d:%d:%d", w, h, x, y),
		"-frames:v", "1",
		"-compression_level", "9",
		"-pred", "mixed",
		"-pix_fmt", "rgba",
		outFile,
	}
	if output, err := c.exec.Run(ctx, c.ffmpeg, args); err != nil {
		return toolError("ffmpeg overlay crop", output, err)
	}
	return nil
}

func toolError(operation string, diagnostics []byte, err error) error {
	text := strings.TrimSpace(string(diagnostics))
	if text == "" {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return fmt.Errorf("%s: %w: %s", operation, err, text)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

func (commandExecutor) Capture(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
