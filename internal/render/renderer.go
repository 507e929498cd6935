// Package render executes generated scene code in a Python subprocess and
// locates the produced artifact.
package render

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"sceneforge/internal/config"
	"sceneforge/internal/pkg/errors"
	"sceneforge/internal/pkg/logger"
)

// sceneClassRe finds the first class extending a Scene variant
// (Scene, MovingCameraScene, ThreeDScene and friends).
var (
	sceneClassRe = regexp.MustCompile(`class\s+(\w+)\s*\(\s*\w*Scene\w*\s*\)`)
	anyClassRe   = regexp.MustCompile(`class\s+(\w+)\s*\(`)
)

// Renderer runs one render job at a time per call. Each run gets its own
// scratch module and driver script so concurrent jobs never collide.
type Renderer struct {
	cfg      config.Render
	codeDir  string
	mediaDir string
	logsDir  string
	log      *logger.Logger
}

func New(cfg config.Config, log *logger.Logger) *Renderer {
	return &Renderer{
		cfg:      cfg.Render,
		codeDir:  cfg.CodeDir(),
		mediaDir: cfg.MediaDir(),
		logsDir:  cfg.LogsDir(),
		log:      log.WithComponent("renderer"),
	}
}

// Render writes the scene module and driver script, runs the interpreter in
// its own process group under a hard deadline, and returns the absolute path
// of the finished video. Scratch files are removed on every path; render
// stdout/stderr survive as per-job log files.
func (r *Renderer) Render(ctx context.Context, jobID, code string) (string, error) {
	const op = "Renderer.Render"

	className := sceneClassName(code)
	if className == "" {
		return "", errors.New(errors.CodeInvalidCode, "no scene class found in generated code")
	}

	// Hyphens are not valid in Python module names.
	modName := "scene_" + strings.ReplaceAll(jobID, "-", "_")
	scenePath := filepath.Join(r.codeDir, modName+".py")
	runnerPath := filepath.Join(r.codeDir, "runner_"+strings.ReplaceAll(jobID, "-", "_")+".py")

	if err := os.WriteFile(scenePath, []byte(code), 0o644); err != nil {
		return "", errors.Wrap(err, op, "write scene module")
	}
	defer os.Remove(scenePath)

	if err := os.WriteFile(runnerPath, []byte(r.runnerScript(jobID, scenePath, className)), 0o644); err != nil {
		return "", errors.Wrap(err, op, "write runner script")
	}
	defer os.Remove(runnerPath)

	if err := r.runPython(ctx, jobID, runnerPath); err != nil {
		return "", err
	}

	return r.findArtifact(ctx, jobID)
}

// runnerScript builds the driver program that configures output geometry and
// renders the scene class.
func (r *Renderer) runnerScript(jobID, scenePath, className string) string {
	absMedia, err := filepath.Abs(r.mediaDir)
	if err != nil {
		absMedia = r.mediaDir
	}
	absScene, err := filepath.Abs(scenePath)
	if err != nil {
		absScene = scenePath
	}

	return fmt.Sprintf(`import importlib.util

from manim import config

config.media_dir = %q
config.output_file = %q
config.pixel_width = %d
config.pixel_height = %d
config.frame_rate = %d

spec = importlib.util.spec_from_file_location("generated_scene", %q)
mod = importlib.util.module_from_spec(spec)
spec.loader.exec_module(mod)

scene = getattr(mod, %q)()
scene.render()
`, absMedia, jobID, r.cfg.PixelWidth, r.cfg.PixelHeight, r.cfg.FrameRate, absScene, className)
}

// runPython starts the interpreter in its own session so that on timeout the
// whole process group (manim spawns ffmpeg and latex children) can be killed
// with one signal.
func (r *Renderer) runPython(ctx context.Context, jobID, runnerPath string) error {
	const op = "Renderer.runPython"

	outLog, err := os.Create(filepath.Join(r.logsDir, jobID+".out.log"))
	if err != nil {
		return errors.Wrap(err, op, "create stdout log")
	}
	defer outLog.Close()

	errLog, err := os.Create(filepath.Join(r.logsDir, jobID+".err.log"))
	if err != nil {
		return errors.Wrap(err, op, "create stderr log")
	}
	defer errLog.Close()

	cmd := exec.Command(r.cfg.PythonBin, runnerPath)
	cmd.Dir = r.codeDir
	cmd.Stdout = outLog
	cmd.Stderr = errLog
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return errors.WrapWithCode(err, errors.CodeRenderFailed, op, "start render process")
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timeout := time.Duration(r.cfg.TimeoutSeconds) * time.Second
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			detail := tailFile(errLog.Name(), 2048)
			if detail == "" {
				detail = err.Error()
			}
			return errors.New(errors.CodeRenderFailed, "render process failed: "+detail)
		}
		return nil

	case <-timer.C:
		r.killGroup(cmd, jobID, "deadline exceeded")
		<-done
		return errors.Newf(errors.CodeRenderTimeout, "render exceeded %s deadline", timeout)

	case <-ctx.Done():
		r.killGroup(cmd, jobID, "context canceled")
		<-done
		return errors.WrapWithCode(ctx.Err(), errors.CodeInterrupted, op, "render interrupted")
	}
}

func (r *Renderer) killGroup(cmd *exec.Cmd, jobID, reason string) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	r.log.WithJobID(jobID).Warn("killing render process group", "pid", pid, "reason", reason)

	// Negative pid targets the process group created by Setsid.
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

// findArtifact locates the rendered video. Manim nests output under
// media_dir/videos/<module>/<quality>/, so the whole media tree is walked.
// A lone image frame is converted to a short video with ffmpeg.
func (r *Renderer) findArtifact(ctx context.Context, jobID string) (string, error) {
	if p := findFile(r.mediaDir, jobID, ".mp4"); p != "" {
		return r.promote(p, jobID)
	}

	if img := findFile(r.mediaDir, jobID, ".png"); img != "" {
		r.log.WithJobID(jobID).Info("no video produced, converting still frame", "image", img)
		return r.convertImage(ctx, img, jobID)
	}

	return "", errors.New(errors.CodeMissingArtifact, "render finished but produced no artifact")
}

// promote moves the artifact to the flat <media>/<jobID>.mp4 location that
// the publisher, download handler and reaper all expect.
func (r *Renderer) promote(src, jobID string) (string, error) {
	dst := filepath.Join(r.mediaDir, jobID+".mp4")
	if src == dst {
		return dst, nil
	}
	if err := os.Rename(src, dst); err != nil {
		return "", errors.Wrap(err, "Renderer.promote", "move artifact into place")
	}
	return dst, nil
}

func (r *Renderer) convertImage(ctx context.Context, imgPath, jobID string) (string, error) {
	dst := filepath.Join(r.mediaDir, jobID+".mp4")

	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(cctx, r.cfg.FFmpegBin,
		"-y",
		"-loop", "1",
		"-i", imgPath,
		"-t", "3",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-vf", fmt.Sprintf("scale=%d:%d", r.cfg.PixelWidth, r.cfg.PixelHeight),
		dst,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errors.New(errors.CodeRenderFailed, "image conversion failed: "+firstLine(string(out)))
	}
	return dst, nil
}

func sceneClassName(code string) string {
	if m := sceneClassRe.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	// Scene subclasses of locally defined bases won't match the strict
	// pattern; take the first class and let the interpreter decide.
	if m := anyClassRe.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	return ""
}

// findFile walks root for the newest file whose name contains id and carries
// the given extension.
func findFile(root, id, ext string) string {
	var best string
	var bestMod time.Time

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.Contains(name, id) || !strings.HasSuffix(name, ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if best == "" || info.ModTime().After(bestMod) {
			best = path
			bestMod = info.ModTime()
		}
		return nil
	})
	return best
}

func tailFile(path string, n int64) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if int64(len(data)) > n {
		data = data[int64(len(data))-n:]
	}
	return strings.TrimSpace(string(data))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
