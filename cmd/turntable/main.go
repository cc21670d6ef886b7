// turntable - Terminal 3D model turntable
// Spins OBJ and GLB models in your terminal with drag-to-rotate controls.
//
// Controls:
//
//	Mouse drag  - Rotate model (release to fling)
//	Scroll      - Zoom in/out
//	Space       - Toggle auto-spin
//	X           - Toggle wireframe mode
//	V           - Toggle visibility (suspends the render loop)
//	R           - Reset view
//	Esc / Q     - Quit
package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"fortio.org/terminal/ansipixels"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/harmonica"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/turntable3d/turntable/config"
	"github.com/turntable3d/turntable/logger"
	"github.com/turntable3d/turntable/render"
	"github.com/turntable3d/turntable/viewer"
)

var (
	configPath string
	targetFPS  int
	wireframe  bool
	coarse     bool
	direction  string
	quality    string
	freeOrbit  bool
	logFile    string
	logLevel   string
)

func main() {
	cmd := &cobra.Command{
		Use:   "turntable <model.obj|model.glb|url>",
		Short: "Terminal 3D model turntable",
		Long: `turntable - Terminal 3D model turntable

Spins OBJ and GLB models in your terminal with drag-to-rotate controls.
Models load from local paths or http(s) URLs.

Controls:
  Mouse drag  - Rotate model (release to fling)
  Scroll      - Zoom in/out
  Space       - Toggle auto-spin
  X           - Toggle wireframe
  V           - Toggle visibility (suspends the render loop)
  R           - Reset view
  Esc / Q     - Quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset := ""
			if len(args) > 0 {
				asset = args[0]
			}
			return run(cmd, asset)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().IntVar(&targetFPS, "fps", 0, "Target FPS (overrides config)")
	cmd.Flags().BoolVar(&wireframe, "wireframe", false, "Start in wireframe mode")
	cmd.Flags().BoolVar(&coarse, "coarse", false, "Treat the pointer as a touch device")
	cmd.Flags().StringVar(&direction, "direction", "", "Auto-spin direction: clockwise, counterclockwise, none")
	cmd.Flags().StringVar(&quality, "quality", "", "Render quality: low, medium, high")
	cmd.Flags().BoolVar(&freeOrbit, "free-orbit", false, "Unlock the vertical axis")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges defaults, the config file, and flags.
func loadConfig(cmd *cobra.Command, asset string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if asset != "" {
		cfg.Viewer.Asset = asset
	}
	if cmd.Flags().Changed("fps") {
		cfg.Display.FPS = targetFPS
	}
	if cmd.Flags().Changed("wireframe") {
		cfg.Display.Wireframe = wireframe
	}
	if cmd.Flags().Changed("direction") {
		cfg.Viewer.RotationDirection = direction
	}
	if cmd.Flags().Changed("quality") {
		cfg.Viewer.Quality = quality
	}
	if cmd.Flags().Changed("free-orbit") {
		cfg.Viewer.FreeOrbit = freeOrbit
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Logging.LogFile = logFile
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// termRegion exposes the terminal as a mount region. Height is doubled for
// half-block pixels.
type termRegion struct {
	ap *ansipixels.AnsiPixels
}

func (r termRegion) Size() viewer.Dimensions {
	return viewer.Dimensions{Width: r.ap.W, Height: r.ap.H * 2}
}

func run(cmd *cobra.Command, asset string) error {
	cfg, err := loadConfig(cmd, asset)
	if err != nil {
		return err
	}
	if cfg.Viewer.Asset == "" {
		return fmt.Errorf("no model given: pass a path or URL, or set viewer.asset in the config")
	}

	opts, err := cfg.ToOptions()
	if err != nil {
		return err
	}

	// Console logging is off: the terminal belongs to the display layer.
	log := logger.New(cfg.Logging.Level, logger.DefaultFileConfig(cfg.Logging.LogFile), false)
	defer func() { _ = log.Sync() }()

	ap := ansipixels.NewAnsiPixels(float64(cfg.Display.FPS))
	if err := ap.Open(); err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer func() {
		ap.ShowCursor()
		ap.MouseTrackingOff()
		ap.Out.Flush()
		ap.Restore()
	}()
	ap.SyncBackgroundColor()
	ap.MouseTrackingOn()
	ap.HideCursor()
	if ap.W <= 0 || ap.H <= 0 {
		return fmt.Errorf("invalid terminal size: %dx%d", ap.W, ap.H)
	}

	var frame *image.RGBA
	backend := render.NewBackend(func(img *image.RGBA) {
		frame = img
	})
	if cfg.Display.Wireframe {
		backend.Mode = render.ModeWireframe
	}

	// The engine paces itself off our display tick.
	sched := viewer.NewManualScheduler()
	v := viewer.New(viewer.Deps{
		Backend:   backend,
		Scheduler: sched,
		Logger:    log,
	}, opts)

	kind := viewer.PointerFine
	if coarse {
		kind = viewer.PointerCoarse
	}
	v.Mount(termRegion{ap}, kind)
	defer v.Unmount()
	v.SetVisibility(1)

	// Camera zoom is display-side: a critically damped spring eases the
	// distance toward the scroll-wheel target.
	zoomSpring := harmonica.NewSpring(harmonica.FPS(cfg.Display.FPS), 6.0, 1.0)
	zoom, zoomVel, zoomTarget := 1.0, 0.0, 1.0

	visible := true
	spinning := opts.RotationDirection != viewer.DirectionNone

	ap.OnMouse = func() {
		x := float64(ap.Mx)
		y := float64(ap.My) * 2
		switch {
		case ap.MouseWheelUp():
			zoomTarget -= 0.1
			if zoomTarget < 0.2 {
				zoomTarget = 0.2
			}
		case ap.MouseWheelDown():
			zoomTarget += 0.1
			if zoomTarget > 4 {
				zoomTarget = 4
			}
		case ap.LeftClick():
			v.PointerDown(x, y)
		case ap.LeftDrag():
			v.PointerMove(x, y)
		case ap.MouseRelease():
			v.PointerUp()
		}
	}
	ap.OnResize = func() error {
		v.Resize()
		return nil
	}

	err = ap.FPSTicks(func() bool {
		if len(ap.Data) > 0 {
			for _, b := range ap.Data {
				switch b {
				case 'x', 'X':
					if backend.Mode == render.ModeWireframe {
						backend.Mode = render.ModeShaded
					} else {
						backend.Mode = render.ModeWireframe
					}
				case 'v', 'V':
					visible = !visible
					if visible {
						v.SetVisibility(1)
					} else {
						v.SetVisibility(0)
					}
				case ' ':
					spinning = !spinning
					next := opts
					if spinning {
						next.RotationDirection = viewer.DirectionClockwise
					} else {
						next.RotationDirection = viewer.DirectionNone
					}
					opts = next
					v.SetOptions(next)
				case 'r', 'R':
					zoomTarget = 1
					v.SetOptions(opts)
				case 'q', 'Q', 27:
					return false
				}
			}
		}

		zoom, zoomVel = zoomSpring.Update(zoom, zoomVel, zoomTarget)
		backend.SetZoom(zoom)

		// Deliver the frame the engine booked last tick, then show it.
		sched.Pump(time.Now())

		if err := v.Err(); err != nil {
			log.Error("session failed", zap.Error(err))
			return false
		}

		ap.StartSyncMode()
		ap.ClearScreen()
		if frame != nil {
			if err := ap.ShowScaledImage(frame); err != nil {
				log.Error("show image", zap.Error(err))
				return false
			}
		} else {
			ap.WriteAtStr(ap.W/2-5, ap.H/2, "loading...")
		}
		ap.EndSyncMode()
		return true
	})
	if err != nil {
		return fmt.Errorf("main loop: %w", err)
	}
	if err := v.Err(); err != nil {
		return err
	}
	return nil
}
