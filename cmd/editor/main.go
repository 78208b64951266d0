package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"cell-editor/internal/commands"
	"cell-editor/internal/debug"
	"cell-editor/internal/engineconfig"
	"cell-editor/internal/env"
	"cell-editor/internal/factory"
	"cell-editor/internal/fetch"
	"cell-editor/internal/graphics"
	"cell-editor/internal/lifecycle"
	"cell-editor/internal/loader"
	"cell-editor/internal/logger"
	"cell-editor/internal/objects"
	"cell-editor/internal/outline"
	"cell-editor/internal/primitives"
	"cell-editor/internal/scene"
	"cell-editor/internal/telemetry"
	"cell-editor/internal/terminal"
	"cell-editor/internal/watch"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	// raylib and GL must stay on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// options are command-line overrides of the config file.
type options struct {
	configPath string
	scene      string
	assetURL   string
	noWatch    bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "cell-editor",
		Short:        "Edit a robot work cell described by a scene document",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file (default $CELL_CONFIG or "+engineconfig.ConfigPath+")")
	f.StringVar(&opts.scene, "scene", "", "scene document, relative to the asset root or URL")
	f.StringVar(&opts.assetURL, "asset-url", "", "fetch the scene and its assets from this base URL")
	f.BoolVar(&opts.noWatch, "no-watch", false, "do not reload when the scene file changes")
	return cmd
}

// configFile picks the config file: the flag, then CELL_CONFIG, then the default.
func (o options) configFile() string {
	if o.configPath != "" {
		return o.configPath
	}
	if p := os.Getenv("CELL_CONFIG"); p != "" {
		return p
	}
	return engineconfig.ConfigPath
}

// apply writes the flags that were given over cfg.
func (o options) apply(cfg *engineconfig.Config) {
	if o.scene != "" {
		cfg.Scene.Path = o.scene
	}
	if o.assetURL != "" {
		cfg.Scene.BaseURL = o.assetURL
	}
	if o.noWatch {
		cfg.Scene.Watch = false
	}
}

func run(ctx context.Context, opts options) error {
	if _, err := env.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfgPath := opts.configFile()
	// prefs is the file as written; grid saves go back through it so
	// environment and command-line overrides never reach the file.
	prefs, err := engineconfig.Read(cfgPath)
	if err != nil {
		return err
	}
	live := *prefs
	cfg := &live
	if err := engineconfig.ApplyEnv(cfg); err != nil {
		return err
	}
	opts.apply(cfg)
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Close()

	shutdownTracing, err := telemetry.Setup(ctx, "cell-editor", cfg.Telemetry)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("flush traces", zap.Error(err))
		}
	}()

	q := graphics.NewQueue()
	src, watchPath, err := openSource(cfg.Scene)
	if err != nil {
		return err
	}

	types := factory.NewRegistry()
	objects.Register(types, primitives.NewGPU(q), src, log.Logger)
	ld := loader.New(types, src, log.Logger)
	cam := cameraFrom(cfg.Camera)
	mgr := lifecycle.New(ld, cfg.Scene.Path,
		lifecycle.WithLogger(log.Logger),
		lifecycle.WithDefaultCamera(cam),
	)
	highlight := &outline.Set{}
	stopOutline := outline.Follow(mgr, highlight)

	scn := scene.New(cam, cfg.Editor.GridVisible)
	overlay := debug.New()
	overlay.ShowFPS = cfg.Editor.ShowFPS
	overlay.ShowMemAlloc = cfg.Editor.ShowFPS
	overlay.ShowStatus = cfg.Editor.ShowStatus
	overlay.ShowLog = true

	console := commands.NewRegistry()
	term := terminal.New(log, console)
	var cfgMu sync.Mutex
	commands.RegisterEditor(console, commands.Editor{
		Manager: mgr,
		Types:   types,
		OnMain:  q.Do,
		SetGrid: func(visible bool) error {
			if err := q.Do(func() { scn.SetGridVisible(visible) }); err != nil {
				return err
			}
			cfgMu.Lock()
			defer cfgMu.Unlock()
			prefs.Editor.GridVisible = visible
			return engineconfig.Save(cfgPath, prefs)
		},
		Capture: func() (image.Image, error) {
			var img image.Image
			err := q.Do(func() {
				shot := rl.LoadImageFromScreen()
				img = shot.ToImage()
				rl.UnloadImage(shot)
			})
			return img, err
		},
		Out: term.Output(),
	})

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mgr.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("reload loop stopped", zap.Error(err))
		}
	}()
	mgr.Request()

	if cfg.Scene.Watch && watchPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("watching scene", zap.String("path", watchPath))
			if err := watch.File(runCtx, watchPath, cfg.Scene.WatchDebounce, log.Logger, mgr.Request); err != nil {
				log.Warn("scene watch stopped", zap.Error(err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := commands.Serve(runCtx, os.Stdin, console, os.Stdout, log.Logger); err != nil {
			log.Warn("stdin console stopped", zap.Error(err))
		}
	}()

	update := func(dt float32) {
		term.Update()
		snap := mgr.Snapshot()
		scn.Sync(snap)
		if !term.IsOpen() {
			scn.Update()
		}
		snap.Update(dt)
	}
	draw := func() {
		snap := mgr.Snapshot()
		scn.Draw(snap, highlight)
		overlay.ShowLog = !term.IsOpen()
		overlay.Draw(debug.Status{
			Snapshot: snap,
			Phase:    mgr.Phase(),
			Selected: selectedName(mgr),
			Log:      log.Lines(),
		})
		term.Draw()
	}
	graphics.Run(ctx, cfg.Window, q, update, draw)

	cancel()
	q.Close()
	wg.Wait()
	term.Wait()
	mgr.Close()
	stopOutline()
	return nil
}

// openSource picks where documents and assets come from. watchPath is the
// local file backing the scene document, or "" when it has none.
func openSource(cfg engineconfig.SceneConfig) (src fetch.Source, watchPath string, err error) {
	if cfg.BaseURL != "" {
		h, err := fetch.NewHTTP(cfg.BaseURL, cfg.CacheDir, cfg.FetchTimeout)
		if err != nil {
			return nil, "", err
		}
		return h, "", nil
	}
	dir, err := fetch.NewDir(cfg.AssetRoot, cfg.CacheDir)
	if err != nil {
		return nil, "", err
	}
	watchPath, _ = dir.Path(cfg.Path)
	return dir, watchPath, nil
}

func cameraFrom(c engineconfig.CameraConfig) lifecycle.Camera {
	return lifecycle.Camera{
		Position: rl.NewVector3(c.Position[0], c.Position[1], c.Position[2]),
		LookAt:   rl.NewVector3(c.LookAt[0], c.LookAt[1], c.LookAt[2]),
	}
}

func selectedName(mgr *lifecycle.Manager) string {
	if e := mgr.Selected(); e != nil {
		return e.Name
	}
	return ""
}
