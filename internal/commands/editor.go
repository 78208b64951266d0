package commands

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"cell-editor/internal/capture"
	"cell-editor/internal/factory"
	"cell-editor/internal/lifecycle"
	"cell-editor/internal/params"
)

// ErrUsage is returned when a command gets the wrong arguments.
var ErrUsage = errors.New("usage")

// Editor is what the editor commands act on.
type Editor struct {
	Manager *lifecycle.Manager
	Types   *factory.Registry
	// OnMain runs fn on the render thread and waits for it. Entity
	// transforms are only written there.
	OnMain func(fn func()) error
	// SetGrid shows or hides the editor grid.
	SetGrid func(visible bool) error
	// Capture grabs the current frame.
	Capture func() (image.Image, error)
	Out     io.Writer
}

// ScreenshotDir is where screenshots go when no file is named.
const ScreenshotDir = "screenshots"

// RegisterEditor adds the editor commands to r.
func RegisterEditor(r *Registry, ed Editor) {
	r.Register("help", "help: list commands", nil, func() error {
		for _, name := range r.Names() {
			fmt.Fprintln(ed.Out, r.Usage(name))
		}
		return nil
	})

	r.Register("reload", "reload: clear the scene and load it again", nil, func() error {
		ed.Manager.Request()
		fmt.Fprintln(ed.Out, "reload requested")
		return nil
	})

	r.Register("list", "list: show the scene's instances", nil, func() error {
		return list(ed)
	})

	r.Register("types", "types: show the registered object types", nil, func() error {
		for _, typ := range ed.Types.Types() {
			fmt.Fprintln(ed.Out, typ)
		}
		return nil
	})

	selectFS := flag.NewFlagSet("select", flag.ContinueOnError)
	r.Register("select", "select <id|none>: select an instance", selectFS, func() error {
		if selectFS.NArg() != 1 {
			return fmt.Errorf("%w: select <id|none>", ErrUsage)
		}
		id := selectFS.Arg(0)
		if id == "none" {
			ed.Manager.Select(nil)
			fmt.Fprintln(ed.Out, "selection cleared")
			return nil
		}
		if !ed.Manager.SelectID(id) {
			return fmt.Errorf("no instance %q", id)
		}
		fmt.Fprintf(ed.Out, "selected %s\n", id)
		return nil
	})

	moveFS := flag.NewFlagSet("move", flag.ContinueOnError)
	r.Register("move", "move <id> <x|_> <y|_> <z|_>: set an instance's position", moveFS, func() error {
		return move(ed, moveFS.Args())
	})

	gridFS := flag.NewFlagSet("grid", flag.ContinueOnError)
	show := gridFS.Bool("show", false, "show the grid")
	hide := gridFS.Bool("hide", false, "hide the grid")
	r.Register("grid", "grid --show|--hide: toggle the editor grid", gridFS, func() error {
		defer func() { *show, *hide = false, false }()
		if *show == *hide {
			return fmt.Errorf("%w: grid --show|--hide", ErrUsage)
		}
		if err := ed.SetGrid(*show); err != nil {
			return err
		}
		fmt.Fprintf(ed.Out, "grid visible: %t\n", *show)
		return nil
	})

	shotFS := flag.NewFlagSet("screenshot", flag.ContinueOnError)
	shotWidth := shotFS.Int("width", 0, "scale down to this width")
	r.Register("screenshot", "screenshot [--width N] [file.png]: save the viewport", shotFS, func() error {
		defer func() { *shotWidth = 0 }()
		if shotFS.NArg() > 1 {
			return fmt.Errorf("%w: screenshot [--width N] [file.png]", ErrUsage)
		}
		path := shotFS.Arg(0)
		if path == "" {
			path = filepath.Join(ScreenshotDir, "cell-"+time.Now().Format("20060102-150405")+".png")
		}
		img, err := ed.Capture()
		if err != nil {
			return err
		}
		if err := capture.Save(img, path, *shotWidth); err != nil {
			return err
		}
		fmt.Fprintf(ed.Out, "saved %s\n", path)
		return nil
	})

	r.Register("failures", "failures: show why instances were skipped", nil, func() error {
		snap := ed.Manager.Snapshot()
		if snap.Err != nil {
			fmt.Fprintf(ed.Out, "scene: %v\n", snap.Err)
		}
		for _, f := range snap.Failures {
			fmt.Fprintln(ed.Out, f.Error())
		}
		if snap.Err == nil && len(snap.Failures) == 0 {
			fmt.Fprintln(ed.Out, "no failures")
		}
		return nil
	})
}

func list(ed Editor) error {
	snap := ed.Manager.Snapshot()
	sel := ed.Manager.Selected()
	w := tabwriter.NewWriter(ed.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tTYPE\tNAME\tPOSITION")
	for _, inst := range snap.Instances {
		mark := ""
		if inst.Entity == sel {
			mark = "*"
		}
		p := inst.Entity.Position
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f %.2f %.2f\n", mark, inst.ID, inst.Type, inst.Entity.Name, p.X, p.Y, p.Z)
	}
	return w.Flush()
}

func move(ed Editor, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("%w: move <id> <x|_> <y|_> <z|_>", ErrUsage)
	}
	inst := ed.Manager.Snapshot().Find(args[0])
	if inst == nil {
		return fmt.Errorf("no instance %q", args[0])
	}
	var axes [3]*float32
	for i, s := range args[1:] {
		if s == "_" {
			continue
		}
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("%w: bad coordinate %q", ErrUsage, s)
		}
		axes[i] = params.F(float32(v))
	}
	t := &params.Transform{Position: params.Axes(axes[0], axes[1], axes[2])}
	if err := ed.OnMain(func() { params.Apply(inst.Entity, t) }); err != nil {
		return err
	}
	fmt.Fprintf(ed.Out, "moved %s\n", inst.ID)
	return nil
}
