package commands

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cell-editor/internal/entity"
	"cell-editor/internal/factory"
	"cell-editor/internal/lifecycle"
	"cell-editor/internal/loader"
	"cell-editor/internal/params"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParse(t *testing.T) {
	args, ok := Parse("  move conveyor 1 _ -2  ")
	require.True(t, ok)
	assert.Equal(t, []string{"move", "conveyor", "1", "_", "-2"}, args)

	_, ok = Parse("   ")
	assert.False(t, ok)
	_, ok = Parse("# note")
	assert.False(t, ok)
}

func TestExecuteFlagsAndErrors(t *testing.T) {
	r := NewRegistry()
	fs := flag.NewFlagSet("echo", flag.ContinueOnError)
	upper := fs.Bool("upper", false, "")
	var got string
	r.Register("echo", "echo [--upper] words", fs, func() error {
		got = strings.Join(fs.Args(), " ")
		if *upper {
			got = strings.ToUpper(got)
		}
		return nil
	})

	require.NoError(t, r.Execute([]string{"echo", "--upper", "hi", "there"}))
	assert.Equal(t, "HI THERE", got)

	assert.Error(t, r.Execute(nil))
	assert.ErrorContains(t, r.Execute([]string{"nope"}), "unknown command")
	assert.Error(t, r.Execute([]string{"echo", "--bogus"}))
	assert.Equal(t, []string{"echo"}, r.Names())
	assert.Equal(t, "echo [--upper] words", r.Usage("echo"))
}

func TestExecuteConcurrent(t *testing.T) {
	r := NewRegistry()
	fs := flag.NewFlagSet("tag", flag.ContinueOnError)
	loud := fs.Bool("loud", false, "")
	var mu sync.Mutex
	got := make(map[string]int)
	r.Register("tag", "tag [--loud] <id>", fs, func() error {
		defer func() { *loud = false }()
		id := fs.Arg(0)
		if *loud {
			id = strings.ToUpper(id)
		}
		mu.Lock()
		got[id]++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			args := []string{"tag", fmt.Sprintf("id%d", i%4)}
			if i%2 == 1 {
				args = []string{"tag", "--loud", fmt.Sprintf("id%d", i%4)}
			}
			assert.NoError(t, r.Execute(args))
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"id0": 50, "ID1": 50, "id2": 50, "ID3": 50}, got)
}

type staticLoader struct{ res func() *loader.Result }

func (s staticLoader) Load(context.Context, string) (*loader.Result, error) {
	return s.res(), nil
}

type editorFixture struct {
	reg   *Registry
	mgr   *lifecycle.Manager
	out   *bytes.Buffer
	grid  []bool
	mains int
}

func newEditorFixture(t *testing.T) *editorFixture {
	t.Helper()
	l := staticLoader{res: func() *loader.Result {
		res := &loader.Result{
			Failures: []loader.Failure{{ID: "ghost", Type: "Forklift", Kind: loader.FailureUnresolvedType, Err: errors.New("no factory")}},
		}
		for _, id := range []string{"pallet", "conveyor"} {
			e := entity.New(id + " name")
			res.Instances = append(res.Instances, &loader.Instance{ID: id, Type: id, Name: e.Name, Entity: e})
		}
		res.Default = res.Instances[1]
		return res
	}}
	f := &editorFixture{reg: NewRegistry(), out: &bytes.Buffer{}}
	f.mgr = lifecycle.New(l, "scene.json")
	t.Cleanup(f.mgr.Close)
	require.NoError(t, f.mgr.Reload(context.Background()))

	types := factory.NewRegistry()
	types.Register("Pallet", factory.Func(func(context.Context, params.Parameters) (factory.Result, error) {
		return factory.Result{}, nil
	}))
	RegisterEditor(f.reg, Editor{
		Manager: f.mgr,
		Types:   types,
		OnMain: func(fn func()) error {
			f.mains++
			fn()
			return nil
		},
		SetGrid: func(v bool) error {
			f.grid = append(f.grid, v)
			return nil
		},
		Capture: func() (image.Image, error) {
			return image.NewRGBA(image.Rect(0, 0, 64, 32)), nil
		},
		Out: f.out,
	})
	return f
}

func (f *editorFixture) run(t *testing.T, line string) error {
	t.Helper()
	f.out.Reset()
	args, ok := Parse(line)
	require.True(t, ok)
	return f.reg.Execute(args)
}

func TestListMarksSelection(t *testing.T) {
	f := newEditorFixture(t)
	require.NoError(t, f.run(t, "list"))
	lines := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ID")
	assert.NotContains(t, lines[1], "*")
	assert.Contains(t, lines[1], "pallet")
	assert.True(t, strings.HasPrefix(lines[2], "*"))
	assert.Contains(t, lines[2], "conveyor name")
}

func TestSelect(t *testing.T) {
	f := newEditorFixture(t)
	require.NoError(t, f.run(t, "select pallet"))
	assert.Equal(t, "pallet name", f.mgr.Selected().Name)

	assert.ErrorContains(t, f.run(t, "select ghost"), "no instance")
	assert.Equal(t, "pallet name", f.mgr.Selected().Name)

	require.NoError(t, f.run(t, "select none"))
	assert.Nil(t, f.mgr.Selected())

	assert.ErrorIs(t, f.run(t, "select"), ErrUsage)
}

func TestMoveKeepsUnderscoreAxes(t *testing.T) {
	f := newEditorFixture(t)
	e := f.mgr.Snapshot().Find("pallet").Entity
	e.Position.Y = 0.05

	require.NoError(t, f.run(t, "move pallet -1.5 _ 2"))
	assert.Equal(t, 1, f.mains)
	assert.Equal(t, float32(-1.5), e.Position.X)
	assert.Equal(t, float32(0.05), e.Position.Y)
	assert.Equal(t, float32(2), e.Position.Z)

	assert.ErrorIs(t, f.run(t, "move pallet 1 2"), ErrUsage)
	assert.ErrorIs(t, f.run(t, "move pallet x 0 0"), ErrUsage)
	assert.ErrorContains(t, f.run(t, "move ghost 0 0 0"), "no instance")
	assert.Equal(t, 1, f.mains)
}

func TestGridFlagsReset(t *testing.T) {
	f := newEditorFixture(t)
	require.NoError(t, f.run(t, "grid --hide"))
	require.NoError(t, f.run(t, "grid --show"))
	assert.ErrorIs(t, f.run(t, "grid"), ErrUsage)
	assert.ErrorIs(t, f.run(t, "grid --show --hide"), ErrUsage)
	assert.Equal(t, []bool{false, true}, f.grid)
}

func TestScreenshot(t *testing.T) {
	f := newEditorFixture(t)
	path := filepath.Join(t.TempDir(), "cell.png")
	require.NoError(t, f.run(t, "screenshot --width 16 "+path))
	assert.FileExists(t, path)
	assert.Contains(t, f.out.String(), "saved")

	assert.ErrorIs(t, f.run(t, "screenshot a.png b.png"), ErrUsage)
}

func TestTypesFailuresHelp(t *testing.T) {
	f := newEditorFixture(t)
	require.NoError(t, f.run(t, "types"))
	assert.Equal(t, "Pallet\n", f.out.String())

	require.NoError(t, f.run(t, "failures"))
	assert.Contains(t, f.out.String(), "ghost")

	require.NoError(t, f.run(t, "help"))
	for _, name := range []string{"reload", "list", "move", "grid", "failures"} {
		assert.Contains(t, f.out.String(), name)
	}
}

func TestReloadRequestsCycle(t *testing.T) {
	f := newEditorFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.mgr.Run(ctx) }()

	before := f.mgr.Snapshot().Generation
	require.NoError(t, f.run(t, "reload"))
	require.Eventually(t, func() bool {
		return f.mgr.Snapshot().Generation == before+1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestServe(t *testing.T) {
	f := newEditorFixture(t)
	in := strings.NewReader("select pallet\n\nbogus\nselect conveyor\n")
	var out bytes.Buffer
	require.NoError(t, Serve(context.Background(), in, f.reg, &out, zap.NewNop()))
	assert.Contains(t, out.String(), "error: unknown command: bogus")
	assert.Equal(t, "conveyor name", f.mgr.Selected().Name)
}
