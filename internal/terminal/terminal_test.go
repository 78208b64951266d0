package terminal

import (
	"errors"
	"fmt"
	"testing"

	"cell-editor/internal/commands"
	"cell-editor/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWriterSplitsLines(t *testing.T) {
	log := logger.NewNop()
	w := &LogWriter{log: log.Logger}

	fmt.Fprint(w, "ID  TYPE\npallet  Pal")
	require.Len(t, log.Lines(), 1)
	fmt.Fprint(w, "let\n\n")

	lines := log.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ID  TYPE")
	assert.Contains(t, lines[1], "pallet  Pallet")
}

func TestSubmitRunsCommandAndLogsErrors(t *testing.T) {
	log := logger.NewNop()
	reg := commands.NewRegistry()
	term := New(log, reg)
	ran := make(chan struct{}, 1)
	reg.Register("ping", "ping", nil, func() error {
		fmt.Fprintln(term.Output(), "pong")
		ran <- struct{}{}
		return nil
	})
	reg.Register("fail", "fail", nil, func() error { return errors.New("boom") })

	term.Submit("ping")
	term.Submit("fail")
	term.Submit("   ")
	term.Wait()
	<-ran

	var joined string
	for _, l := range log.Lines() {
		joined += l + "\n"
	}
	assert.Contains(t, joined, "> ping")
	assert.Contains(t, joined, "pong")
	assert.Contains(t, joined, "boom")
	assert.NotContains(t, joined, ">    ")
}

func TestTruncate(t *testing.T) {
	long := make([]byte, maxLineLen+10)
	for i := range long {
		long[i] = 'a'
	}
	got := truncate(string(long))
	assert.Len(t, got, maxLineLen)
	assert.Equal(t, "...", got[len(got)-3:])
	assert.Equal(t, "short", truncate("short"))
}
