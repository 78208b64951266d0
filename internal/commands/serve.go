package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Serve reads console lines from in and executes them against r until in is
// exhausted or ctx ends. Command errors are written to out and do not stop
// the loop.
func Serve(ctx context.Context, in io.Reader, r *Registry, out io.Writer, log *zap.Logger) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			args, ok := Parse(line)
			if !ok {
				continue
			}
			log.Debug("console command", zap.Strings("args", args))
			if err := r.Execute(args); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}
