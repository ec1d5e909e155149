//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"io"

	"github.com/rios0rios0/bitbucket-provider/internal/domain/commands"
	"github.com/rios0rios0/bitbucket-provider/internal/domain/entities"
)

// StubListCommand is a stub implementation of commands.List that writes Lines.
type StubListCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Lines            []string
	LastSettings     *entities.Settings
	LastOpts         commands.ListOptions
}

var _ commands.List = (*StubListCommand)(nil)

func (s *StubListCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	opts commands.ListOptions,
	out io.Writer,
) (int, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	for _, line := range s.Lines {
		_, _ = fmt.Fprintln(out, line)
	}
	return len(s.Lines), s.ExecuteErr
}
