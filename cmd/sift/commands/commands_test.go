package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/cmd/sift/commands"
	"go.trai.ch/sift/internal/app"
)

type mockApp struct {
	buildFunc func(ctx context.Context, files []string, opts app.BuildOptions) error
	watchFunc func(ctx context.Context, files []string, opts app.BuildOptions) error
	cleanFunc func(ctx context.Context, opts app.CleanOptions) error
}

func (m *mockApp) Build(ctx context.Context, files []string, opts app.BuildOptions) error {
	if m.buildFunc != nil {
		return m.buildFunc(ctx, files, opts)
	}
	return nil
}

func (m *mockApp) Watch(ctx context.Context, files []string, opts app.BuildOptions) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, files, opts)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return nil
}

type settings struct {
	verbose, json bool
}

func (s *settings) SetVerbose(enable bool) { s.verbose = enable }
func (s *settings) SetJSON(enable bool)    { s.json = enable }

func TestCommands_Build(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.BuildOptions
		var files []string
		mock := &mockApp{
			buildFunc: func(_ context.Context, f []string, opts app.BuildOptions) error {
				files, captured = f, opts
				return nil
			},
		}
		out := &settings{}

		cli := commands.New(mock, out)
		cli.SetArgs([]string{"build", "src/a.js", "src/b.ts", "--no-cache", "-o", "dist", "--constant", "-v"})
		require.NoError(t, cli.Execute(t.Context()))

		assert.Equal(t, []string{"src/a.js", "src/b.ts"}, files)
		assert.Equal(t, app.BuildOptions{NoCache: true, OutDir: "dist", Constant: true}, captured)
		assert.True(t, out.verbose)
		assert.False(t, out.json)
	})

	t.Run("returns error on build failure", func(t *testing.T) {
		mock := &mockApp{
			buildFunc: func(context.Context, []string, app.BuildOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock, nil)
		cli.SetArgs([]string{"build"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})
}

func TestCommands_Watch(t *testing.T) {
	called := false
	mock := &mockApp{
		watchFunc: func(_ context.Context, files []string, opts app.BuildOptions) error {
			called = true
			assert.Empty(t, files)
			assert.True(t, opts.NoCache)
			return nil
		},
	}
	out := &settings{}

	cli := commands.New(mock, out)
	cli.SetArgs([]string{"watch", "-n", "--json"})
	require.NoError(t, cli.Execute(t.Context()))
	assert.True(t, called)
	assert.True(t, out.json)
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.CleanOptions
	}{
		{name: "default", args: []string{"clean"}, want: app.CleanOptions{Cache: true, Output: true}},
		{name: "cache only", args: []string{"clean", "--cache"}, want: app.CleanOptions{Cache: true}},
		{name: "output only", args: []string{"clean", "-o"}, want: app.CleanOptions{Output: true}},
		{name: "both", args: []string{"clean", "-c", "-o"}, want: app.CleanOptions{Cache: true, Output: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got app.CleanOptions
			mock := &mockApp{
				cleanFunc: func(_ context.Context, opts app.CleanOptions) error {
					got = opts
					return nil
				},
			}
			cli := commands.New(mock, nil)
			cli.SetArgs(tt.args)
			require.NoError(t, cli.Execute(t.Context()))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommands_Version(t *testing.T) {
	cli := commands.New(&mockApp{}, nil)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(t.Context()))
	assert.Equal(t, "sift version dev (commit: none, date: unknown)\n", buf.String())
}
