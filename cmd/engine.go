package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/solwick/cascade/internal/config"
	"github.com/solwick/cascade/internal/dispatch"
	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/profile"
	"github.com/solwick/cascade/internal/stream"
)

// newDispatcher builds a Dispatcher, wiring in named profile/source
// bindings from the --profiles file when one was given.
func newDispatcher() *dispatch.Dispatcher {
	bindings, err := loadProfileBindings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return dispatch.New()
	}
	if len(bindings) == 0 {
		return dispatch.New()
	}
	return dispatch.New(dispatch.WithProfiles(bindings...))
}

func loadProfileBindings() ([]dispatch.ProfileBinding, error) {
	path := viper.GetString("profiles_file")
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file %s: %w", path, err)
	}

	cfg := config.Default()
	if err := cfg.LoadProfiles(data); err != nil {
		return nil, fmt.Errorf("parse profiles file %s: %w", path, err)
	}

	built := make(map[string]profile.Profile, len(cfg.Profiles))
	for name, def := range cfg.Profiles {
		p, err := def.Build()
		if err != nil {
			return nil, fmt.Errorf("build profile %q: %w", name, err)
		}
		built[name] = p
	}

	bindings := make([]dispatch.ProfileBinding, 0, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		p, ok := built[b.Profile]
		if !ok {
			return nil, fmt.Errorf("binding references unknown profile %q", b.Profile)
		}
		bindings = append(bindings, dispatch.ProfileBinding{
			Pattern: b.SourcePattern,
			Profile: p,
		})
	}

	return bindings, nil
}

// parseFileStream opens filePath and feeds each line through d via a
// stream.Engine, invoking fn for every dispatched result in order.
func parseFileStream(d *dispatch.Dispatcher, filePath string, fn func(r event.ParseResult) error) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	return stream.New(d).ParseStreamFunc(f, filePath, fn)
}

// parseReaderStream feeds every line of r through d via a stream.Engine,
// tagging results with source (used for stdin, which has no file path).
func parseReaderStream(d *dispatch.Dispatcher, r io.Reader, source string, fn func(r event.ParseResult) error) error {
	return stream.New(d).ParseStreamFunc(r, source, fn)
}
