package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/samvad-catalog-client/internal/domain"
	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
	"github.com/samvad-hq/samvad-catalog-client/internal/mainloop"
	"github.com/samvad-hq/samvad-catalog-client/internal/resource"
	"github.com/samvad-hq/samvad-catalog-client/internal/viewmodel"
)

// render writes v as JSON or YAML, or calls table for the table format.
func render(out io.Writer, format string, v any, table func(*tablewriter.Table)) error {
	switch format {
	case outputJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case outputYAML:
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(v)
	default:
		tw := tablewriter.NewWriter(out)
		table(tw)
		return tw.Render()
	}
}

// loadOnce runs a single fetch through a list view-model and returns the collection it holds afterwards.
func loadOnce[T domain.Resource](ctx context.Context, name string, source resource.Lister[T], log logger.Logger) ([]T, error) {
	loop := mainloop.New()
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = loop.Run(loopCtx) }()

	vm := viewmodel.NewListViewModel[T](name, source, loop, log)
	applied := make(chan viewmodel.State[T], 1)
	if !vm.Subscribe(func(st viewmodel.State[T]) {
		if st.Revision > 0 {
			select {
			case applied <- st:
			default:
			}
		}
	}) {
		return nil, errors.New("main loop unavailable")
	}

	vm.Fetch(ctx)

	select {
	case st := <-applied:
		if st.HasError {
			return nil, fmt.Errorf("fetch %s: %s", name, st.Message)
		}
		return st.Items, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// waitDone adapts a completion-callback mutation into a blocking call.
func waitDone(ctx context.Context, start func(done func(error))) error {
	errs := make(chan error, 1)
	start(func(err error) { errs <- err })
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
