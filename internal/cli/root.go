package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-catalog-client/internal/app"
	"github.com/samvad-hq/samvad-catalog-client/internal/config"
	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
	"github.com/samvad-hq/samvad-catalog-client/pkg/endpoints"
	"github.com/samvad-hq/samvad-catalog-client/pkg/httpclient"
)

// Package cli implements the catalogctl command tree.

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// options carries the persistent flags and the state loaded before every command.
type options struct {
	backend  string
	url      string
	endpoint string
	output   string
	params   []string

	out        io.Writer
	loadConfig func() (*config.Config, error)
	cfg        *config.Config
	log        logger.Logger
}

// NewRootCommand builds catalogctl. Results go to out; logs go to stderr.
func NewRootCommand(out io.Writer) *cobra.Command {
	return newRootCommand(out, config.Load)
}

func newRootCommand(out io.Writer, loadConfig func() (*config.Config, error)) *cobra.Command {
	opts := &options{out: out, loadConfig: loadConfig}

	cmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Query and edit remote catalog collections",
		Long: `catalogctl talks to the product and post collections declared in the endpoints file,
or to any URL passed with --url, and inspects snapshots archived by catalogd.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Close()
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.backend, "backend", "", "http backend (resty, nethttp); defaults to the endpoint or HTTP_BACKEND")
	flags.StringVar(&opts.url, "url", "", "collection URL; overrides the endpoints file")
	flags.StringVarP(&opts.endpoint, "endpoint", "e", "", "endpoint id from the endpoints file")
	flags.StringVarP(&opts.output, "output", "o", outputTable, "output format (table, json, yaml)")
	flags.StringArrayVarP(&opts.params, "param", "p", nil, "query parameter as key=value; repeatable")

	cmd.AddCommand(newProductsCommand(opts))
	cmd.AddCommand(newPostsCommand(opts))
	cmd.AddCommand(newSnapshotCommand(opts))

	return cmd
}

func (o *options) init() error {
	switch o.output {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unsupported output format %q", o.output)
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	o.cfg = cfg

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	o.log = log
	return nil
}

// target is a resolved collection: where to send requests and how.
type target struct {
	url    string
	api    httpclient.Service
	params httpclient.Params
}

// resolve picks the collection for kind from --url, --endpoint, or the first enabled endpoint of that kind.
func (o *options) resolve(kind string) (target, error) {
	var ep endpoints.Endpoint
	switch {
	case o.url != "":
		ep = endpoints.Endpoint{Kind: kind, URL: o.url}
	default:
		found, err := o.lookupEndpoint(kind)
		if err != nil {
			return target{}, err
		}
		ep = found
	}

	backend := o.backend
	if backend == "" {
		backend = ep.BackendOr(o.cfg.HTTPBackend)
	}
	api, err := app.NewAPIService(o.cfg, backend)
	if err != nil {
		return target{}, err
	}

	params, err := parseParams(o.params)
	if err != nil {
		return target{}, err
	}
	merged := ep.QueryParams()
	if merged == nil && len(params) > 0 {
		merged = make(httpclient.Params, len(params))
	}
	for k, v := range params {
		merged[k] = v
	}

	return target{url: ep.URL, api: api, params: merged}, nil
}

func (o *options) lookupEndpoint(kind string) (endpoints.Endpoint, error) {
	reg, err := endpoints.LoadRegistry(o.cfg.EndpointsFile)
	if err != nil {
		return endpoints.Endpoint{}, fmt.Errorf("no --url given and endpoints file unusable: %w", err)
	}
	if o.endpoint != "" {
		ep, ok := reg.ByID(o.endpoint)
		if !ok {
			return endpoints.Endpoint{}, fmt.Errorf("endpoint %q not found", o.endpoint)
		}
		if ep.Kind != kind {
			return endpoints.Endpoint{}, fmt.Errorf("endpoint %q serves %s, not %s", ep.ID, ep.Kind, kind)
		}
		return ep, nil
	}
	for _, ep := range reg.Enabled() {
		if ep.Kind == kind {
			return ep, nil
		}
	}
	return endpoints.Endpoint{}, fmt.Errorf("no enabled %s endpoint; pass --url or --endpoint", kind)
}

// parseParams turns key=value pairs into query params. Repeated keys become repeated values.
func parseParams(pairs []string) (httpclient.Params, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	grouped := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q (want key=value)", pair)
		}
		grouped[key] = append(grouped[key], value)
	}

	out := make(httpclient.Params, len(grouped))
	for key, values := range grouped {
		if len(values) == 1 {
			out[key] = values[0]
			continue
		}
		out[key] = values
	}
	return out, nil
}
