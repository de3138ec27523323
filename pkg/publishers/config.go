package publishers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/samvad-hq/samvad-catalog-client/pkg/configfile"
)

// Sink types accepted in the type field of a publisher entry.
const (
	TypeHTTP   = "http"
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "gcp_pubsub"
)

const (
	defaultHTTPMethod         = http.MethodPost
	defaultHTTPTimeoutSeconds = 5
)

type publishersFile struct {
	Publishers []Config `json:"publishers" yaml:"publishers"`
}

// Config declares one event sink and the fetch events routed to it.
type Config struct {
	ID      string `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	Enabled *bool  `json:"enabled" yaml:"enabled"`

	// Endpoints restricts delivery to events from these endpoint ids. Empty means every endpoint.
	Endpoints []string `json:"endpoints" yaml:"endpoints"`
	// Outcomes restricts delivery to "success" or "failure" events. Empty means both.
	Outcomes []string `json:"outcomes" yaml:"outcomes"`

	HTTP   *HTTPConfig   `json:"http" yaml:"http"`
	SQS    *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS    *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub *PubSubConfig `json:"gcp_pubsub" yaml:"gcp_pubsub"`
}

// HTTPConfig posts each event as JSON to a webhook.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// AWSCredentials are optional static keys; the default AWS chain is used when they are empty.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSConfig sends events to a queue. Queues named *.fifo are grouped per endpoint.
type SQSConfig struct {
	QueueURL       string `json:"queue_url" yaml:"queue_url"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// SNSConfig publishes events to a topic. Topics named *.fifo are grouped per endpoint.
type SNSConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `json:",inline" yaml:",inline"`
}

// PubSubConfig publishes events to a Google Cloud Pub/Sub topic.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	// OrderByEndpoint keeps events of one endpoint in order using the endpoint id as ordering key.
	OrderByEndpoint bool `json:"order_by_endpoint" yaml:"order_by_endpoint"`
}

// sinkConfig is the type-specific section of a publisher entry.
type sinkConfig interface {
	normalize()
	validate() error
}

func (c *HTTPConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = defaultHTTPMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultHTTPTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k = strings.TrimSpace(k); k != "" {
			headers[k] = strings.TrimSpace(v)
		}
	}
	c.Headers = headers
}

func (c *HTTPConfig) validate() error {
	if c.URL == "" {
		return errors.New("http.url is required")
	}
	return nil
}

func (c *SQSConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
}

func (c *SQSConfig) validate() error {
	if c.QueueURL == "" {
		return errors.New("sqs.queue_url is required")
	}
	if c.Region == "" {
		return errors.New("sqs.region is required")
	}
	return nil
}

func (c *SNSConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
}

func (c *SNSConfig) validate() error {
	if c.TopicARN == "" {
		return errors.New("sns.topic_arn is required")
	}
	if c.Region == "" {
		return errors.New("sns.region is required")
	}
	return nil
}

func (c *PubSubConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
}

func (c *PubSubConfig) validate() error {
	if c.ProjectID == "" {
		return errors.New("gcp_pubsub.project_id is required")
	}
	if c.Topic == "" {
		return errors.New("gcp_pubsub.topic is required")
	}
	return nil
}

// sections lists every sink section the entry sets, keyed by type.
func (c *Config) sections() map[string]sinkConfig {
	out := make(map[string]sinkConfig, 1)
	if c.HTTP != nil {
		out[TypeHTTP] = c.HTTP
	}
	if c.SQS != nil {
		out[TypeSQS] = c.SQS
	}
	if c.SNS != nil {
		out[TypeSNS] = c.SNS
	}
	if c.PubSub != nil {
		out[TypePubSub] = c.PubSub
	}
	return out
}

// normalize cleans the entry in place. Sink sections are copied first so the caller's values stay untouched.
func (c *Config) normalize() {
	if c.HTTP != nil {
		h := *c.HTTP
		c.HTTP = &h
	}
	if c.SQS != nil {
		q := *c.SQS
		c.SQS = &q
	}
	if c.SNS != nil {
		t := *c.SNS
		c.SNS = &t
	}
	if c.PubSub != nil {
		p := *c.PubSub
		c.PubSub = &p
	}
	c.ID = strings.TrimSpace(c.ID)
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	c.Endpoints = normalizeList(c.Endpoints, false)
	c.Outcomes = normalizeList(c.Outcomes, true)
	for _, s := range c.sections() {
		s.normalize()
	}
}

func (c *Config) validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	for _, o := range c.Outcomes {
		if o != OutcomeSuccess && o != OutcomeFailure {
			return fmt.Errorf("publisher %q: unknown outcome %q (expected %s or %s)", c.ID, o, OutcomeSuccess, OutcomeFailure)
		}
	}

	sections := c.sections()
	sink, ok := sections[c.Type]
	switch {
	case c.Type == "":
		return fmt.Errorf("publisher %q: type is required", c.ID)
	case !knownType(c.Type):
		return fmt.Errorf("publisher %q: unsupported type %q", c.ID, c.Type)
	case !ok:
		return fmt.Errorf("publisher %q: missing %s section", c.ID, c.Type)
	case len(sections) > 1:
		return fmt.Errorf("publisher %q: only the %s section may be set", c.ID, c.Type)
	}
	if err := sink.validate(); err != nil {
		return fmt.Errorf("publisher %q: %w", c.ID, err)
	}
	return nil
}

// EnabledValue returns the enabled flag defaulting to true.
func (c Config) EnabledValue() bool {
	return c.Enabled == nil || *c.Enabled
}

// Filter returns the routing filter declared by the entry.
func (c Config) Filter() Filter {
	return NewFilter(c.Endpoints, c.Outcomes)
}

func knownType(typ string) bool {
	switch typ {
	case TypeHTTP, TypeSQS, TypeSNS, TypePubSub:
		return true
	}
	return false
}

// normalizeList trims entries, drops blanks and duplicates, and keeps first-seen order.
func normalizeList(in []string, lower bool) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Set is a validated list of publisher entries in file order.
type Set struct {
	configs []Config
	idx     map[string]int
}

// Load reads publisher entries from a YAML or JSON file.
func Load(path string) (*Set, error) {
	var parsed publishersFile
	if err := configfile.Load(path, "publishers", &parsed); err != nil {
		return nil, err
	}
	return NewSet(parsed.Publishers)
}

// NewSet normalizes and validates cfgs.
func NewSet(cfgs []Config) (*Set, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("publishers file contains no publisher entries")
	}

	s := &Set{
		configs: make([]Config, 0, len(cfgs)),
		idx:     make(map[string]int, len(cfgs)),
	}
	for i := range cfgs {
		cfg := cfgs[i]
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := s.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		s.idx[cfg.ID] = len(s.configs)
		s.configs = append(s.configs, cfg)
	}
	return s, nil
}

// ByID returns the entry with id.
func (s *Set) ByID(id string) (Config, bool) {
	if s == nil {
		return Config{}, false
	}
	i, ok := s.idx[strings.TrimSpace(id)]
	if !ok {
		return Config{}, false
	}
	return s.configs[i], true
}

// All returns every entry.
func (s *Set) All() []Config {
	if s == nil {
		return nil
	}
	return slices.Clone(s.configs)
}

// Enabled returns the entries that are switched on.
func (s *Set) Enabled() []Config {
	var out []Config
	for _, cfg := range s.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// CheckEndpoints reports enabled entries whose endpoints filter names an id known does not accept.
func (s *Set) CheckEndpoints(known func(id string) bool) error {
	var errs []error
	for _, cfg := range s.Enabled() {
		for _, id := range cfg.Endpoints {
			if !known(id) {
				errs = append(errs, fmt.Errorf("publisher %q: endpoints filter names unknown endpoint %q", cfg.ID, id))
			}
		}
	}
	return errors.Join(errs...)
}
