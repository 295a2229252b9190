package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"beliefd/internal/common/fsutil"
)

// Model types understood by the generation service.
const (
	ModelTypeLLM = "LLM"
	ModelTypeVLM = "VLM"
)

// Backends that can serve generation.
const (
	BackendOpenAI = "openai"
	BackendLlama  = "llama"
)

// TracingConfig configures the remote run tracer.
type TracingConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Endpoint string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	APIKey   string `json:"api_key" yaml:"api_key" toml:"api_key"`
	Project  string `json:"project" yaml:"project" toml:"project"`
}

// Config holds runtime parameters for the service.
type Config struct {
	Host      string `json:"host" yaml:"host" toml:"host"`
	Port      int    `json:"port" yaml:"port" toml:"port"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	ModelType string `json:"model_type" yaml:"model_type" toml:"model_type"`

	LLMModelName string  `json:"llm_model_name" yaml:"llm_model_name" toml:"llm_model_name"`
	VLMModelName string  `json:"vlm_model_name" yaml:"vlm_model_name" toml:"vlm_model_name"`
	Temperature  float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	MaxTokens    int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`

	FixedImageURL      string `json:"fixed_image_url" yaml:"fixed_image_url" toml:"fixed_image_url"`
	ImageFetchTimeoutS int    `json:"image_fetch_timeout_s" yaml:"image_fetch_timeout_s" toml:"image_fetch_timeout_s"`

	UseStructuredOutput bool   `json:"use_structured_output" yaml:"use_structured_output" toml:"use_structured_output"`
	ResponseSchema      string `json:"response_schema" yaml:"response_schema" toml:"response_schema"`

	Backend         string `json:"backend" yaml:"backend" toml:"backend"`
	BackendURL      string `json:"backend_url" yaml:"backend_url" toml:"backend_url"`
	BackendAPIKey   string `json:"backend_api_key" yaml:"backend_api_key" toml:"backend_api_key"`
	ModelPath       string `json:"model_path" yaml:"model_path" toml:"model_path"`
	LlamaCtx        int    `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads    int    `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`
	RequestTimeoutS int    `json:"request_timeout_s" yaml:"request_timeout_s" toml:"request_timeout_s"`

	MaxConcurrent int      `json:"max_concurrent" yaml:"max_concurrent" toml:"max_concurrent"`
	MaxWaitS      int      `json:"max_wait_s" yaml:"max_wait_s" toml:"max_wait_s"`
	MaxBodyBytes  int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSOrigins   []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	Tracing TracingConfig `json:"tracing" yaml:"tracing" toml:"tracing"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8888,
		LogLevel:           "info",
		ModelType:          ModelTypeLLM,
		LLMModelName:       "mistralai/Mistral-Small-Instruct-2409",
		VLMModelName:       "llava-hf/llava-1.5-7b-hf",
		Temperature:        0.2,
		MaxTokens:          8192,
		FixedImageURL:      "https://upload.wikimedia.org/wikipedia/commons/thumb/d/dd/Gfp-wisconsin-madison-the-nature-boardwalk.jpg/2560px-Gfp-wisconsin-madison-the-nature-boardwalk.jpg",
		ImageFetchTimeoutS: 5,
		ResponseSchema:     "detailed",
		Backend:            BackendOpenAI,
		BackendURL:         "http://127.0.0.1:8000",
		LlamaCtx:           4096,
		RequestTimeoutS:    300,
		MaxConcurrent:      4,
		MaxWaitS:           30,
		MaxBodyBytes:       8 << 20,
		Tracing: TracingConfig{
			Enabled:  true,
			Endpoint: "https://api.smith.langchain.com",
			Project:  "agent-testing-20241001",
		},
	}
}

// Load reads a configuration file over the defaults based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from environment variables using lookup
// (os.LookupEnv in production). Unset variables leave cfg untouched.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var errs []string
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = b
		}
	}

	str("HOST", &cfg.Host)
	num("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("MODEL_TYPE", &cfg.ModelType)
	str("LLM_MODEL_NAME", &cfg.LLMModelName)
	str("VLM_MODEL_NAME", &cfg.VLMModelName)
	if v, ok := lookup("TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("TEMPERATURE: %v", err))
		} else {
			cfg.Temperature = f
		}
	}
	num("MAX_TOKENS", &cfg.MaxTokens)
	str("FIXED_IMAGE_URL", &cfg.FixedImageURL)
	num("IMAGE_FETCH_TIMEOUT", &cfg.ImageFetchTimeoutS)
	flag("USE_STRUCTURED_OUTPUT", &cfg.UseStructuredOutput)
	str("RESPONSE_SCHEMA", &cfg.ResponseSchema)
	str("BACKEND", &cfg.Backend)
	str("BACKEND_URL", &cfg.BackendURL)
	str("BACKEND_API_KEY", &cfg.BackendAPIKey)
	str("MODEL_PATH", &cfg.ModelPath)
	num("MAX_CONCURRENT", &cfg.MaxConcurrent)
	if v, ok := lookup("MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("MAX_BODY_BYTES: %v", err))
		} else {
			cfg.MaxBodyBytes = n
		}
	}
	if v, ok := lookup("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = SplitCSV(v)
	}
	flag("LANGCHAIN_TRACING_V2", &cfg.Tracing.Enabled)
	str("LANGCHAIN_ENDPOINT", &cfg.Tracing.Endpoint)
	str("LANGCHAIN_API_KEY", &cfg.Tracing.APIKey)
	str("LANGCHAIN_PROJECT", &cfg.Tracing.Project)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate reports configuration that cannot be served.
func (c Config) Validate() error {
	switch strings.ToUpper(c.ModelType) {
	case ModelTypeLLM, ModelTypeVLM:
	default:
		return fmt.Errorf("invalid model_type %q: must be 'LLM' or 'VLM'", c.ModelType)
	}
	switch strings.ToLower(c.Backend) {
	case BackendOpenAI, BackendLlama:
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

// ImageFetchTimeout is the fixed image download timeout.
func (c Config) ImageFetchTimeout() time.Duration {
	return time.Duration(c.ImageFetchTimeoutS) * time.Second
}

// RequestTimeout bounds a single backend generation (0 disables).
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutS) * time.Second
}

// MaxWait bounds how long a generation waits for an admission slot.
func (c Config) MaxWait() time.Duration { return time.Duration(c.MaxWaitS) * time.Second }

// ModelName returns the model served for the configured model type.
func (c Config) ModelName() string {
	if strings.EqualFold(c.ModelType, ModelTypeVLM) {
		return c.VLMModelName
	}
	return c.LLMModelName
}

// SplitCSV splits a comma-separated list, trimming blanks and dropping empties.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
