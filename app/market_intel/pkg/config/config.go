package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Credentials Credentials       `yaml:"credentials"`
	Search      SearchConfig      `yaml:"search"`
	Splitter    SplitterConfig    `yaml:"splitter"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	State       StateConfig       `yaml:"state"`
	CacheDir    string            `yaml:"cache_dir"`
	StateDir    string            `yaml:"state_dir"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
}

// LLMConfig LLM 相关配置
//
// Provider 为空时自动选择：配置了 Google key 则使用 gemini，
// 配置了 APIKey 则使用 openai 兼容接口，否则退化为 mock。
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // gemini / openai / mock
	BaseURL         string  `yaml:"base_url"`
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	TopP            float32 `yaml:"top_p"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// EmbeddingConfig 向量化模型配置，Provider 规则与 LLMConfig 相同
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	CacheSize int    `yaml:"cache_size"`
}

// Credentials 各外部服务的凭证，均为可选
type Credentials struct {
	GoogleAPIKey    string `yaml:"google_api_key"`
	GoogleCSEID     string `yaml:"google_cse_id"`
	NewsAPIKey      string `yaml:"newsapi_key"`
	AlphaVantageKey string `yaml:"alpha_vantage_key"`
	TavilyAPIKey    string `yaml:"tavily_api_key"`
}

// SearchConfig 搜索相关配置
type SearchConfig struct {
	Timeout          int           `yaml:"timeout"` // 秒
	FetchFullContent bool          `yaml:"fetch_full_content"`
	SearXNG          SearXNGConfig `yaml:"searxng"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// SplitterConfig 文本切分配置
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig 混合检索配置
type RetrievalConfig struct {
	K           int  `yaml:"k"`
	RRFK        int  `yaml:"rrf_k"`
	UseInPrompt bool `yaml:"use_in_prompt"`
}

// StateConfig 状态存储配置
type StateConfig struct {
	Backend string   `yaml:"backend"` // file / badger / postgres
	DB      DBConfig `yaml:"db"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DSN 返回 lib/pq 连接串
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig LLM 调用限流配置，RPM 为 0 表示不限流
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

const (
	BackendFile     = "file"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// Default 返回带默认值的配置
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Complete(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Complete 补齐默认值并校验，用于代码中直接构造的配置
func (c *Config) Complete() error {
	c.setDefaults()
	return c.Validate()
}

func (c *Config) setDefaults() {
	if c.CacheDir == "" {
		c.CacheDir = "./cache"
	}
	if c.StateDir == "" {
		c.StateDir = "./state"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.2
	}
	if c.LLM.TopP == 0 {
		c.LLM.TopP = 0.95
	}
	if c.LLM.MaxOutputTokens == 0 {
		c.LLM.MaxOutputTokens = 4096
	}
	if c.Search.Timeout == 0 {
		c.Search.Timeout = 30
	}
	if c.Splitter.ChunkSize == 0 {
		c.Splitter.ChunkSize = 1000
	}
	if c.Splitter.ChunkOverlap == 0 {
		c.Splitter.ChunkOverlap = 200
	}
	if c.Retrieval.K == 0 {
		c.Retrieval.K = 5
	}
	if c.Retrieval.RRFK == 0 {
		c.Retrieval.RRFK = 60
	}
	if c.State.Backend == "" {
		c.State.Backend = BackendFile
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "market_intelligence_agent.log"
	}
}

// ApplyEnv 用环境变量补齐未配置的凭证
func (c *Config) ApplyEnv() {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&c.Credentials.GoogleAPIKey, "GOOGLE_API_KEY")
	fill(&c.Credentials.GoogleCSEID, "GOOGLE_CSE_ID")
	fill(&c.Credentials.NewsAPIKey, "NEWSAPI_KEY")
	fill(&c.Credentials.AlphaVantageKey, "ALPHA_VANTAGE_KEY")
	fill(&c.Credentials.TavilyAPIKey, "TAVILY_API_KEY")
	fill(&c.LLM.APIKey, "LLM_API_KEY")
	fill(&c.Search.SearXNG.BaseURL, "SEARXNG_BASE_URL")
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch strings.ToLower(c.State.Backend) {
	case BackendFile, BackendBadger:
	case BackendPostgres:
		if c.State.DB.Host == "" {
			return fmt.Errorf("state backend postgres requires db.host")
		}
	default:
		return fmt.Errorf("unknown state backend: %s", c.State.Backend)
	}
	if c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Splitter.ChunkOverlap, c.Splitter.ChunkSize)
	}
	return nil
}
