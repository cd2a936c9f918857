package conf

type Bootstrap struct {
	Server *Server `json:"server"`
	Agent  *Agent  `json:"agent"`
}

type Server struct {
	Http *HTTP `json:"http"`
}

type HTTP struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

// Agent 市场情报引擎配置，字段与 market_intel 的 config.Config 一一对应
type Agent struct {
	Llm         *LLM         `json:"llm"`
	Embedding   *Embedding   `json:"embedding"`
	Credentials *Credentials `json:"credentials"`
	Search      *Search      `json:"search"`
	Splitter    *Splitter    `json:"splitter"`
	Retrieval   *Retrieval   `json:"retrieval"`
	State       *State       `json:"state"`
	CacheDir    string       `json:"cache_dir"`
	StateDir    string       `json:"state_dir"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
}

type LLM struct {
	Provider        string  `json:"provider"`
	BaseUrl         string  `json:"base_url"`
	ApiKey          string  `json:"api_key"`
	Model           string  `json:"model"`
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"top_p"`
	MaxOutputTokens int32   `json:"max_output_tokens"`
}

type Embedding struct {
	Provider  string `json:"provider"`
	BaseUrl   string `json:"base_url"`
	ApiKey    string `json:"api_key"`
	Model     string `json:"model"`
	CacheSize int32  `json:"cache_size"`
}

type Credentials struct {
	GoogleApiKey    string `json:"google_api_key"`
	GoogleCseId     string `json:"google_cse_id"`
	NewsapiKey      string `json:"newsapi_key"`
	AlphaVantageKey string `json:"alpha_vantage_key"`
	TavilyApiKey    string `json:"tavily_api_key"`
}

type Search struct {
	Timeout          int32    `json:"timeout"`
	FetchFullContent bool     `json:"fetch_full_content"`
	Searxng          *SearXNG `json:"searxng"`
}

type SearXNG struct {
	BaseUrl string `json:"base_url"`
	Timeout int32  `json:"timeout"`
}

type Splitter struct {
	ChunkSize    int32 `json:"chunk_size"`
	ChunkOverlap int32 `json:"chunk_overlap"`
}

type Retrieval struct {
	K           int32 `json:"k"`
	RrfK        int32 `json:"rrf_k"`
	UseInPrompt bool  `json:"use_in_prompt"`
}

type State struct {
	Backend string `json:"backend"`
	Db      *DB    `json:"db"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

type DB struct {
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
