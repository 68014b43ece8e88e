package configs

import (
	"os"

	"gopkg.in/yaml.v3"
)

// JWTConfig JWT签发与校验配置
type JWTConfig struct {
	Key         string `yaml:"key" json:"key"`
	Issuer      string `yaml:"issuer" json:"issuer"`
	ExpiryHours int    `yaml:"expiry_hours" json:"expiry_hours"` // token有效期(小时)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`         // Redis地址
	Password string `yaml:"password" json:"password"` // Redis密码
	DB       int    `yaml:"db" json:"db"`             // Redis数据库
	Service  string `yaml:"service" json:"service"`   // Redis服务名称
}

// DBConfig 数据库配置
type DBConfig struct {
	Dialect string `yaml:"dialect" json:"dialect"` // 数据库类型，可选：postgres/sqlite
	DSN     string `yaml:"dsn" json:"dsn"`         // 数据库连接字符串
}

// LLMConfig 生成模型配置
type LLMConfig struct {
	Type        string  `yaml:"type"        json:"type"`        // 提供商类型，目前仅 gemini
	ModelName   string  `yaml:"model_name"  json:"model_name"`  // 模型名称
	APIKey      string  `yaml:"api_key"     json:"api_key"`     // API密钥
	Temperature float64 `yaml:"temperature" json:"temperature"` // 温度参数
}

// ChatConfig 聊天助手配置
type ChatConfig struct {
	HistoryLimit    int    `yaml:"history_limit"    json:"history_limit"`    // 上下文携带的历史消息条数
	GenerateTimeout string `yaml:"generate_timeout" json:"generate_timeout"` // 生成调用超时，如 "30s"
	SystemPrompt    string `yaml:"system_prompt"    json:"system_prompt"`    // 系统指令（不落库）
	Greeting        string `yaml:"greeting"         json:"greeting"`         // 固定的助手确认回合
}

// Config 主配置结构
type Config struct {
	Server struct {
		IP   string `yaml:"ip" json:"ip"`
		Port int    `yaml:"port" json:"port"`
	} `yaml:"server" json:"server"`

	// JWT认证配置
	JWT JWTConfig `yaml:"jwt" json:"jwt"`

	// Redis缓存配置
	RedisCache RedisConfig `yaml:"redis_cache" json:"redis_cache"`

	// 数据库配置
	DB DBConfig `yaml:"db" json:"db"`

	// 生成模型配置
	LLM LLMConfig `yaml:"llm" json:"llm"`

	// 聊天助手配置
	Chat ChatConfig `yaml:"chat" json:"chat"`

	Log struct {
		LogLevel string `yaml:"log_level" json:"log_level"`
		LogDir   string `yaml:"log_dir" json:"log_dir"`
		LogFile  string `yaml:"log_file" json:"log_file"`
	} `yaml:"log" json:"log"`

	DialogStorage string `yaml:"dialogStorage" json:"dialogStorage"` // 对话存储类型，可选：postgres/redis
	PasswordSalt  string `yaml:"password_salt" json:"password_salt"` // 密码哈希盐
}

var (
	Cfg *Config
)

func (cfg *Config) ToString() string {
	data, _ := yaml.Marshal(cfg)
	return string(data)
}

func (cfg *Config) FromString(data string) error {
	return yaml.Unmarshal([]byte(data), cfg)
}

func (cfg *Config) setDefaults() {
	cfg.Server.IP = "0.0.0.0"
	cfg.Server.Port = 8080

	cfg.JWT.Issuer = "bunda-ai-server"
	cfg.JWT.ExpiryHours = 24

	cfg.DB.Dialect = "sqlite"
	cfg.DB.DSN = "bunda.db"

	cfg.DialogStorage = "postgres"

	cfg.LLM.Type = "gemini"
	cfg.LLM.ModelName = "gemini-2.0-flash"
	cfg.LLM.Temperature = 0.5

	cfg.Chat.HistoryLimit = 10
	cfg.Chat.GenerateTimeout = "60s"
	cfg.Chat.SystemPrompt = DefaultSystemPrompt
	cfg.Chat.Greeting = DefaultGreeting

	cfg.Log.LogDir = "logs"
	cfg.Log.LogLevel = "INFO"
	cfg.Log.LogFile = "server.log"
}

// 从config.yaml加载
func LoadConfig() (*Config, string, error) {
	config := &Config{}
	path := "config.yaml"

	data, err := os.ReadFile(path)
	if err != nil {
		// 读取配置文件失败，使用默认配置
		config.setDefaults()
	} else {
		config.setDefaults()
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, path, err
		}
	}

	Cfg = config
	return config, path, nil
}
