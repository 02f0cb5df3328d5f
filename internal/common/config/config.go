// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	AWS     AWSConfig     `mapstructure:"aws"`
	Routing RoutingConfig `mapstructure:"routing"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Session SessionConfig `mapstructure:"session"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Samples SamplesConfig `mapstructure:"samples"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// AWSConfig holds the identifiers of the two answering backends.
type AWSConfig struct {
	Region string `mapstructure:"region"`

	Bedrock struct {
		KnowledgeBaseID string `mapstructure:"knowledge_base_id"`
		ModelARN        string `mapstructure:"model_arn"`
		NumberOfResults int32  `mapstructure:"number_of_results"`
		SearchMode      string `mapstructure:"search_mode"` // SEMANTIC or HYBRID
	} `mapstructure:"bedrock"`

	QBusiness struct {
		ApplicationID string `mapstructure:"application_id"`
	} `mapstructure:"qbusiness"`
}

// RoutingConfig holds the intent lexicons. The phrase lists are the routing
// vocabulary; changing them must never require a code change.
type RoutingConfig struct {
	StructuredPhrases []string `mapstructure:"structured_phrases"`
	SemanticPhrases   []string `mapstructure:"semantic_phrases"`
	ListingVerbs      []string `mapstructure:"listing_verbs"`
}

type CacheConfig struct {
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	Redis      struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
}

type SessionConfig struct {
	CarryConversationToken bool `mapstructure:"carry_conversation_token"`
}

type LimitsConfig struct {
	MaxQuestionLength int `mapstructure:"max_question_length"`
	MaxCitations      int `mapstructure:"max_citations"`
}

// SamplesConfig holds the canned questions surfaced to analysts.
type SamplesConfig struct {
	Structured []string `mapstructure:"structured"`
	Semantic   []string `mapstructure:"semantic"`
	Combined   []string `mapstructure:"combined"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
