package config

import "github.com/swasth-ai/swasth/internal/models"

// DefaultNoMatchMessage is returned to the user when the corpus yields no match.
const DefaultNoMatchMessage = "I apologize, but I could not find a relevant answer to your question. Please try rephrasing or ask a different health-related question."

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/swasth/data/db/faqs.db"
	}
	if cfg.Corpus.DefaultLanguage == "" {
		cfg.Corpus.DefaultLanguage = "en"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/swasth/data/models/paraphrase-multilingual-MiniLM-L12-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 128
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = models.DefaultTopK
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = models.MaxTopK
	}
	if cfg.Search.EmbedBatchSize == 0 {
		cfg.Search.EmbedBatchSize = 32
	}
	if cfg.Search.NoMatchMessage == "" {
		cfg.Search.NoMatchMessage = DefaultNoMatchMessage
	}
	if cfg.Search.Lexical.MaxFeatures == 0 {
		cfg.Search.Lexical.MaxFeatures = 5000
	}
	if cfg.Search.Lexical.NgramMin == 0 {
		cfg.Search.Lexical.NgramMin = 1
	}
	if cfg.Search.Lexical.NgramMax == 0 {
		cfg.Search.Lexical.NgramMax = 3
	}
	if cfg.Search.Lexical.StopWords == "" {
		cfg.Search.Lexical.StopWords = "english"
	}
	if cfg.RateLimit.DefaultPerMinute == 0 {
		cfg.RateLimit.DefaultPerMinute = 20
	}
	if cfg.RateLimit.DefaultPerHour == 0 {
		cfg.RateLimit.DefaultPerHour = 100
	}
	if cfg.RateLimit.QueryPerMinute == 0 {
		cfg.RateLimit.QueryPerMinute = 10
	}
	if cfg.RateLimit.ImportPerHour == 0 {
		cfg.RateLimit.ImportPerHour = 5
	}
}
