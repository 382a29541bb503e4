package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/sift/data/db/chunks.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/sift/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/sift/data/indices/vectors.bin"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Chunk.CodeTokens == 0 {
		cfg.Chunk.CodeTokens = 512
	}
	if cfg.Chunk.TextTokens == 0 {
		cfg.Chunk.TextTokens = 384
	}
	if cfg.Chunk.OverlapTokens == 0 {
		cfg.Chunk.OverlapTokens = 50
	}
	if cfg.Hybrid.KVector == 0 {
		cfg.Hybrid.KVector = 50
	}
	if cfg.Hybrid.KBM25 == 0 {
		cfg.Hybrid.KBM25 = 50
	}
	if cfg.Hybrid.KFinal == 0 {
		cfg.Hybrid.KFinal = 20
	}
	if cfg.Hybrid.VectorWeight == 0 {
		cfg.Hybrid.VectorWeight = 0.6
	}
	if cfg.Hybrid.BM25Weight == 0 {
		cfg.Hybrid.BM25Weight = 0.4
	}
	if cfg.Optimizer.MaxTokens == 0 {
		cfg.Optimizer.MaxTokens = 4000
	}
	if cfg.Optimizer.PreserveTopN == 0 {
		cfg.Optimizer.PreserveTopN = 3
	}
	if cfg.Optimizer.RelevanceWeight == 0 {
		cfg.Optimizer.RelevanceWeight = 0.7
	}
	if cfg.Optimizer.ImportanceWeight == 0 {
		cfg.Optimizer.ImportanceWeight = 0.3
	}
	if cfg.Optimizer.MinUsefulTokens == 0 {
		cfg.Optimizer.MinUsefulTokens = 50
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Watch.DebounceSeconds == 0 {
		cfg.Watch.DebounceSeconds = 5
	}
	if cfg.Watch.MaxFileSizeMB == 0 {
		cfg.Watch.MaxFileSizeMB = 4
	}
	if cfg.Watch.AllowExtensions == nil {
		cfg.Watch.AllowExtensions = []string{
			".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".rb", ".rs",
			".c", ".h", ".cpp", ".cs", ".php", ".kt", ".swift", ".scala",
			".sh", ".sql", ".md", ".rst", ".txt", ".yaml", ".yml", ".json", ".toml",
		}
	}
	if cfg.Watch.IgnoreGlobs == nil {
		cfg.Watch.IgnoreGlobs = []string{
			".git/", "node_modules/", "vendor/", "*.min.js", "dist/", "build/",
		}
	}
	if cfg.Jobs.Executor == "" {
		cfg.Jobs.Executor = "inline"
	}
	if cfg.Jobs.History == 0 {
		cfg.Jobs.History = 100
	}
}
