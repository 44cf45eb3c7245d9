package app

import (
	"fmt"

	"github.com/mcao2/truthguard/internal/analysis"
	"github.com/mcao2/truthguard/internal/config"
	"github.com/mcao2/truthguard/internal/history"
)

// NewClient builds the analysis client described by llm
func NewClient(llm config.LLMConfig, opts ...analysis.Option) (*analysis.Client, error) {
	base := []analysis.Option{
		analysis.WithBaseURL(llm.BaseURL),
		analysis.WithModel(llm.Model),
		analysis.WithAPIFormat(llm.APIFormat),
	}
	client, err := analysis.NewClient(llm.Provider, llm.APIKey, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// OpenHistory opens the configured history store
func OpenHistory(cfg *config.Config) (*history.Store, error) {
	dir, err := cfg.StorageDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
	}
	storage, err := history.OpenStorage(cfg.Storage.Driver, dir)
	if err != nil {
		return nil, err
	}
	return history.Open(storage), nil
}
