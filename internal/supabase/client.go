package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
	"pura-pata-web/internal/config"
)

type Client struct {
	Supabase *supabase.Client
	Auth     *AuthClient
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		Supabase: client,
		Auth:     NewAuthClient(client.Auth),
		Config:   cfg,
	}, nil
}
