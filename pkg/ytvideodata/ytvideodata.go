// Package ytvideodata looks up display data of YouTube videos.
package ytvideodata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrVideoNotFound      = errors.New("video not found")
	ErrVideoNotEmbeddable = errors.New("video is not embeddable")
)

type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

type Config struct {
	// defaults to https://www.youtube.com
	OEmbedBaseURL string
	// defaults to https://youtu.be
	PageBaseURL string
	Timeout     time.Duration
}

type Client struct {
	httpClient    *http.Client
	oembedBaseURL string
	pageBaseURL   string
}

func New(cfg *Config) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		oembedBaseURL: cfg.OEmbedBaseURL,
		pageBaseURL:   cfg.PageBaseURL,
	}
	if c.oembedBaseURL == "" {
		c.oembedBaseURL = "https://www.youtube.com"
	}
	if c.pageBaseURL == "" {
		c.pageBaseURL = "https://youtu.be"
	}

	return c
}

// Get asks the oEmbed endpoint first and scrapes the watch page for videos
// that cannot be embedded.
func (c *Client) Get(ctx context.Context, videoId string) (*VideoData, error) {
	videoData, err := c.getWithEmbed(ctx, videoId)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoId)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return videoData, nil
}
