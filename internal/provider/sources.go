package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/storeconnect/crm-messaging/internal/credentials"
)

const defaultTTL = 5 * time.Minute

// NewsDataProvider pulls headlines from the newsdata.io JSON API.
type NewsDataProvider struct {
	creds   credentials.Resolver
	client  *http.Client
	baseURL string
}

func NewNewsData(creds credentials.Resolver, client *http.Client) *NewsDataProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &NewsDataProvider{
		creds:   creds,
		client:  client,
		baseURL: "https://newsdata.io/api/1/latest",
	}
}

func (p *NewsDataProvider) Key() string  { return "newsdata" }
func (p *NewsDataProvider) Name() string { return "NewsData.io" }

func (p *NewsDataProvider) Enabled() bool {
	_, ok := p.creds.Get("newsdata.api_key")
	return ok
}

func (p *NewsDataProvider) TTL() time.Duration { return defaultTTL }

func (p *NewsDataProvider) Fetch(ctx context.Context, limit int) ([]Article, error) {
	apiKey, ok := p.creds.Get("newsdata.api_key")
	if !ok {
		return nil, fmt.Errorf("newsdata: no api key configured")
	}

	q := url.Values{}
	q.Set("apikey", apiKey)
	q.Set("size", strconv.Itoa(limit))

	var body struct {
		Results []struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Description string `json:"description"`
			PubDate     string `json:"pubDate"`
		} `json:"results"`
	}
	if err := p.getJSON(ctx, p.baseURL+"?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(body.Results))
	for _, r := range body.Results {
		published, _ := time.Parse("2006-01-02 15:04:05", r.PubDate)
		articles = append(articles, Article{
			Source:      p.Key(),
			Title:       r.Title,
			URL:         r.Link,
			Summary:     r.Description,
			PublishedAt: published,
		})
	}
	return articles, nil
}

func (p *NewsDataProvider) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("newsdata: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("newsdata: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GNewsProvider pulls headlines from the gnews.io JSON API.
type GNewsProvider struct {
	creds   credentials.Resolver
	client  *http.Client
	baseURL string
}

func NewGNews(creds credentials.Resolver, client *http.Client) *GNewsProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GNewsProvider{
		creds:   creds,
		client:  client,
		baseURL: "https://gnews.io/api/v4/top-headlines",
	}
}

func (p *GNewsProvider) Key() string  { return "gnews" }
func (p *GNewsProvider) Name() string { return "GNews" }

func (p *GNewsProvider) Enabled() bool {
	_, ok := p.creds.Get("gnews.api_key")
	return ok
}

func (p *GNewsProvider) TTL() time.Duration { return 10 * time.Minute }

func (p *GNewsProvider) Fetch(ctx context.Context, limit int) ([]Article, error) {
	apiKey, ok := p.creds.Get("gnews.api_key")
	if !ok {
		return nil, fmt.Errorf("gnews: no api key configured")
	}

	q := url.Values{}
	q.Set("apikey", apiKey)
	q.Set("max", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gnews: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gnews: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Articles []struct {
			Title       string    `json:"title"`
			URL         string    `json:"url"`
			Description string    `json:"description"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, Article{
			Source:      p.Key(),
			Title:       a.Title,
			URL:         a.URL,
			Summary:     a.Description,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
