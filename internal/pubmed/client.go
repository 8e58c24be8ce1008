package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LoganNickels654/research-assistant-service/internal/domain"
	"github.com/LoganNickels654/research-assistant-service/internal/observability"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key (3 requests/second).
	// With an API key, the limit increases to 10 requests/second.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultSearchTimeout bounds the esearch phase.
	DefaultSearchTimeout = 10 * time.Second

	// DefaultFetchTimeout bounds the efetch phase, which carries the larger payload.
	DefaultFetchTimeout = 15 * time.Second

	// MaxResultsLimit is the maximum results allowed per request by the API.
	MaxResultsLimit = 10000

	// sourceName is the human-readable name for this source.
	sourceName = "PubMed"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Email identifies the caller to NCBI, per the E-utilities usage policy.
	Email string

	// APIKey is the NCBI API key for higher rate limits.
	// Optional but recommended for production use.
	APIKey string

	// SearchTimeout bounds the esearch request.
	// Defaults to DefaultSearchTimeout if zero.
	SearchTimeout time.Duration

	// FetchTimeout bounds the efetch request.
	// Defaults to DefaultFetchTimeout if zero.
	FetchTimeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit (3 req/sec) if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// UserAgent is sent with every request.
	UserAgent string
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.SearchTimeout == 0 {
		c.SearchTimeout = DefaultSearchTimeout
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.UserAgent == "" {
		c.UserAgent = "research-assistant-service/1.0"
	}
}

// Client searches PubMed via the E-utilities API.
type Client struct {
	config      Config
	httpClient  *http.Client
	rateLimiter *RateLimiter
	metrics     *observability.Metrics
}

// New creates a new PubMed client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
	}
}

// WithMetrics attaches metrics recording to the client and returns it.
func (c *Client) WithMetrics(m *observability.Metrics) *Client {
	c.metrics = m
	return c
}

// Search queries PubMed for papers matching the given boolean query.
// It performs a two-step search:
//  1. esearch.fcgi - retrieves PMIDs matching the query, sorted by relevance
//  2. efetch.fcgi - retrieves full article metadata for the PMIDs in one batch
//
// A query that matches nothing returns an empty slice and no error.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]*domain.Paper, error) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.RecordSearchStarted()
	}

	papers, err := c.search(ctx, query, maxResults)
	if c.metrics != nil {
		if err != nil {
			c.metrics.RecordSearchFailed(time.Since(start).Seconds())
		} else {
			c.metrics.RecordSearchCompleted(len(papers), time.Since(start).Seconds())
		}
	}
	return papers, err
}

func (c *Client) search(ctx context.Context, query string, maxResults int) ([]*domain.Paper, error) {
	searchResult, err := c.esearch(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}

	// Phrases not found are not an error, just an empty result.
	if searchResult.ErrorList != nil && len(searchResult.ErrorList.PhraseNotFound) > 0 {
		return []*domain.Paper{}, nil
	}

	if len(searchResult.IDList.IDs) == 0 {
		return []*domain.Paper{}, nil
	}

	articles, err := c.efetch(ctx, searchResult.IDList.IDs)
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	papers := make([]*domain.Paper, 0, len(articles.Articles))
	for _, article := range articles.Articles {
		if paper := articleToPaper(article); paper != nil {
			papers = append(papers, paper)
		}
	}

	return papers, nil
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// esearch performs a search query and returns matching PMIDs.
func (c *Client) esearch(ctx context.Context, query string, maxResults int) (*ESearchResult, error) {
	u, err := url.Parse(c.config.BaseURL + "/esearch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if maxResults <= 0 {
		maxResults = 1
	}
	if maxResults > MaxResultsLimit {
		maxResults = MaxResultsLimit
	}

	q := u.Query()
	q.Set("db", "pubmed")
	q.Set("term", query)
	q.Set("retmax", strconv.Itoa(maxResults))
	q.Set("retmode", "xml")
	q.Set("sort", "relevance")
	c.setIdentity(q)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.config.SearchTimeout)
	defer cancel()

	var result ESearchResult
	if err := c.get(ctx, "esearch", u.String(), &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// efetch retrieves full article metadata for the given PMIDs in a single
// batched request.
func (c *Client) efetch(ctx context.Context, pmids []string) (*PubmedArticleSet, error) {
	if len(pmids) == 0 {
		return &PubmedArticleSet{}, nil
	}

	u, err := url.Parse(c.config.BaseURL + "/efetch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")
	c.setIdentity(q)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	var result PubmedArticleSet
	if err := c.get(ctx, "efetch", u.String(), &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// setIdentity adds the contact email and optional API key to the query,
// per the E-utilities usage policy.
func (c *Client) setIdentity(q url.Values) {
	if c.config.Email != "" {
		q.Set("email", c.config.Email)
	}
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
}

// get executes a rate-limited GET request and decodes the XML response into dst.
func (c *Client) get(ctx context.Context, endpoint, rawURL string, dst any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordRequestFailed(endpoint, "network")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		c.recordRequestFailed(endpoint, "read")
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.recordRequestFailed(endpoint, strconv.Itoa(resp.StatusCode))
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	if err := xml.Unmarshal(body, dst); err != nil {
		c.recordRequestFailed(endpoint, "parse")
		return fmt.Errorf("failed to parse XML response: %w", err)
	}

	if c.metrics != nil {
		c.metrics.RecordPubMedRequest(endpoint, time.Since(start).Seconds())
	}
	return nil
}

func (c *Client) recordRequestFailed(endpoint, errorType string) {
	if c.metrics != nil {
		c.metrics.RecordPubMedRequestFailed(endpoint, errorType)
	}
}

// articleToPaper converts a PubmedArticle to a domain.Paper. Missing fields
// get placeholder values so the result is always usable downstream. Records
// with neither a PMID nor a title are unusable and return nil.
func articleToPaper(article PubmedArticle) *domain.Paper {
	citation := article.MedlineCitation

	pmid := strings.TrimSpace(citation.PMID.Value)
	title := strings.TrimSpace(citation.Article.ArticleTitle)
	if pmid == "" && title == "" {
		return nil
	}

	if pmid == "" {
		pmid = domain.PlaceholderPMID
	}
	if title == "" {
		title = domain.PlaceholderTitle
	}

	abstract := extractAbstract(citation.Article.Abstract)
	if abstract == "" {
		abstract = domain.PlaceholderAbstract
	}

	journal := citation.Article.Journal.Title
	if journal == "" {
		journal = citation.Article.Journal.ISOAbbreviation
	}
	if journal == "" {
		journal = domain.PlaceholderJournal
	}

	year := extractYear(citation.Article.Journal.JournalIssue.PubDate)
	if year == "" {
		year = domain.PlaceholderYear
	}

	return &domain.Paper{
		Title:    title,
		Authors:  extractAuthors(citation.Article.AuthorList),
		Abstract: abstract,
		Journal:  journal,
		Year:     year,
		PMID:     pmid,
	}
}

// extractAbstract concatenates multiple abstract sections into a single string.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil || len(abstract.AbstractTexts) == 0 {
		return ""
	}

	// If only one section without label, return it directly
	if len(abstract.AbstractTexts) == 1 && abstract.AbstractTexts[0].Label == "" {
		return strings.TrimSpace(abstract.AbstractTexts[0].Value)
	}

	// Concatenate multiple sections with labels
	var parts []string
	for _, at := range abstract.AbstractTexts {
		text := strings.TrimSpace(at.Value)
		if text == "" {
			continue
		}
		if at.Label != "" {
			parts = append(parts, at.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " ")
}

// extractAuthors returns up to domain.MaxAuthors author names in byline order.
func extractAuthors(authorList *AuthorList) []string {
	if authorList == nil || len(authorList.Authors) == 0 {
		return nil
	}

	authors := make([]string, 0, domain.MaxAuthors)
	for _, a := range authorList.Authors {
		if len(authors) == domain.MaxAuthors {
			break
		}

		// Skip invalid authors
		if a.ValidYN == "N" {
			continue
		}

		var name string
		if a.CollectiveName != "" {
			name = a.CollectiveName
		} else {
			nameParts := make([]string, 0, 2)
			if a.ForeName != "" {
				nameParts = append(nameParts, a.ForeName)
			}
			if a.LastName != "" {
				nameParts = append(nameParts, a.LastName)
			}
			name = strings.Join(nameParts, " ")
		}

		if name == "" {
			continue
		}

		authors = append(authors, name)
	}

	return authors
}

// extractYear pulls a publication year string out of the PubDate, handling
// the MedlineDate format ("2020 Jan-Feb", "2020-2021 Winter") as a fallback.
func extractYear(pubDate PubDate) string {
	if pubDate.Year != "" {
		return pubDate.Year
	}

	if pubDate.MedlineDate != "" {
		parts := strings.Fields(pubDate.MedlineDate)
		if len(parts) > 0 {
			yearStr := strings.Split(parts[0], "-")[0]
			if _, err := strconv.Atoi(yearStr); err == nil {
				return yearStr
			}
		}
	}

	return ""
}
