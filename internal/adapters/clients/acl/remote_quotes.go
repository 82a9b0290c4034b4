package acl

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
)

const (
	postsPath = "/posts"

	// defaultBatchSize mirrors the feed's historical _limit=5.
	defaultBatchSize = 5

	// pushUserID is the author id attached to pushed posts.
	pushUserID = 1
)

// RemoteQuoteConfig configures a RemoteQuoteClient.
type RemoteQuoteConfig struct {
	// Client must have its BaseURL pointed at the feed.
	Client *clients.Client

	// ServiceName overrides the client's name in errors and health output.
	ServiceName string

	// BatchSize is the number of posts requested per fetch.
	BatchSize int

	// UseRemoteIDs keys fetched quotes by the post id instead of their text.
	UseRemoteIDs bool

	Logger *slog.Logger
}

// RemoteQuoteClient reads quotes from and publishes quotes to a
// jsonplaceholder-style posts feed. It implements ports.RemoteSource and
// ports.HealthChecker.
type RemoteQuoteClient struct {
	BaseAdapter

	batchSize    int
	useRemoteIDs bool
	logger       *slog.Logger
}

// NewRemoteQuoteClient creates a RemoteQuoteClient.
// Panics if Client is nil.
func NewRemoteQuoteClient(cfg RemoteQuoteConfig) *RemoteQuoteClient {
	if cfg.Client == nil {
		panic("RemoteQuoteClient: Client is required")
	}

	name := cfg.ServiceName
	if name == "" {
		name = cfg.Client.ServiceName()
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RemoteQuoteClient{
		BaseAdapter:  NewBaseAdapter(cfg.Client, name),
		batchSize:    batch,
		useRemoteIDs: cfg.UseRemoteIDs,
		logger:       logger.With(slog.String("component", "acl.RemoteQuoteClient")),
	}
}

// postDTO is the feed's post representation.
type postDTO struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// FetchBatch retrieves the first BatchSize posts and maps each title to a
// quote in the remote category. Posts with blank titles are passed through
// so the reconciler can count them as skipped.
func (c *RemoteQuoteClient) FetchBatch(ctx context.Context) ([]domain.Quote, error) {
	path := fmt.Sprintf("%s?_limit=%d", postsPath, c.batchSize)
	c.logger.Log(ctx, logging.LevelTrace, "fetching remote batch", slog.String("path", path))

	body, err := c.Get(ctx, path, "fetch batch")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponse[[]postDTO](body)
	if err != nil {
		return nil, domain.NewUnavailableError(c.ServiceName(), err.Error())
	}

	quotes, errs := TranslateSlice(posts, c.translate)
	for _, e := range errs {
		logging.FromContext(ctx).Warn("dropping remote post", slog.Any("error", e))
	}

	c.logger.Log(ctx, logging.LevelTrace, "translated remote batch",
		slog.Int("posts", len(posts)),
		slog.Int("quotes", len(quotes)),
	)

	return quotes, nil
}

func (c *RemoteQuoteClient) translate(p *postDTO) (domain.Quote, error) {
	q := domain.Quote{Text: p.Title, Category: domain.RemoteCategory}

	if c.useRemoteIDs {
		if err := ValidatePositive(p.ID, "id"); err != nil {
			return domain.Quote{}, err
		}

		q.ID = strconv.Itoa(p.ID)
	}

	return q.Normalize(), nil
}

// PushQuote publishes q as a new post. The feed echoes the post back with an
// assigned id, which is discarded.
func (c *RemoteQuoteClient) PushQuote(ctx context.Context, q domain.Quote) error {
	post := postDTO{UserID: pushUserID, Title: q.Text, Body: q.Category}

	if q.ID != "" {
		if id, err := strconv.Atoi(q.ID); err == nil {
			post.ID = id
		}
	}

	body, err := c.PostJSON(ctx, postsPath, post, "push quote")
	if err != nil {
		return err
	}

	_ = body.Close()

	return nil
}

// Name implements ports.HealthChecker.
func (c *RemoteQuoteClient) Name() string {
	return c.ServiceName()
}

// Check reports the feed unhealthy while the breaker is open, and otherwise
// probes it with a single-post fetch.
func (c *RemoteQuoteClient) Check(ctx context.Context) error {
	if c.Client().CircuitState() == clients.StateOpen {
		return domain.NewUnavailableError(c.ServiceName(), "circuit breaker open")
	}

	body, err := c.Get(ctx, postsPath+"?_limit=1", "health check")
	if err != nil {
		return err
	}

	return body.Close()
}
