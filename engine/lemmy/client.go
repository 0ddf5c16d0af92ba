package lemmy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/lemmylite/lemmy-lite/engine/domain"
	"github.com/lemmylite/lemmy-lite/engine/query"
	"github.com/lemmylite/lemmy-lite/pkg/fn"
)

// DefaultMaxPayload bounds a single upstream response body.
const DefaultMaxPayload int64 = 80 << 20

// DefaultUserAgent identifies the proxy to remote instances.
const DefaultUserAgent = "lemmy-lite/1.0 (+https://github.com/lemmylite/lemmy-lite)"

// Default listing orders per operation.
const (
	CommunitiesSort = domain.SortTopAll
	PersonSort      = domain.SortNew
	SearchSort      = domain.SortTopAll
	FrontPageSort   = domain.SortActive
	CommunitySort   = domain.SortHot
)

// Comment paging defaults for revisions that list comments page by page.
const (
	DefaultCommentPageSize = 50
	DefaultCommentMaxPages = 40
)

// Config holds the client settings.
type Config struct {
	Version    Version
	UserAgent  string
	MaxPayload int64
	Names      query.ParamNames

	// CommentPageSize is the limit sent on each comment list page and
	// CommentMaxPages bounds how many pages one thread may take.
	CommentPageSize int
	CommentMaxPages int
}

// DefaultConfig returns a Config for the current API revision.
func DefaultConfig() Config {
	return Config{
		Version:    V3,
		UserAgent:  DefaultUserAgent,
		MaxPayload: DefaultMaxPayload,
		Names:      query.DefaultParamNames,

		CommentPageSize: DefaultCommentPageSize,
		CommentMaxPages: DefaultCommentMaxPages,
	}
}

// Client fetches and normalizes one API revision. It holds no mutable state
// and is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	dec  Decoder
	urls query.Builder
}

// New creates a Client. The http.Client is shared and owns timeout, retry and
// rate policy through its transport.
func New(cfg Config, hc *http.Client) (*Client, error) {
	dec, err := DecoderFor(cfg.Version)
	if err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = DefaultMaxPayload
	}
	if cfg.CommentPageSize <= 0 {
		cfg.CommentPageSize = DefaultCommentPageSize
	}
	if cfg.CommentMaxPages <= 0 {
		cfg.CommentMaxPages = DefaultCommentMaxPages
	}
	urls := query.New(string(cfg.Version))
	if cfg.Names == (query.ParamNames{}) {
		cfg.Names = urls.Names
	}
	urls.Names = cfg.Names
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		cfg:  cfg,
		http: hc,
		dec:  dec,
		urls: urls,
	}, nil
}

// Version reports the API revision the client speaks.
func (c *Client) Version() Version { return c.cfg.Version }

// Communities lists communities on an instance.
func (c *Client) Communities(ctx context.Context, inst domain.Instance, p domain.PagingParams) ([]domain.Community, error) {
	ep := c.dec.Endpoints()
	u, err := c.urls.Build(inst, ep.CommunityList, query.WithPaging(p, CommunitiesSort))
	if err != nil {
		return nil, err
	}
	return fetch(ctx, c, "lemmy.communities", u, c.dec.Communities)
}

// Community fetches one community with its moderators.
func (c *Client) Community(ctx context.Context, inst domain.Instance, name string) (domain.CommunityDetail, error) {
	ep := c.dec.Endpoints()
	u, err := c.urls.Build(inst, ep.Community, query.WithParam(ep.CommunityKey, name))
	if err != nil {
		return domain.CommunityDetail{}, err
	}
	return fetch(ctx, c, "lemmy.community", u, c.dec.Community)
}

// Posts lists posts on the front page, or in one community when community is
// non-nil. defaultSort applies when p carries no sort.
func (c *Client) Posts(ctx context.Context, inst domain.Instance, community *string, p domain.PagingParams, defaultSort domain.SortKind) ([]domain.Post, error) {
	ep := c.dec.Endpoints()
	u, err := c.urls.Build(inst, ep.PostList,
		query.WithPaging(p, defaultSort),
		query.WithParam(c.cfg.Names.Type, "All"),
		query.WithCommunity(community),
	)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, c, "lemmy.posts", u, c.dec.Posts)
}

// Post fetches a single post.
func (c *Client) Post(ctx context.Context, inst domain.Instance, id int64) (domain.Post, error) {
	ep := c.dec.Endpoints()
	u, err := c.urls.Build(inst, ep.Post, query.WithParam(ep.PostKey, strconv.FormatInt(id, 10)))
	if err != nil {
		return domain.Post{}, err
	}
	return fetch(ctx, c, "lemmy.post", u, c.dec.Post)
}

// Comments fetches the flat comment list of a post in upstream order. Where
// the revision pages comment lists, pages are requested until a short page,
// a page with nothing new, or CommentMaxPages.
func (c *Client) Comments(ctx context.Context, inst domain.Instance, postID int64) ([]domain.Comment, error) {
	ep := c.dec.Endpoints()
	postParam := query.WithParam(ep.CommentPostKey, strconv.FormatInt(postID, 10))
	if ep.CommentList == ep.Post {
		u, err := c.urls.Build(inst, ep.CommentList, postParam)
		if err != nil {
			return nil, err
		}
		return fetch(ctx, c, "lemmy.comments", u, c.dec.Comments)
	}

	size := c.cfg.CommentPageSize
	seen := make(map[int64]bool)
	var all []domain.Comment
	for page := 1; page <= c.cfg.CommentMaxPages; page++ {
		u, err := c.urls.Build(inst, ep.CommentList,
			postParam,
			query.WithParam(c.cfg.Names.Sort, string(domain.SortHot)),
			query.WithParam(c.cfg.Names.Type, "All"),
			query.WithParam(c.cfg.Names.Limit, strconv.Itoa(size)),
			query.WithParam(c.cfg.Names.Page, strconv.Itoa(page)),
		)
		if err != nil {
			return nil, err
		}
		batch, err := fetch(ctx, c, "lemmy.comments", u, c.dec.Comments)
		if err != nil {
			return nil, err
		}

		fresh := 0
		for _, cm := range batch {
			if seen[cm.ID] {
				continue
			}
			seen[cm.ID] = true
			all = append(all, cm)
			fresh++
		}
		if len(batch) < size || fresh == 0 {
			break
		}
	}
	return all, nil
}

// PostDetail fetches a post and its comments concurrently. Either leg failing
// cancels the other and fails the call.
func (c *Client) PostDetail(ctx context.Context, inst domain.Instance, id int64) (domain.PostDetail, error) {
	var detail domain.PostDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.Post(gctx, inst, id)
		detail.Post = p
		return err
	})
	g.Go(func() error {
		cs, err := c.Comments(gctx, inst, id)
		detail.Comments = cs
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.PostDetail{}, err
	}
	return detail, nil
}

// Person fetches a user profile with a page of their posts and comments.
func (c *Client) Person(ctx context.Context, inst domain.Instance, name string, p domain.PagingParams) (domain.PersonDetail, error) {
	ep := c.dec.Endpoints()
	u, err := c.urls.Build(inst, ep.Person,
		query.WithParam(ep.PersonKey, name),
		query.WithPaging(p, PersonSort),
	)
	if err != nil {
		return domain.PersonDetail{}, err
	}
	return fetch(ctx, c, "lemmy.person", u, c.dec.Person)
}

// Search runs a query. The result carries the requested content type.
func (c *Client) Search(ctx context.Context, inst domain.Instance, s domain.SearchParams) (domain.SearchResult, error) {
	ep := c.dec.Endpoints()
	u, err := c.urls.Build(inst, ep.Search, query.WithSearch(s, SearchSort))
	if err != nil {
		return domain.SearchResult{}, err
	}
	res, err := fetch(ctx, c, "lemmy.search", u, c.dec.Search)
	if err != nil {
		return domain.SearchResult{}, err
	}
	res.Type = domain.TypeAll
	if s.Type != nil {
		res.Type = *s.Type
	}
	return res, nil
}

func fetch[T any](ctx context.Context, c *Client, op string, u *url.URL, decode func([]byte) (T, error)) (T, error) {
	stage := fn.TracedStage(op, func(ctx context.Context, u *url.URL) fn.Result[T] {
		body, err := c.get(ctx, u)
		if err != nil {
			return fn.Err[T](err)
		}
		return fn.FromPair(decode(body))
	}, attribute.String("lemmy.api", string(c.cfg.Version)))
	return stage(ctx, u).Unwrap()
}

// get performs one bounded GET and maps failures onto the domain errors.
func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	ctx, span := otel.Tracer("engine/lemmy").Start(ctx, "lemmy.get")
	defer span.End()
	span.SetAttributes(
		attribute.String("lemmy.host", u.Host),
		attribute.String("lemmy.path", u.Path),
	)

	body, err := c.do(ctx, u)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("lemmy.body_bytes", len(body)))
	return body, nil
}

func (c *Client) do(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, domain.MaxBodyExcerpt))
		return nil, domain.NewUpstreamError(resp.StatusCode, excerpt)
	}
	if resp.ContentLength > c.cfg.MaxPayload {
		return nil, fmt.Errorf("%w: content-length %d exceeds %d", domain.ErrPayloadTooLarge, resp.ContentLength, c.cfg.MaxPayload)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxPayload+1))
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	if int64(len(body)) > c.cfg.MaxPayload {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrPayloadTooLarge, c.cfg.MaxPayload)
	}
	return body, nil
}
