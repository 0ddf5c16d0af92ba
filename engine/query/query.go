// Package query builds fully qualified upstream API URLs from an instance, an
// endpoint name and typed paging/search controls.
package query

import (
	"net/url"
	"strconv"

	"github.com/lemmylite/lemmy-lite/engine/domain"
)

// ParamNames maps each control to the query parameter name the upstream
// revision expects.
type ParamNames struct {
	Sort          string
	Page          string
	Limit         string
	Query         string
	Type          string
	CommunityName string
}

// DefaultParamNames are the names used by every known API revision.
var DefaultParamNames = ParamNames{
	Sort:          "sort",
	Page:          "page",
	Limit:         "limit",
	Query:         "q",
	Type:          "type_",
	CommunityName: "community_name",
}

// Builder produces https://{instance}/api/{version}/{endpoint}?{query} URLs.
// It is a value type and safe to share.
type Builder struct {
	Version string
	Names   ParamNames
}

// New creates a Builder for the given API version with the default names.
func New(version string) Builder {
	return Builder{Version: version, Names: DefaultParamNames}
}

// Option adds query parameters to a URL being built.
type Option func(b Builder, v url.Values) error

// WithPaging encodes sort, page and limit. defaultSort is sent when p has no sort.
func WithPaging(p domain.PagingParams, defaultSort domain.SortKind) Option {
	return func(b Builder, v url.Values) error {
		if err := p.Validate(); err != nil {
			return err
		}
		sort := defaultSort
		if p.Sort != nil {
			sort = *p.Sort
		}
		if !sort.Valid() {
			return domain.NewParamError("sort", string(sort))
		}
		v.Set(b.Names.Sort, string(sort))
		if p.Page != nil {
			v.Set(b.Names.Page, strconv.Itoa(*p.Page))
		}
		if p.Limit != nil {
			v.Set(b.Names.Limit, strconv.Itoa(*p.Limit))
		}
		return nil
	}
}

// WithSearch encodes the paging subset plus query, content type and community.
// The content type defaults to All so the upstream echo is always populated.
func WithSearch(s domain.SearchParams, defaultSort domain.SortKind) Option {
	return func(b Builder, v url.Values) error {
		if err := s.Validate(); err != nil {
			return err
		}
		if err := WithPaging(s.ToPagingParams(), defaultSort)(b, v); err != nil {
			return err
		}
		if s.Query != nil {
			v.Set(b.Names.Query, *s.Query)
		}
		typ := domain.TypeAll
		if s.Type != nil {
			typ = *s.Type
		}
		v.Set(b.Names.Type, string(typ))
		if s.CommunityName != nil && *s.CommunityName != "" {
			v.Set(b.Names.CommunityName, *s.CommunityName)
		}
		return nil
	}
}

// WithParam sets a single raw parameter such as an entity id.
func WithParam(key, value string) Option {
	return func(_ Builder, v url.Values) error {
		v.Set(key, value)
		return nil
	}
}

// WithCommunity scopes a listing to one community when name is non-nil.
func WithCommunity(name *string) Option {
	return func(b Builder, v url.Values) error {
		if name != nil && *name != "" {
			v.Set(b.Names.CommunityName, *name)
		}
		return nil
	}
}

// Build validates the instance and assembles the URL. No I/O happens here.
func (b Builder) Build(inst domain.Instance, endpoint string, opts ...Option) (*url.URL, error) {
	host, err := domain.ParseInstance(string(inst))
	if err != nil {
		return nil, err
	}

	v := url.Values{}
	for _, opt := range opts {
		if err := opt(b, v); err != nil {
			return nil, err
		}
	}

	return &url.URL{
		Scheme:   "https",
		Host:     string(host),
		Path:     "/api/" + b.Version + "/" + endpoint,
		RawQuery: v.Encode(),
	}, nil
}
