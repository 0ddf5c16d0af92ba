// Package lemmy talks to remote Lemmy instances and normalizes every supported
// API revision into the domain model.
package lemmy

import (
	"fmt"

	"github.com/lemmylite/lemmy-lite/engine/domain"
)

// Version names an upstream API revision.
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
	V3 Version = "v3"
)

// Endpoints maps each operation to its path under /api/{version}/ and the
// query key carrying its identifier.
type Endpoints struct {
	CommunityList string
	Community     string
	PostList      string
	Post          string
	CommentList   string
	Person        string
	Search        string

	CommunityKey   string
	PostKey        string
	CommentPostKey string
	PersonKey      string
}

// Decoder converts raw upstream responses of one API revision into domain
// values. Implementations are stateless and safe for concurrent use.
type Decoder interface {
	Version() Version
	Endpoints() Endpoints
	Communities(body []byte) ([]domain.Community, error)
	Community(body []byte) (domain.CommunityDetail, error)
	Posts(body []byte) ([]domain.Post, error)
	Post(body []byte) (domain.Post, error)
	Comments(body []byte) ([]domain.Comment, error)
	Person(body []byte) (domain.PersonDetail, error)
	Search(body []byte) (domain.SearchResult, error)
}

// DecoderFor returns the decoder for version v.
func DecoderFor(v Version) (Decoder, error) {
	switch v {
	case V1:
		return flatDecoder{version: V1, endpoints: v1Endpoints, names: v1Names}, nil
	case V2:
		return flatDecoder{version: V2, endpoints: v2Endpoints, names: v2Names}, nil
	case V3:
		return nestedDecoder{}, nil
	default:
		return nil, fmt.Errorf("lemmy: unsupported api version %q", v)
	}
}

// ParseVersion validates a configured version string.
func ParseVersion(s string) (Version, error) {
	v := Version(s)
	if _, err := DecoderFor(v); err != nil {
		return "", err
	}
	return v, nil
}

func decodeSearch(body []byte, entity string, communities, posts, comments, persons []string,
	community func([]byte) (domain.Community, error),
	post func([]byte) (domain.Post, error),
	comment func([]byte) (domain.Comment, error),
	person func([]byte) (domain.PersonSummary, error),
) (domain.SearchResult, error) {
	o, err := parseObject(entity, body)
	if err != nil {
		return domain.SearchResult{}, err
	}
	var res domain.SearchResult
	if res.Communities, err = decodeList(o, community, communities...); err != nil {
		return domain.SearchResult{}, err
	}
	if res.Posts, err = decodeList(o, post, posts...); err != nil {
		return domain.SearchResult{}, err
	}
	if res.Comments, err = decodeList(o, comment, comments...); err != nil {
		return domain.SearchResult{}, err
	}
	if res.Persons, err = decodeList(o, person, persons...); err != nil {
		return domain.SearchResult{}, err
	}
	return res, nil
}
