package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lemmylite/lemmy-lite/engine/domain"
	"github.com/lemmylite/lemmy-lite/engine/lemmy"
	"github.com/lemmylite/lemmy-lite/engine/thread"
	"github.com/lemmylite/lemmy-lite/pkg/fn"
)

// Form keys accepted on every listing.
const (
	keySort      = "s"
	keyPage      = "p"
	keyLimit     = "l"
	keyQuery     = "q"
	keyType      = "t"
	keyCommunity = "c"
	keyInstance  = "i"
)

// pages echoes the effective paging controls and the neighbouring pages.
type pages struct {
	Paging domain.PagingParams  `json:"paging"`
	Next   domain.PagingParams  `json:"next"`
	Prev   *domain.PagingParams `json:"prev,omitempty"`
}

func pagesFor(p domain.PagingParams) pages {
	out := pages{Paging: p, Next: p.NextPage()}
	if prev, ok := p.PrevPage(); ok {
		out.Prev = &prev
	}
	return out
}

type postView struct {
	domain.Post
	Preview domain.Preview `json:"preview"`
	Age     string         `json:"age"`
}

type postsResponse struct {
	Instance  domain.Instance `json:"instance"`
	Community string          `json:"community,omitempty"`
	Posts     []postView      `json:"posts"`
	pages
}

type communitiesResponse struct {
	Instance    domain.Instance    `json:"instance"`
	Communities []domain.Community `json:"communities"`
	pages
}

type postResponse struct {
	Instance     domain.Instance `json:"instance"`
	Post         postView        `json:"post"`
	Comments     []*thread.Node  `json:"comments"`
	CommentCount int             `json:"comment_count"`
	Highlighted  *int64          `json:"highlighted,omitempty"`
}

type personResponse struct {
	Instance domain.Instance      `json:"instance"`
	Person   domain.PersonSummary `json:"person"`
	Posts    []postView           `json:"posts"`
	Comments []domain.Comment     `json:"comments"`
	pages
}

type searchResponse struct {
	Instance domain.Instance      `json:"instance"`
	Query    string               `json:"query"`
	Results  *domain.SearchResult `json:"results"`
	pages
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	upstreams := map[string]string{}
	for host, st := range s.breakers.States() {
		upstreams[host] = st.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"api":       s.client.Version(),
		"upstreams": upstreams,
	})
}

// handleIndex redirects the instance picker form to the instance front page.
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get(keyInstance)
	if raw == "" {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "lemmy-lite",
			"usage":   "GET /?i=<instance>",
		})
		return
	}
	inst, err := domain.ParseInstance(raw)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	http.Redirect(w, r, "/"+inst.String(), http.StatusSeeOther)
}

func (s *server) handleFrontPage(w http.ResponseWriter, r *http.Request) {
	s.listPosts(w, r, nil, lemmy.FrontPageSort)
}

func (s *server) handleCommunityPosts(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "community")
	s.listPosts(w, r, &name, lemmy.CommunitySort)
}

func (s *server) listPosts(w http.ResponseWriter, r *http.Request, community *string, defaultSort domain.SortKind) {
	inst, err := instanceParam(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	p, err := pagingParams(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	posts, err := s.client.Posts(r.Context(), inst, community, p, defaultSort)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	resp := postsResponse{Instance: inst, Posts: s.postViews(posts), pages: pagesFor(p)}
	if community != nil {
		resp.Community = *community
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleCommunities(w http.ResponseWriter, r *http.Request) {
	inst, err := instanceParam(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	p, err := pagingParams(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	cs, err := s.client.Communities(r.Context(), inst, p)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, communitiesResponse{Instance: inst, Communities: cs, pages: pagesFor(p)})
}

func (s *server) handleCommunity(w http.ResponseWriter, r *http.Request) {
	inst, err := instanceParam(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	detail, err := s.client.Community(r.Context(), inst, chi.URLParam(r, "community"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *server) handlePost(w http.ResponseWriter, r *http.Request) {
	s.postThread(w, r, nil)
}

func (s *server) handleComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "commentID")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	s.postThread(w, r, &id)
}

// postThread renders a post with its full comment tree, or with the tree
// pruned to one highlighted comment's ancestry and replies.
func (s *server) postThread(w http.ResponseWriter, r *http.Request, highlight *int64) {
	inst, err := instanceParam(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	postID, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	detail, err := s.client.PostDetail(r.Context(), inst, postID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	var forest []*thread.Node
	if highlight == nil {
		forest = thread.Build(detail.Comments, nil)
	} else if forest, err = thread.BuildHighlighted(detail.Comments, *highlight); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if forest == nil {
		forest = []*thread.Node{}
	}

	writeJSON(w, http.StatusOK, postResponse{
		Instance:     inst,
		Post:         s.postView(detail.Post),
		Comments:     forest,
		CommentCount: thread.Count(forest),
		Highlighted:  highlight,
	})
}

func (s *server) handlePerson(w http.ResponseWriter, r *http.Request) {
	inst, err := instanceParam(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	p, err := pagingParams(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	detail, err := s.client.Person(r.Context(), inst, chi.URLParam(r, "name"), p)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, personResponse{
		Instance: inst,
		Person:   detail.Person,
		Posts:    s.postViews(detail.Posts),
		Comments: detail.Comments,
		pages:    pagesFor(p),
	})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	inst, err := instanceParam(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	sp, err := searchParams(r)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}

	resp := searchResponse{Instance: inst, pages: pagesFor(sp.ToPagingParams())}
	if sp.Query == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Query = *sp.Query

	res, err := s.client.Search(r.Context(), inst, sp)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	resp.Results = &res
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) postView(p domain.Post) postView {
	return postView{Post: p, Preview: p.Preview(), Age: domain.Age(s.now(), p.Published)}
}

func (s *server) postViews(posts []domain.Post) []postView {
	return fn.Map(posts, s.postView)
}

func instanceParam(r *http.Request) (domain.Instance, error) {
	return domain.ParseInstance(chi.URLParam(r, "instance"))
}

func idParam(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewParamError(key, raw)
	}
	return id, nil
}

func pagingParams(r *http.Request) (domain.PagingParams, error) {
	q := r.URL.Query()
	var p domain.PagingParams
	if v := q.Get(keySort); v != "" {
		sort, err := domain.ParseSort(v)
		if err != nil {
			return p, err
		}
		p.Sort = &sort
	}
	if v := q.Get(keyPage); v != "" {
		n, err := domain.ParsePositive("page", v)
		if err != nil {
			return p, err
		}
		p.Page = &n
	}
	if v := q.Get(keyLimit); v != "" {
		n, err := domain.ParsePositive("limit", v)
		if err != nil {
			return p, err
		}
		p.Limit = &n
	}
	return p, nil
}

// searchParams reads the search form. A blank query means no search.
func searchParams(r *http.Request) (domain.SearchParams, error) {
	p, err := pagingParams(r)
	if err != nil {
		return domain.SearchParams{}, err
	}
	q := r.URL.Query()
	sp := domain.SearchParams{PagingParams: p}
	if v := q.Get(keyQuery); v != "" {
		sp.Query = &v
	}
	if v := q.Get(keyType); v != "" {
		t, err := domain.ParseContentType(v)
		if err != nil {
			return domain.SearchParams{}, err
		}
		sp.Type = &t
	}
	if v := q.Get(keyCommunity); v != "" {
		sp.CommunityName = &v
	}
	return sp, nil
}
