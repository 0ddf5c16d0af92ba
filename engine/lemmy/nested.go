package lemmy

import (
	"github.com/lemmylite/lemmy-lite/engine/domain"
)

var v3Endpoints = Endpoints{
	CommunityList:  "community/list",
	Community:      "community",
	PostList:       "post/list",
	Post:           "post",
	CommentList:    "comment/list",
	Person:         "user",
	Search:         "search",
	CommunityKey:   "name",
	PostKey:        "id",
	CommentPostKey: "post_id",
	PersonKey:      "username",
}

// nestedDecoder handles the v3 revision: each view nests the entity, its
// creator, its community and an aggregate counts object, and comment
// ancestry is carried by a materialized path.
type nestedDecoder struct{}

func (nestedDecoder) Version() Version     { return V3 }
func (nestedDecoder) Endpoints() Endpoints { return v3Endpoints }

func (d nestedDecoder) Communities(body []byte) ([]domain.Community, error) {
	o, err := parseObject("community_list", body)
	if err != nil {
		return nil, err
	}
	return decodeList(o, d.communityView, "communities")
}

func (d nestedDecoder) Community(body []byte) (domain.CommunityDetail, error) {
	o, err := parseObject("community_response", body)
	if err != nil {
		return domain.CommunityDetail{}, err
	}
	raw, _, ok := o.lookup([]string{"community_view"})
	if !ok {
		return domain.CommunityDetail{}, o.fail([]string{"community_view"}, errMissing)
	}

	var detail domain.CommunityDetail
	if detail.Community, err = d.communityView(raw); err != nil {
		return domain.CommunityDetail{}, err
	}
	if detail.Moderators, err = decodeList(o, d.moderatorView, "moderators"); err != nil {
		return domain.CommunityDetail{}, err
	}
	if detail.Admins, err = decodeList(o, d.personView, "admins"); err != nil {
		return domain.CommunityDetail{}, err
	}
	if detail.Online, err = o.count("online"); err != nil {
		return domain.CommunityDetail{}, err
	}
	return detail, nil
}

func (d nestedDecoder) Posts(body []byte) ([]domain.Post, error) {
	o, err := parseObject("post_list", body)
	if err != nil {
		return nil, err
	}
	return decodeList(o, d.postView, "posts")
}

func (d nestedDecoder) Post(body []byte) (domain.Post, error) {
	o, err := parseObject("post_response", body)
	if err != nil {
		return domain.Post{}, err
	}
	raw, _, ok := o.lookup([]string{"post_view"})
	if !ok {
		return domain.Post{}, o.fail([]string{"post_view"}, errMissing)
	}
	return d.postView(raw)
}

func (d nestedDecoder) Comments(body []byte) ([]domain.Comment, error) {
	o, err := parseObject("comment_list", body)
	if err != nil {
		return nil, err
	}
	return decodeList(o, d.commentView, "comments")
}

func (d nestedDecoder) Person(body []byte) (domain.PersonDetail, error) {
	o, err := parseObject("person_response", body)
	if err != nil {
		return domain.PersonDetail{}, err
	}
	raw, _, ok := o.lookup([]string{"person_view"})
	if !ok {
		return domain.PersonDetail{}, o.fail([]string{"person_view"}, errMissing)
	}

	var detail domain.PersonDetail
	if detail.Person, err = d.personView(raw); err != nil {
		return domain.PersonDetail{}, err
	}
	if detail.Posts, err = decodeList(o, d.postView, "posts"); err != nil {
		return domain.PersonDetail{}, err
	}
	if detail.Comments, err = decodeList(o, d.commentView, "comments"); err != nil {
		return domain.PersonDetail{}, err
	}
	return detail, nil
}

func (d nestedDecoder) Search(body []byte) (domain.SearchResult, error) {
	return decodeSearch(body, "search_response",
		[]string{"communities"}, []string{"posts"}, []string{"comments"}, []string{"users"},
		d.communityView, d.postView, d.commentView, d.personView)
}

func (nestedDecoder) communityView(raw []byte) (domain.Community, error) {
	view, err := parseObject("community_view", raw)
	if err != nil {
		return domain.Community{}, err
	}
	co, err := view.object("community", "community")
	if err != nil {
		return domain.Community{}, err
	}
	counts, err := view.object("community_counts", "counts")
	if err != nil {
		return domain.Community{}, err
	}

	var c domain.Community
	if c.ID, err = co.int("id"); err != nil {
		return domain.Community{}, err
	}
	if c.Name, err = co.string("name"); err != nil {
		return domain.Community{}, err
	}
	if c.Title, err = co.string("title"); err != nil {
		return domain.Community{}, err
	}
	if c.Description, err = co.optString("description"); err != nil {
		return domain.Community{}, err
	}
	if c.SubscriberCount, err = counts.count("subscribers"); err != nil {
		return domain.Community{}, err
	}
	if c.PostCount, err = counts.count("posts"); err != nil {
		return domain.Community{}, err
	}
	if c.CommentCount, err = counts.count("comments"); err != nil {
		return domain.Community{}, err
	}
	if c.HotRank, err = counts.rank("hot_rank"); err != nil {
		return domain.Community{}, err
	}
	return c, nil
}

func (nestedDecoder) postView(raw []byte) (domain.Post, error) {
	view, err := parseObject("post_view", raw)
	if err != nil {
		return domain.Post{}, err
	}
	po, err := view.object("post", "post")
	if err != nil {
		return domain.Post{}, err
	}
	creator, err := view.object("creator", "creator")
	if err != nil {
		return domain.Post{}, err
	}
	community, err := view.object("community", "community")
	if err != nil {
		return domain.Post{}, err
	}
	counts, err := view.object("post_counts", "counts")
	if err != nil {
		return domain.Post{}, err
	}

	var p domain.Post
	if p.ID, err = po.int("id"); err != nil {
		return domain.Post{}, err
	}
	if p.Name, err = po.string("name"); err != nil {
		return domain.Post{}, err
	}
	if p.URL, err = po.optString("url"); err != nil {
		return domain.Post{}, err
	}
	if p.Body, err = po.optString("body"); err != nil {
		return domain.Post{}, err
	}
	if p.CreatorID, err = po.int("creator_id"); err != nil {
		return domain.Post{}, err
	}
	if p.CreatorName, err = creator.string("name"); err != nil {
		return domain.Post{}, err
	}
	if p.CommunityName, err = community.string("name"); err != nil {
		return domain.Post{}, err
	}
	if p.Published, err = po.time("published"); err != nil {
		return domain.Post{}, err
	}
	if p.Stickied, err = po.bool("featured_community", "stickied"); err != nil {
		return domain.Post{}, err
	}
	if p.CommentCount, err = counts.count("comments"); err != nil {
		return domain.Post{}, err
	}
	if p.Votes, err = votes(counts); err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

func (nestedDecoder) commentView(raw []byte) (domain.Comment, error) {
	view, err := parseObject("comment_view", raw)
	if err != nil {
		return domain.Comment{}, err
	}
	co, err := view.object("comment", "comment")
	if err != nil {
		return domain.Comment{}, err
	}
	creator, err := view.object("creator", "creator")
	if err != nil {
		return domain.Comment{}, err
	}
	counts, err := view.object("comment_counts", "counts")
	if err != nil {
		return domain.Comment{}, err
	}

	var c domain.Comment
	if c.ID, err = co.int("id"); err != nil {
		return domain.Comment{}, err
	}
	if c.CreatorID, err = co.int("creator_id"); err != nil {
		return domain.Comment{}, err
	}
	if c.CreatorName, err = creator.string("name"); err != nil {
		return domain.Comment{}, err
	}
	if c.PostID, err = co.int("post_id"); err != nil {
		return domain.Comment{}, err
	}
	if c.Content, err = co.string("content"); err != nil {
		return domain.Comment{}, err
	}
	if c.Published, err = co.time("published"); err != nil {
		return domain.Comment{}, err
	}
	if c.Votes, err = votes(counts); err != nil {
		return domain.Comment{}, err
	}

	path, err := co.optString("path")
	if err != nil {
		return domain.Comment{}, err
	}
	if path == nil {
		// pre-path releases of this revision still sent parent_id
		c.ParentID, err = co.optInt("parent_id")
		if err != nil {
			return domain.Comment{}, err
		}
		return c, nil
	}
	if c.ParentID, err = ParsePath(c.ID, *path); err != nil {
		return domain.Comment{}, domain.NewDecodeError("comment", "path", err)
	}
	return c, nil
}

func (nestedDecoder) personView(raw []byte) (domain.PersonSummary, error) {
	view, err := parseObject("person_view", raw)
	if err != nil {
		return domain.PersonSummary{}, err
	}
	po, err := view.object("person", "person")
	if err != nil {
		return domain.PersonSummary{}, err
	}
	counts, err := view.optObject("person_counts", "counts")
	if err != nil {
		return domain.PersonSummary{}, err
	}

	var p domain.PersonSummary
	if p.Name, err = po.string("name"); err != nil {
		return domain.PersonSummary{}, err
	}
	if counts == nil {
		return p, nil
	}
	if p.PostCount, err = counts.count("post_count"); err != nil {
		return domain.PersonSummary{}, err
	}
	if p.PostScore, err = counts.count("post_score"); err != nil {
		return domain.PersonSummary{}, err
	}
	if p.CommentCount, err = counts.count("comment_count"); err != nil {
		return domain.PersonSummary{}, err
	}
	if p.CommentScore, err = counts.count("comment_score"); err != nil {
		return domain.PersonSummary{}, err
	}
	return p, nil
}

func (nestedDecoder) moderatorView(raw []byte) (string, error) {
	view, err := parseObject("community_moderator_view", raw)
	if err != nil {
		return "", err
	}
	mod, err := view.object("moderator", "moderator")
	if err != nil {
		return "", err
	}
	return mod.string("name")
}
