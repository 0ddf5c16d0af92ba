package lemmy

import (
	"github.com/lemmylite/lemmy-lite/engine/domain"
)

// flatNames lists, per normalized field, the upstream names to try in order.
type flatNames struct {
	communities, community, moderators, admins, online []string
	posts, post, comments, person, persons             []string

	subscribers, postCount, commentCount, hotRank []string

	creatorName, communityName, stickied, postComments []string
	parentID                                           []string

	personPosts, personPostScore, personComments, personCommentScore []string
	moderatorName                                                    []string
}

var v1Names = flatNames{
	communities: []string{"communities"},
	community:   []string{"community"},
	moderators:  []string{"moderators"},
	admins:      []string{"admins"},
	online:      []string{"online"},
	posts:       []string{"posts"},
	post:        []string{"post"},
	comments:    []string{"comments"},
	person:      []string{"user"},
	persons:     []string{"users"},

	subscribers:  []string{"number_of_subscribers"},
	postCount:    []string{"number_of_posts"},
	commentCount: []string{"number_of_comments"},
	hotRank:      []string{"hot_rank"},

	creatorName:   []string{"creator_name"},
	communityName: []string{"community_name"},
	stickied:      []string{"stickied"},
	postComments:  []string{"number_of_comments"},
	parentID:      []string{"parent_id"},

	personPosts:        []string{"number_of_posts"},
	personPostScore:    []string{"post_score"},
	personComments:     []string{"number_of_comments"},
	personCommentScore: []string{"comment_score"},
	moderatorName:      []string{"user_name"},
}

// v2 renamed most counters and the user keys; v1 names stay as fallbacks
// because instances rolled the rename out field by field.
var v2Names = flatNames{
	communities: []string{"communities"},
	community:   []string{"community"},
	moderators:  []string{"moderators"},
	admins:      []string{"admins"},
	online:      []string{"online"},
	posts:       []string{"posts"},
	post:        []string{"post"},
	comments:    []string{"comments"},
	person:      []string{"person", "user"},
	persons:     []string{"persons", "users"},

	subscribers:  []string{"subscribers", "number_of_subscribers"},
	postCount:    []string{"posts", "number_of_posts"},
	commentCount: []string{"comments", "number_of_comments"},
	hotRank:      []string{"hot_rank"},

	creatorName:   []string{"creator_name"},
	communityName: []string{"community_name"},
	stickied:      []string{"featured_community", "stickied"},
	postComments:  []string{"number_of_comments", "comments", "comment_count"},
	parentID:      []string{"parent_id"},

	personPosts:        []string{"post_count", "number_of_posts"},
	personPostScore:    []string{"post_score"},
	personComments:     []string{"comment_count", "number_of_comments"},
	personCommentScore: []string{"comment_score"},
	moderatorName:      []string{"person_name", "user_name"},
}

var v1Endpoints = Endpoints{
	CommunityList:  "community/list",
	Community:      "community",
	PostList:       "post/list",
	Post:           "post",
	CommentList:    "post",
	Person:         "user",
	Search:         "search",
	CommunityKey:   "name",
	PostKey:        "id",
	CommentPostKey: "id",
	PersonKey:      "username",
}

var v2Endpoints = Endpoints{
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

// flatDecoder handles the v1 and v2 revisions, where every view is a single
// flat object with denormalized creator and community names.
type flatDecoder struct {
	version   Version
	endpoints Endpoints
	names     flatNames
}

func (d flatDecoder) Version() Version     { return d.version }
func (d flatDecoder) Endpoints() Endpoints { return d.endpoints }

func (d flatDecoder) Communities(body []byte) ([]domain.Community, error) {
	o, err := parseObject("community_list", body)
	if err != nil {
		return nil, err
	}
	return decodeList(o, d.community, d.names.communities...)
}

func (d flatDecoder) Community(body []byte) (domain.CommunityDetail, error) {
	o, err := parseObject("community_response", body)
	if err != nil {
		return domain.CommunityDetail{}, err
	}
	raw, _, ok := o.lookup(d.names.community)
	if !ok {
		return domain.CommunityDetail{}, o.fail(d.names.community, errMissing)
	}

	var detail domain.CommunityDetail
	if detail.Community, err = d.community(raw); err != nil {
		return domain.CommunityDetail{}, err
	}
	if detail.Moderators, err = decodeList(o, d.moderator, d.names.moderators...); err != nil {
		return domain.CommunityDetail{}, err
	}
	if detail.Admins, err = decodeList(o, d.person, d.names.admins...); err != nil {
		return domain.CommunityDetail{}, err
	}
	if detail.Online, err = o.count(d.names.online...); err != nil {
		return domain.CommunityDetail{}, err
	}
	return detail, nil
}

func (d flatDecoder) Posts(body []byte) ([]domain.Post, error) {
	o, err := parseObject("post_list", body)
	if err != nil {
		return nil, err
	}
	return decodeList(o, d.post, d.names.posts...)
}

func (d flatDecoder) Post(body []byte) (domain.Post, error) {
	o, err := parseObject("post_response", body)
	if err != nil {
		return domain.Post{}, err
	}
	raw, _, ok := o.lookup(d.names.post)
	if !ok {
		return domain.Post{}, o.fail(d.names.post, errMissing)
	}
	return d.post(raw)
}

func (d flatDecoder) Comments(body []byte) ([]domain.Comment, error) {
	o, err := parseObject("comment_list", body)
	if err != nil {
		return nil, err
	}
	return decodeList(o, d.comment, d.names.comments...)
}

func (d flatDecoder) Person(body []byte) (domain.PersonDetail, error) {
	o, err := parseObject("person_response", body)
	if err != nil {
		return domain.PersonDetail{}, err
	}
	raw, _, ok := o.lookup(d.names.person)
	if !ok {
		return domain.PersonDetail{}, o.fail(d.names.person, errMissing)
	}

	var detail domain.PersonDetail
	if detail.Person, err = d.person(raw); err != nil {
		return domain.PersonDetail{}, err
	}
	if detail.Posts, err = decodeList(o, d.post, d.names.posts...); err != nil {
		return domain.PersonDetail{}, err
	}
	if detail.Comments, err = decodeList(o, d.comment, d.names.comments...); err != nil {
		return domain.PersonDetail{}, err
	}
	return detail, nil
}

func (d flatDecoder) Search(body []byte) (domain.SearchResult, error) {
	return decodeSearch(body, "search_response",
		d.names.communities, d.names.posts, d.names.comments, d.names.persons,
		d.community, d.post, d.comment, d.person)
}

func (d flatDecoder) community(raw []byte) (domain.Community, error) {
	o, err := parseObject("community", raw)
	if err != nil {
		return domain.Community{}, err
	}
	var c domain.Community
	if c.ID, err = o.int("id"); err != nil {
		return domain.Community{}, err
	}
	if c.Name, err = o.string("name"); err != nil {
		return domain.Community{}, err
	}
	if c.Title, err = o.string("title"); err != nil {
		return domain.Community{}, err
	}
	if c.Description, err = o.optString("description"); err != nil {
		return domain.Community{}, err
	}
	if c.SubscriberCount, err = o.count(d.names.subscribers...); err != nil {
		return domain.Community{}, err
	}
	if c.PostCount, err = o.count(d.names.postCount...); err != nil {
		return domain.Community{}, err
	}
	if c.CommentCount, err = o.count(d.names.commentCount...); err != nil {
		return domain.Community{}, err
	}
	if c.HotRank, err = o.rank(d.names.hotRank...); err != nil {
		return domain.Community{}, err
	}
	return c, nil
}

func (d flatDecoder) post(raw []byte) (domain.Post, error) {
	o, err := parseObject("post", raw)
	if err != nil {
		return domain.Post{}, err
	}
	var p domain.Post
	if p.ID, err = o.int("id"); err != nil {
		return domain.Post{}, err
	}
	if p.Name, err = o.string("name"); err != nil {
		return domain.Post{}, err
	}
	if p.URL, err = o.optString("url"); err != nil {
		return domain.Post{}, err
	}
	if p.Body, err = o.optString("body"); err != nil {
		return domain.Post{}, err
	}
	if p.CreatorID, err = o.int("creator_id"); err != nil {
		return domain.Post{}, err
	}
	if p.CreatorName, err = o.string(d.names.creatorName...); err != nil {
		return domain.Post{}, err
	}
	if p.CommunityName, err = o.string(d.names.communityName...); err != nil {
		return domain.Post{}, err
	}
	if p.Published, err = o.time("published"); err != nil {
		return domain.Post{}, err
	}
	if p.Stickied, err = o.bool(d.names.stickied...); err != nil {
		return domain.Post{}, err
	}
	if p.CommentCount, err = o.count(d.names.postComments...); err != nil {
		return domain.Post{}, err
	}
	if p.Votes, err = votes(o); err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

func (d flatDecoder) comment(raw []byte) (domain.Comment, error) {
	o, err := parseObject("comment", raw)
	if err != nil {
		return domain.Comment{}, err
	}
	var c domain.Comment
	if c.ID, err = o.int("id"); err != nil {
		return domain.Comment{}, err
	}
	if c.CreatorID, err = o.int("creator_id"); err != nil {
		return domain.Comment{}, err
	}
	if c.CreatorName, err = o.string(d.names.creatorName...); err != nil {
		return domain.Comment{}, err
	}
	if c.PostID, err = o.int("post_id"); err != nil {
		return domain.Comment{}, err
	}
	if c.ParentID, err = o.optInt(d.names.parentID...); err != nil {
		return domain.Comment{}, err
	}
	if c.Content, err = o.string("content"); err != nil {
		return domain.Comment{}, err
	}
	if c.Published, err = o.time("published"); err != nil {
		return domain.Comment{}, err
	}
	if c.Votes, err = votes(o); err != nil {
		return domain.Comment{}, err
	}
	return c, nil
}

func (d flatDecoder) person(raw []byte) (domain.PersonSummary, error) {
	o, err := parseObject("person", raw)
	if err != nil {
		return domain.PersonSummary{}, err
	}
	var p domain.PersonSummary
	if p.Name, err = o.string("name"); err != nil {
		return domain.PersonSummary{}, err
	}
	if p.PostCount, err = o.count(d.names.personPosts...); err != nil {
		return domain.PersonSummary{}, err
	}
	if p.PostScore, err = o.count(d.names.personPostScore...); err != nil {
		return domain.PersonSummary{}, err
	}
	if p.CommentCount, err = o.count(d.names.personComments...); err != nil {
		return domain.PersonSummary{}, err
	}
	if p.CommentScore, err = o.count(d.names.personCommentScore...); err != nil {
		return domain.PersonSummary{}, err
	}
	return p, nil
}

func (d flatDecoder) moderator(raw []byte) (string, error) {
	o, err := parseObject("moderator", raw)
	if err != nil {
		return "", err
	}
	return o.string(d.names.moderatorName...)
}

// votes reads the score triple and derives a missing score.
func votes(o object) (domain.Votes, error) {
	var v domain.Votes
	var err error
	if v.Score, err = o.optInt("score"); err != nil {
		return domain.Votes{}, err
	}
	if v.Upvotes, err = o.optInt("upvotes"); err != nil {
		return domain.Votes{}, err
	}
	if v.Downvotes, err = o.optInt("downvotes"); err != nil {
		return domain.Votes{}, err
	}
	return v.Normalize(), nil
}
