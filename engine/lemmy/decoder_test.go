package lemmy

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemmylite/lemmy-lite/engine/domain"
)

type commentFixture struct {
	id     int64
	parent int64 // 0 means top level
	path   string
}

var threadFixture = []commentFixture{
	{id: 1, path: "0.1"},
	{id: 2, parent: 1, path: "0.1.2"},
	{id: 3, parent: 1, path: "0.1.3"},
	{id: 4, parent: 2, path: "0.1.2.4"},
}

func flatComment(c commentFixture) string {
	parent := "null"
	if c.parent != 0 {
		parent = fmt.Sprint(c.parent)
	}
	return fmt.Sprintf(`{"id":%d,"creator_id":7,"creator_name":"alice","post_id":42,"parent_id":%s,`+
		`"content":"comment %d","published":"2023-07-01T12:00:00.25","score":3,"upvotes":4,"downvotes":1}`,
		c.id, parent, c.id)
}

func nestedComment(c commentFixture) string {
	return fmt.Sprintf(`{"comment":{"id":%d,"creator_id":7,"post_id":42,"content":"comment %d",`+
		`"published":"2023-07-01T12:00:00.25Z","path":%q},"creator":{"id":7,"name":"alice"},`+
		`"counts":{"score":3,"upvotes":4,"downvotes":1}}`, c.id, c.id, c.path)
}

func commentsBody(render func(commentFixture) string) []byte {
	parts := make([]string, 0, len(threadFixture))
	for _, c := range threadFixture {
		parts = append(parts, render(c))
	}
	return []byte(`{"comments":[` + strings.Join(parts, ",") + `]}`)
}

const flatPost = `{"id":42,"name":"Hello","url":"https://x.org/a.png","body":null,"creator_id":7,` +
	`"creator_name":"alice","community_name":"golang","published":"2023-07-01T12:00:00.5",` +
	`"stickied":true,"number_of_comments":5,"score":9,"upvotes":10,"downvotes":1}`

const nestedPost = `{"post":{"id":42,"name":"Hello","url":"https://x.org/a.png","body":null,"creator_id":7,` +
	`"published":"2023-07-01T12:00:00.5Z","featured_community":true},"creator":{"id":7,"name":"alice"},` +
	`"community":{"id":3,"name":"golang"},"counts":{"comments":5,"score":9,"upvotes":10,"downvotes":1}}`

func mustDecoder(t *testing.T, v Version) Decoder {
	t.Helper()
	d, err := DecoderFor(v)
	require.NoError(t, err)
	return d
}

func TestDecoderFor(t *testing.T) {
	for _, v := range []Version{V1, V2, V3} {
		d := mustDecoder(t, v)
		assert.Equal(t, v, d.Version())
	}
	_, err := DecoderFor("v9")
	assert.Error(t, err)

	_, err = ParseVersion("v4")
	assert.Error(t, err)
	v, err := ParseVersion("v2")
	require.NoError(t, err)
	assert.Equal(t, V2, v)
}

func TestComments_PathAndParentIDAgree(t *testing.T) {
	flat, err := mustDecoder(t, V1).Comments(commentsBody(flatComment))
	require.NoError(t, err)
	nested, err := mustDecoder(t, V3).Comments(commentsBody(nestedComment))
	require.NoError(t, err)

	require.Len(t, flat, 4)
	assert.Equal(t, flat, nested)

	assert.Nil(t, nested[0].ParentID)
	require.NotNil(t, nested[3].ParentID)
	assert.Equal(t, int64(2), *nested[3].ParentID)
	assert.Equal(t, time.Date(2023, 7, 1, 12, 0, 0, 250_000_000, time.UTC), nested[0].Published.UTC())
	assert.Equal(t, int64(3), *nested[0].Score)
}

func TestPost_AllRevisionsAgree(t *testing.T) {
	v1, err := mustDecoder(t, V1).Post([]byte(`{"post":` + flatPost + `}`))
	require.NoError(t, err)
	v2, err := mustDecoder(t, V2).Post([]byte(`{"post":` + flatPost + `}`))
	require.NoError(t, err)
	v3, err := mustDecoder(t, V3).Post([]byte(`{"post_view":` + nestedPost + `}`))
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, v1, v3)
	assert.Equal(t, "golang", v3.CommunityName)
	assert.True(t, v3.Stickied)
	assert.Nil(t, v3.Body)
	assert.Equal(t, domain.PreviewMedia, v3.Preview())
}

func TestPost_V2FieldFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"legacy name", `"number_of_comments":5`},
		{"renamed", `"comments":5`},
		{"aggregate name", `"comment_count":5`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"post":{"id":1,"name":"n","creator_id":2,"creator_name":"c","community_name":"x",` +
				`"published":"2023-01-01T00:00:00Z","featured_community":true,` + tt.body + `}}`
			p, err := mustDecoder(t, V2).Post([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, int64(5), p.CommentCount)
			assert.True(t, p.Stickied)
		})
	}
}

func TestPost_ScoreDerivation(t *testing.T) {
	base := `"id":1,"name":"n","creator_id":2,"creator_name":"c","community_name":"x","published":"2023-01-01T00:00:00Z"`

	p, err := mustDecoder(t, V2).Post([]byte(`{"post":{` + base + `,"upvotes":10,"downvotes":3}}`))
	require.NoError(t, err)
	require.NotNil(t, p.Score)
	assert.Equal(t, int64(7), *p.Score)

	p, err = mustDecoder(t, V2).Post([]byte(`{"post":{` + base + `,"upvotes":10}}`))
	require.NoError(t, err)
	assert.Nil(t, p.Score)
	assert.Nil(t, p.Downvotes)

	p, err = mustDecoder(t, V2).Post([]byte(`{"post":{` + base + `,"score":4}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(4), *p.Score)
	assert.Nil(t, p.Upvotes)
}

func TestPost_MissingRequiredField(t *testing.T) {
	_, err := mustDecoder(t, V1).Post([]byte(`{"post":{"id":1,"creator_id":2,"creator_name":"c",` +
		`"community_name":"x","published":"2023-01-01T00:00:00Z"}}`))
	require.ErrorIs(t, err, domain.ErrDecode)

	var de *domain.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "post", de.Entity)
	assert.Equal(t, "name", de.Field)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		version Version
		body    string
	}{
		{"not json", V1, `<html>`},
		{"null body", V3, `null`},
		{"wrong id type", V1, `{"post":{"id":"x"}}`},
		{"missing view", V3, `{"post":{}}`},
		{"bad timestamp", V1, `{"post":{"id":1,"name":"n","creator_id":2,"creator_name":"c","community_name":"x","published":"yesterday"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mustDecoder(t, tt.version).Post([]byte(tt.body))
			assert.ErrorIs(t, err, domain.ErrDecode)
		})
	}
}

func TestComments_BadPathIsDecodeError(t *testing.T) {
	body := `{"comments":[` + nestedComment(commentFixture{id: 5, path: "0.1.2"}) + `]}`
	_, err := mustDecoder(t, V3).Comments([]byte(body))
	require.ErrorIs(t, err, domain.ErrDecode)
	var de *domain.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "path", de.Field)
}

func TestComments_NestedWithoutPathFallsBackToParentID(t *testing.T) {
	body := `{"comments":[{"comment":{"id":9,"creator_id":1,"post_id":2,"content":"c","published":"2023-01-01T00:00:00Z","parent_id":8},` +
		`"creator":{"name":"bob"},"counts":{"score":1}}]}`
	cs, err := mustDecoder(t, V3).Comments([]byte(body))
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, int64(8), *cs[0].ParentID)
}

func TestCommunity_Detail(t *testing.T) {
	v1 := `{"community":{"id":3,"name":"golang","title":"Go","description":"gophers","number_of_subscribers":100,` +
		`"number_of_posts":20,"number_of_comments":300,"hot_rank":12},` +
		`"moderators":[{"user_name":"alice"},{"user_name":"bob"}],"admins":[{"name":"root","number_of_posts":1}],"online":4}`
	v3 := `{"community_view":{"community":{"id":3,"name":"golang","title":"Go","description":"gophers"},` +
		`"counts":{"subscribers":100,"posts":20,"comments":300,"hot_rank":12}},` +
		`"moderators":[{"community":{"name":"golang"},"moderator":{"name":"alice"}},{"community":{"name":"golang"},"moderator":{"name":"bob"}}],` +
		`"admins":[{"person":{"name":"root"},"counts":{"post_count":1}}],"online":4}`

	a, err := mustDecoder(t, V1).Community([]byte(v1))
	require.NoError(t, err)
	b, err := mustDecoder(t, V3).Community([]byte(v3))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, []string{"alice", "bob"}, b.Moderators)
	assert.Equal(t, int64(100), b.Community.SubscriberCount)
	assert.Equal(t, "gophers", *b.Community.Description)
	assert.Equal(t, int64(4), b.Online)
}

func TestCommunities_OptionalCountsDefaultToZero(t *testing.T) {
	cs, err := mustDecoder(t, V2).Communities([]byte(`{"communities":[{"id":1,"name":"a","title":"A","subscribers":9}]}`))
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, int64(9), cs[0].SubscriberCount)
	assert.Zero(t, cs[0].PostCount)
	assert.Nil(t, cs[0].Description)
}

func TestPerson_KeysPerRevision(t *testing.T) {
	v1 := `{"user":{"name":"alice","number_of_posts":2,"post_score":10,"number_of_comments":3,"comment_score":5},` +
		`"posts":[` + flatPost + `],"comments":[` + flatComment(threadFixture[0]) + `]}`
	v2 := `{"person":{"name":"alice","post_count":2,"post_score":10,"comment_count":3,"comment_score":5},` +
		`"posts":[` + flatPost + `],"comments":[` + flatComment(threadFixture[0]) + `]}`
	v3 := `{"person_view":{"person":{"name":"alice"},"counts":{"post_count":2,"post_score":10,"comment_count":3,"comment_score":5}},` +
		`"posts":[` + nestedPost + `],"comments":[` + nestedComment(threadFixture[0]) + `]}`

	a, err := mustDecoder(t, V1).Person([]byte(v1))
	require.NoError(t, err)
	b, err := mustDecoder(t, V2).Person([]byte(v2))
	require.NoError(t, err)
	c, err := mustDecoder(t, V3).Person([]byte(v3))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.Equal(t, int64(5), c.Person.CommentScore)
	assert.Len(t, c.Posts, 1)
}

func TestSearch_PersonsKey(t *testing.T) {
	res, err := mustDecoder(t, V1).Search([]byte(`{"type_":"Users","users":[{"name":"a"},{"name":"b"}]}`))
	require.NoError(t, err)
	assert.Len(t, res.Persons, 2)
	assert.Empty(t, res.Posts)

	res, err = mustDecoder(t, V3).Search([]byte(`{"type_":"Users","users":[{"person":{"name":"a"}}],"posts":[` + nestedPost + `]}`))
	require.NoError(t, err)
	assert.Equal(t, "a", res.Persons[0].Name)
	assert.Len(t, res.Posts, 1)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path    string
		id      int64
		parent  int64
		wantErr bool
	}{
		{path: "0.5", id: 5},
		{path: "0.5.12", id: 12, parent: 5},
		{path: "0.1.2.3", id: 3, parent: 2},
		{path: "0", id: 5, wantErr: true},
		{path: "1.5", id: 5, wantErr: true},
		{path: "0.5.12", id: 13, wantErr: true},
		{path: "0.x.12", id: 12, wantErr: true},
		{path: "0.0.12", id: 12, wantErr: true},
		{path: "0.-3.12", id: 12, wantErr: true},
		{path: "0..12", id: 12, wantErr: true},
		{path: "0.+5.12", id: 12, wantErr: true},
		{path: "0.5.+12", id: 12, wantErr: true},
		{path: "0.05.12", id: 12, wantErr: true},
		{path: "0.5.012", id: 12, wantErr: true},
		{path: "0.5.12 ", id: 12, wantErr: true},
		{path: "0.99999999999999999999.12", id: 12, wantErr: true},
		{path: "", id: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			parent, err := ParsePath(tt.id, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.parent == 0 {
				assert.Nil(t, parent)
				return
			}
			require.NotNil(t, parent)
			assert.Equal(t, tt.parent, *parent)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2021, 3, 4, 5, 6, 7, 890_000_000, time.UTC)
	for _, s := range []string{"2021-03-04T05:06:07.89", "2021-03-04T05:06:07.890Z", "2021-03-04T07:06:07.89+02:00", "2021-03-04 05:06:07.89"} {
		got, err := parseTimestamp(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
		assert.Equal(t, time.UTC, got.Location(), s)
	}
	_, err := parseTimestamp("04/03/2021")
	assert.Error(t, err)
}

func TestRank_AcceptsFloats(t *testing.T) {
	o, err := parseObject("counts", []byte(`{"hot_rank":1728.9,"score":null,"big":1e20}`))
	require.NoError(t, err)
	n, err := o.rank("hot_rank")
	require.NoError(t, err)
	assert.Equal(t, int64(1728), n)
	v, err := o.optInt("score")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = o.rank("big")
	assert.ErrorIs(t, err, domain.ErrDecode)
	_, err = o.count("hot_rank")
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestInt_RejectsNonIntegralNumbers(t *testing.T) {
	tests := []struct {
		body string
		want int64
		ok   bool
	}{
		{`{"id":12}`, 12, true},
		{`{"id":12.0}`, 12, true},
		{`{"id":-3}`, -3, true},
		{`{"id":1.9}`, 0, false},
		{`{"id":1e20}`, 0, false},
		{`{"id":-1e20}`, 0, false},
		{`{"id":9223372036854775808}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			o, err := parseObject("x", []byte(tt.body))
			require.NoError(t, err)
			got, err := o.int("id")
			if !tt.ok {
				require.ErrorIs(t, err, domain.ErrDecode)
				var de *domain.DecodeError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, "id", de.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComments_FractionalIDIsDecodeError(t *testing.T) {
	body := `{"comments":[{"comment":{"id":12.7,"creator_id":7,"post_id":42,"content":"x",` +
		`"published":"2023-07-01T12:00:00Z","path":"0.12"},"creator":{"id":7,"name":"alice"},"counts":{}}]}`
	_, err := mustDecoder(t, V3).Comments([]byte(body))
	assert.ErrorIs(t, err, domain.ErrDecode)
}
