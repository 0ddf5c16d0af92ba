package domain

import "strconv"

// SortKind is a listing order understood by the upstream API.
type SortKind string

const (
	SortHot      SortKind = "Hot"
	SortActive   SortKind = "Active"
	SortNew      SortKind = "New"
	SortTopDay   SortKind = "TopDay"
	SortTopWeek  SortKind = "TopWeek"
	SortTopMonth SortKind = "TopMonth"
	SortTopYear  SortKind = "TopYear"
	SortTopAll   SortKind = "TopAll"
)

// ValidSorts is the set of sort kinds this build may send upstream.
var ValidSorts = map[SortKind]bool{
	SortHot: true, SortActive: true, SortNew: true,
	SortTopDay: true, SortTopWeek: true, SortTopMonth: true,
	SortTopYear: true, SortTopAll: true,
}

// Valid reports whether s is a known sort kind.
func (s SortKind) Valid() bool { return ValidSorts[s] }

// ContentType filters search results by entity family.
type ContentType string

const (
	TypeAll         ContentType = "All"
	TypeComments    ContentType = "Comments"
	TypePosts       ContentType = "Posts"
	TypeCommunities ContentType = "Communities"
	TypeUsers       ContentType = "Users"
	TypeURL         ContentType = "Url"
)

// ValidContentTypes is the set of content types this build may send upstream.
var ValidContentTypes = map[ContentType]bool{
	TypeAll: true, TypeComments: true, TypePosts: true,
	TypeCommunities: true, TypeUsers: true, TypeURL: true,
}

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool { return ValidContentTypes[t] }

// ParseSort converts user input into a SortKind, rejecting unknown values.
func ParseSort(s string) (SortKind, error) {
	k := SortKind(s)
	if !k.Valid() {
		return "", NewParamError("sort", s)
	}
	return k, nil
}

// ParseContentType converts user input into a ContentType, rejecting unknown values.
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(s)
	if !t.Valid() {
		return "", NewParamError("type", s)
	}
	return t, nil
}

// ParsePositive parses a page number or page size. Zero and negatives are rejected.
func ParsePositive(field, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, NewParamError(field, s)
	}
	return n, nil
}

// PagingParams are the list controls shared by every listing endpoint.
type PagingParams struct {
	Sort  *SortKind `json:"sort,omitempty"`
	Page  *int      `json:"page,omitempty"`
	Limit *int      `json:"limit,omitempty"`
}

// ToPagingParams returns p itself so the projection can be re-applied to its output.
func (p PagingParams) ToPagingParams() PagingParams { return p }

// Validate rejects values that must never be sent upstream.
func (p PagingParams) Validate() error {
	if p.Sort != nil && !p.Sort.Valid() {
		return NewParamError("sort", string(*p.Sort))
	}
	if p.Page != nil && *p.Page <= 0 {
		return NewParamError("page", strconv.Itoa(*p.Page))
	}
	if p.Limit != nil && *p.Limit <= 0 {
		return NewParamError("limit", strconv.Itoa(*p.Limit))
	}
	return nil
}

// NextPage returns a copy pointing at the following page.
func (p PagingParams) NextPage() PagingParams {
	next := 2
	if p.Page != nil {
		next = *p.Page + 1
	}
	p.Page = &next
	return p
}

// PrevPage returns a copy pointing at the previous page, or false on page 1.
func (p PagingParams) PrevPage() (PagingParams, bool) {
	if p.Page == nil || *p.Page <= 1 {
		return p, false
	}
	prev := *p.Page - 1
	p.Page = &prev
	return p, true
}

// SearchParams extends PagingParams with the search-only controls.
type SearchParams struct {
	PagingParams
	Query         *string      `json:"query,omitempty"`
	Type          *ContentType `json:"type,omitempty"`
	CommunityName *string      `json:"community_name,omitempty"`
}

// ToPagingParams projects the sort/page/limit subset. The query, type and
// community fields are dropped.
func (s SearchParams) ToPagingParams() PagingParams {
	return PagingParams{Sort: s.Sort, Page: s.Page, Limit: s.Limit}
}

// Validate rejects values that must never be sent upstream.
func (s SearchParams) Validate() error {
	if err := s.PagingParams.Validate(); err != nil {
		return err
	}
	if s.Type != nil && !s.Type.Valid() {
		return NewParamError("type", string(*s.Type))
	}
	return nil
}
