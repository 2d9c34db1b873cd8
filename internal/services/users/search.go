package users

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SearchRequest holds the /search query parameters.
type SearchRequest struct {
	Profession     string   `query:"profession" validate:"max=100" example:"plumber"`
	MinFee         *float64 `query:"minFee" example:"100"`
	MaxFee         *float64 `query:"maxFee" example:"1000"`
	LocationFilter string   `query:"locationFilter" validate:"omitempty,oneof=same-city same-country different-country" example:"same-city"`
	LikesSort      string   `query:"likesSort" validate:"omitempty,oneof=highest lowest" example:"highest"`
	AccountAgeSort string   `query:"accountAgeSort" validate:"omitempty,oneof=new old" example:"new"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Users []*User `json:"users"`
}

// SuggestRequest is the typeahead input.
type SuggestRequest struct {
	Query string `json:"query" validate:"max=100" example:"plu"`
}

// SuggestResponse wraps typeahead results.
type SuggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

const suggestCachePrefix = "suggest:"

// Search finds users whose profession or name contains the term. An empty
// term yields an empty result without touching the store.
func (s *Service) Search(ctx context.Context, searcherID bson.ObjectID, req SearchRequest) (*SearchResponse, error) {
	term := strings.TrimSpace(req.Profession)
	if term == "" {
		return &SearchResponse{Users: []*User{}}, nil
	}

	if (req.MinFee != nil && *req.MinFee < 0) || (req.MaxFee != nil && *req.MaxFee < 0) {
		return nil, ErrInvalidFee
	}
	if req.MinFee != nil && req.MaxFee != nil && *req.MinFee > *req.MaxFee {
		return nil, ErrInvalidFeeRange
	}

	q := SearchQuery{
		Term:      term,
		MinFee:    req.MinFee,
		MaxFee:    req.MaxFee,
		LikesSort: req.LikesSort,
		AgeSort:   req.AccountAgeSort,
		Limit:     s.opts.SearchMaxResults,
	}

	if req.LocationFilter != "" {
		if err := s.applyLocation(ctx, searcherID, req.LocationFilter, &q); err != nil {
			return nil, err
		}
	}

	found, err := s.repo.Search(ctx, q)
	if err != nil {
		s.log.Error("failed to search users", "error", err, "user_id", searcherID.Hex())
		return nil, err
	}
	if found == nil {
		found = []*User{}
	}

	return &SearchResponse{Users: found}, nil
}

// applyLocation resolves a location filter against the searcher's own
// city/country. Missing values skip the filter.
func (s *Service) applyLocation(ctx context.Context, searcherID bson.ObjectID, filter string, q *SearchQuery) error {
	searcher, err := s.repo.FindByID(ctx, searcherID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		s.log.Error("failed to load searcher", "error", err, "user_id", searcherID.Hex())
		return err
	}

	city := strings.TrimSpace(searcher.City)
	country := strings.TrimSpace(searcher.Country)

	switch filter {
	case LocationSameCity:
		q.City = city
	case LocationSameCountry:
		q.Country = country
	case LocationDifferentCountry:
		if country != "" {
			q.Country = country
			q.ExcludeCountry = true
		}
	}
	return nil
}

// Suggest returns profession and name completions for a partial query.
func (s *Service) Suggest(ctx context.Context, req SuggestRequest) (*SuggestResponse, error) {
	term := strings.TrimSpace(req.Query)
	if term == "" {
		return &SuggestResponse{Suggestions: []Suggestion{}}, nil
	}

	key := suggestCachePrefix + strings.ToLower(term)
	if cached := s.cachedSuggestions(ctx, key); cached != nil {
		return &SuggestResponse{Suggestions: cached}, nil
	}

	suggestions, err := s.repo.Suggest(ctx, term, s.opts.SuggestLimit)
	if err != nil {
		s.log.Error("failed to load suggestions", "error", err, "query", term)
		return nil, err
	}
	if suggestions == nil {
		suggestions = []Suggestion{}
	}

	if s.cache != nil && s.opts.SuggestCacheTTL > 0 {
		if raw, err := json.Marshal(suggestions); err == nil {
			_ = s.cache.Set(ctx, key, raw, s.opts.SuggestCacheTTL)
		}
	}

	return &SuggestResponse{Suggestions: suggestions}, nil
}

func (s *Service) dropSuggestions(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, suggestCachePrefix); err != nil {
		s.log.Warn("failed to drop cached suggestions", "error", err)
	}
}

func (s *Service) cachedSuggestions(ctx context.Context, key string) []Suggestion {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == nil {
		return nil
	}
	var out []Suggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		s.log.Warn("dropping corrupt suggestion cache entry", "key", key, "error", err)
		return nil
	}
	return out
}
