package mongo

import (
	"regexp"

	"skillmart/internal/services/users"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// publicProjection hides credentials and reset state from reads.
var publicProjection = bson.M{
	"password":            0,
	"resetPasswordOTP":    0,
	"resetPasswordExpire": 0,
}

// containsFold matches s anywhere in the field, ignoring case.
func containsFold(s string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// equalFold matches the whole field against s, ignoring case.
func equalFold(s string) bson.Regex {
	return bson.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

// buildSearchFilter turns a search query into a conjunctive filter.
func buildSearchFilter(q users.SearchQuery) bson.M {
	term := containsFold(q.Term)
	filter := bson.M{
		"$or": bson.A{
			bson.M{"profession": term},
			bson.M{"name": term},
		},
	}

	if q.MinFee != nil || q.MaxFee != nil {
		fee := bson.M{}
		if q.MinFee != nil {
			fee["$gte"] = *q.MinFee
		}
		if q.MaxFee != nil {
			fee["$lte"] = *q.MaxFee
		}
		filter["fee"] = fee
	}

	if q.City != "" {
		filter["city"] = equalFold(q.City)
	}

	if q.Country != "" {
		if q.ExcludeCountry {
			filter["country"] = bson.M{"$not": equalFold(q.Country)}
		} else {
			filter["country"] = equalFold(q.Country)
		}
	}

	return filter
}

// buildSearchSort composes likes, then account age, then _id for stable order.
func buildSearchSort(q users.SearchQuery) bson.D {
	sort := bson.D{}

	switch q.LikesSort {
	case users.LikesHighest:
		sort = append(sort, bson.E{Key: "likes", Value: -1})
	case users.LikesLowest:
		sort = append(sort, bson.E{Key: "likes", Value: 1})
	}

	switch q.AgeSort {
	case users.AgeNewest:
		sort = append(sort, bson.E{Key: "createdAt", Value: -1})
	case users.AgeOldest:
		sort = append(sort, bson.E{Key: "createdAt", Value: 1})
	}

	return append(sort, bson.E{Key: "_id", Value: 1})
}

// buildProfileUpdate maps a patch onto $set. ok is false when nothing changes.
func buildProfileUpdate(p users.ProfilePatch) (set bson.M, ok bool) {
	set = bson.M{}
	put := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}

	put("name", p.Name)
	put("profession", p.Profession)
	put("bio", p.Bio)
	put("location", p.Location)
	put("city", p.City)
	put("country", p.Country)
	put("timing", p.Timing)
	put("contact", p.Contact)
	put("profilePic", p.ProfilePic)
	if p.Fee != nil {
		set["fee"] = *p.Fee
	}

	return set, len(set) > 0
}
