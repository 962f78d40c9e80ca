package api

import (
	"github.com/JaimeStill/ineed/internal/categories"
	"github.com/JaimeStill/ineed/internal/listings"
	"github.com/JaimeStill/ineed/pkg/openapi"
)

func str(desc string) *openapi.Schema {
	return &openapi.Schema{Type: "string", Description: desc}
}

func uuidField(desc string) *openapi.Schema {
	return &openapi.Schema{Type: "string", Format: "uuid", Description: desc}
}

func timestamp() *openapi.Schema {
	return &openapi.Schema{Type: "string", Format: "date-time"}
}

func number(desc string) *openapi.Schema {
	return &openapi.Schema{Type: "number", Description: desc}
}

func enum[T ~string](values ...T) *openapi.Schema {
	s := &openapi.Schema{Type: "string"}
	for _, v := range values {
		s.Enum = append(s.Enum, string(v))
	}
	return s
}

func object(required []string, props map[string]*openapi.Schema) *openapi.Schema {
	return &openapi.Schema{Type: "object", Properties: props, Required: required}
}

func pageOf(item string) *openapi.Schema {
	return object(nil, map[string]*openapi.Schema{
		"data":       openapi.ArrayOf(item),
		"total":      {Type: "integer"},
		"page":       {Type: "integer"},
		"pageSize":   {Type: "integer"},
		"totalPages": {Type: "integer"},
	})
}

func offerStatus() *openapi.Schema {
	return enum("pending", "accepted", "rejected")
}

// componentSchemas returns every schema referenced by the domain routes.
func componentSchemas() map[string]*openapi.Schema {
	zero, one, five := 0.0, 1.0, 5.0

	return map[string]*openapi.Schema{
		"Category": object(nil, map[string]*openapi.Schema{
			"id":       str("Stable identifier"),
			"name":     str("Display name"),
			"slug":     str("URL slug"),
			"iconName": str("Icon identifier"),
			"type":     enum(categories.TypeProduct, categories.TypeService),
		}),
		"Author": object(nil, map[string]*openapi.Schema{
			"id":          str("User id"),
			"name":        str("Display name"),
			"photoUrl":    str("Avatar URL"),
			"rating":      number("Average rating"),
			"reviewCount": {Type: "integer"},
		}),
		"User": object(nil, map[string]*openapi.Schema{
			"id":          str("User id"),
			"name":        str("Display name"),
			"photoUrl":    str("Avatar URL"),
			"bio":         str(""),
			"location":    str(""),
			"rating":      number("Average rating"),
			"reviewCount": {Type: "integer"},
			"createdAt":   timestamp(),
		}),
		"ProfileCommand": object([]string{"name"}, map[string]*openapi.Schema{
			"name":     str("Display name"),
			"photoUrl": str("Avatar URL"),
			"bio":      str(""),
			"location": str(""),
		}),
		"Listing": object(nil, map[string]*openapi.Schema{
			"id":          uuidField("Listing id"),
			"title":       str(""),
			"description": str(""),
			"budget":      number("Budget in BRL"),
			"categoryId":  str(""),
			"location":    str(""),
			"authorId":    str(""),
			"status":      enum(listings.StatusPending, listings.StatusPublished, listings.StatusReview, listings.StatusRejected),
			"imageUrls":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"createdAt":   timestamp(),
			"updatedAt":   timestamp(),
			"category":    openapi.SchemaRef("Category"),
			"author":      openapi.SchemaRef("Author"),
		}),
		"CreateListingCommand": object(
			[]string{"title", "description", "budget", "categoryId"},
			map[string]*openapi.Schema{
				"title":       str(""),
				"description": str(""),
				"budget":      {Type: "number", Minimum: &zero},
				"categoryId":  str(""),
				"location":    str(""),
				"imageUrls":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		),
		"UpdateListingCommand": object(nil, map[string]*openapi.Schema{
			"title":       str("Changing title or description resubmits the listing for moderation"),
			"description": str(""),
			"budget":      number(""),
			"categoryId":  str(""),
			"location":    str(""),
			"imageUrls":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
		}),
		"FeedRequest": object(nil, map[string]*openapi.Schema{
			"cursor":     str("Opaque position returned as nextCursor"),
			"pageSize":   {Type: "integer", Description: "Defaults to 12; values above 20 are rejected"},
			"categoryId": str(""),
			"maxBudget":  number(""),
		}),
		"ListingFeed": object(nil, map[string]*openapi.Schema{
			"data":       openapi.ArrayOf("Listing"),
			"nextCursor": str("Absent on the last page"),
			"hasMore":    {Type: "boolean"},
		}),
		"ListingPageResult": pageOf("Listing"),
		"FeatureCollection": object(nil, map[string]*openapi.Schema{
			"type": {Type: "string", Example: "FeatureCollection"},
			"features": {Type: "array", Items: object(nil, map[string]*openapi.Schema{
				"type": {Type: "string", Example: "Feature"},
				"geometry": object(nil, map[string]*openapi.Schema{
					"type":        {Type: "string", Example: "Point"},
					"coordinates": {Type: "array", Items: &openapi.Schema{Type: "number"}},
				}),
				"properties": object(nil, map[string]*openapi.Schema{
					"id":           str(""),
					"title":        str(""),
					"category":     str(""),
					"categoryType": str(""),
				}),
			})},
		}),
		"Conversation": object(nil, map[string]*openapi.Schema{
			"id":               uuidField(""),
			"listingId":        uuidField(""),
			"listingTitle":     str(""),
			"requesterId":      str(""),
			"authorId":         str(""),
			"lastMessage":      str(""),
			"lastMessageAt":    timestamp(),
			"unreadBy":         {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"contractAccepted": {Type: "boolean"},
			"status":           enum("open", "completed"),
			"reviewedBy":       {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"createdAt":        timestamp(),
		}),
		"ConversationPageResult": pageOf("Conversation"),
		"StartConversationCommand": object([]string{"listingId"}, map[string]*openapi.Schema{
			"listingId": uuidField(""),
		}),
		"Message": object(nil, map[string]*openapi.Schema{
			"id":             uuidField(""),
			"conversationId": uuidField(""),
			"senderId":       str(""),
			"type":           enum("text", "proposal", "contract", "system"),
			"content":        str(""),
			"proposal": object(nil, map[string]*openapi.Schema{
				"value":      number(""),
				"deadline":   str(""),
				"conditions": str(""),
				"status":     offerStatus(),
			}),
			"contract": object(nil, map[string]*openapi.Schema{
				"value":       number(""),
				"terms":       str(""),
				"status":      offerStatus(),
				"documentKey": str(""),
				"pageCount":   {Type: "integer"},
			}),
			"createdAt": timestamp(),
		}),
		"MessagePageResult": pageOf("Message"),
		"TextCommand": object([]string{"content"}, map[string]*openapi.Schema{
			"content": str(""),
		}),
		"ProposalCommand": object([]string{"value", "deadline"}, map[string]*openapi.Schema{
			"value":      number(""),
			"deadline":   str(""),
			"conditions": str(""),
		}),
		"ContractCommand": object([]string{"terms"}, map[string]*openapi.Schema{
			"value": number("Defaults to the accepted proposal's value"),
			"terms": str(""),
		}),
		"RespondCommand": object([]string{"accept"}, map[string]*openapi.Schema{
			"accept": {Type: "boolean"},
		}),
		"Review": object(nil, map[string]*openapi.Schema{
			"id":             uuidField(""),
			"conversationId": uuidField(""),
			"reviewerId":     str(""),
			"revieweeId":     str(""),
			"rating":         {Type: "integer", Minimum: &one, Maximum: &five},
			"comment":        str(""),
			"createdAt":      timestamp(),
			"reviewer":       openapi.SchemaRef("Author"),
		}),
		"ReviewPageResult": pageOf("Review"),
		"SubmitReviewCommand": object([]string{"conversationId", "rating"}, map[string]*openapi.Schema{
			"conversationId": uuidField(""),
			"rating":         {Type: "integer", Minimum: &one, Maximum: &five},
			"comment":        str(""),
		}),
		"RefineRequest": object([]string{"description"}, map[string]*openapi.Schema{
			"description": str("Listing description to rewrite"),
		}),
		"Refinement": object(nil, map[string]*openapi.Schema{
			"refinedDescription": str(""),
		}),
		"RecommendRequest": object([]string{"listingDescription"}, map[string]*openapi.Schema{
			"listingDescription": str(""),
		}),
		"Recommendations": object(nil, map[string]*openapi.Schema{
			"recommendations": {Type: "array", Items: object(nil, map[string]*openapi.Schema{
				"providerName":        str(""),
				"providerDescription": str(""),
				"matchScore":          {Type: "number", Minimum: &zero, Maximum: &one},
			})},
		}),
	}
}
