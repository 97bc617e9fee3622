package domain

// Service is a service offering listed in the catalog. Every field other
// than ServiceID is optional; a nil pointer means the attribute is absent
// from the stored item.
type Service struct {
	ServiceID   string  `json:"serviceId" dynamodbav:"serviceId"`
	Author      *string `json:"author,omitempty" dynamodbav:"author,omitempty"`
	Title       *string `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Description *string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Rate        *int    `json:"rate,omitempty" dynamodbav:"rate,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty" dynamodbav:"imageUrl,omitempty"`
}

// Attribute names as stored and as sent over the wire.
const (
	AttrServiceID   = "serviceId"
	AttrAuthor      = "author"
	AttrTitle       = "title"
	AttrDescription = "description"
	AttrRate        = "rate"
	AttrImageURL    = "imageUrl"
)

// MutableAttributes lists the attributes an update may write, in the order
// update expressions are built.
var MutableAttributes = []string{AttrAuthor, AttrTitle, AttrDescription, AttrRate, AttrImageURL}

// ServicePatch carries the fields of an update request. A non-nil field was
// present in the request.
type ServicePatch struct {
	Author      *string
	Title       *string
	Description *string
	Rate        *int
	ImageURL    *string
}

// IsEmpty reports whether no field was supplied.
func (p ServicePatch) IsEmpty() bool {
	return len(p.Values()) == 0
}

// Values returns the supplied fields keyed by attribute name.
func (p ServicePatch) Values() map[string]any {
	out := make(map[string]any, len(MutableAttributes))
	if p.Author != nil {
		out[AttrAuthor] = *p.Author
	}
	if p.Title != nil {
		out[AttrTitle] = *p.Title
	}
	if p.Description != nil {
		out[AttrDescription] = *p.Description
	}
	if p.Rate != nil {
		out[AttrRate] = *p.Rate
	}
	if p.ImageURL != nil {
		out[AttrImageURL] = *p.ImageURL
	}
	return out
}

// Attributes is the set of attributes written by an update, as returned by
// the store (DynamoDB ReturnValues UPDATED_NEW).
type Attributes map[string]any

// UpdateResult is the response body of both update operations.
type UpdateResult struct {
	Attributes Attributes `json:"Attributes"`
}
