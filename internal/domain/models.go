package domain

// Resource is a record addressable by a numeric identifier unique within one fetched collection.
type Resource interface {
	ResourceID() int
}

// Product is a catalog item.
type Product struct {
	ID          int     `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string  `json:"category,omitempty" yaml:"category,omitempty"`
	Price       float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
}

func (p Product) ResourceID() int { return p.ID }

// ProductResponse is the envelope the products endpoint wraps its collection in.
type ProductResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total,omitempty"`
	Skip     int       `json:"skip,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}

// Post is a blog post as served by the posts endpoint.
type Post struct {
	ID     int    `json:"id,omitempty" yaml:"id"`
	UserID int    `json:"userId" yaml:"user_id"`
	Title  string `json:"title" yaml:"title"`
	Body   string `json:"body" yaml:"body"`
}

func (p Post) ResourceID() int { return p.ID }
