package wordpress

import (
	"bytes"
	"encoding/json"
	"time"
)

// Rendered is a WordPress rendered field ({"rendered": "<p>...</p>"}).
type Rendered struct {
	Rendered string `json:"rendered"`
}

// Term is a category, tag or technology.
type Term struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Count       int    `json:"count"`
	Taxonomy    string `json:"taxonomy,omitempty"`
	Description string `json:"description,omitempty"`
	Parent      int    `json:"parent,omitempty"`
}

// Media is an embedded attachment.
type Media struct {
	ID        int    `json:"id,omitempty"`
	SourceURL string `json:"source_url"`
	AltText   string `json:"alt_text,omitempty"`
}

// Author is an embedded user.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Embedded holds the relations returned by ?_embed.
type Embedded struct {
	FeaturedMedia []Media  `json:"wp:featuredmedia,omitempty"`
	Terms         [][]Term `json:"wp:term,omitempty"`
	Author        []Author `json:"author,omitempty"`
}

// FeaturedImage returns the first embedded media URL, or "".
func (e Embedded) FeaturedImage() string {
	if len(e.FeaturedMedia) == 0 {
		return ""
	}
	return e.FeaturedMedia[0].SourceURL
}

// AuthorName returns the embedded author's display name, or "".
func (e Embedded) AuthorName() string {
	if len(e.Author) == 0 {
		return ""
	}
	return e.Author[0].Name
}

// Post is a blog post snapshot.
type Post struct {
	ID         int       `json:"id"`
	Slug       string    `json:"slug"`
	Link       string    `json:"link,omitempty"`
	Date       Timestamp `json:"date"`
	Modified   Timestamp `json:"modified"`
	Title      Rendered  `json:"title"`
	Content    Rendered  `json:"content"`
	Excerpt    Rendered  `json:"excerpt"`
	Categories []int     `json:"categories,omitempty"`
	Tags       []int     `json:"tags,omitempty"`
	Embedded   Embedded  `json:"_embedded"`
}

func (p Post) FeaturedImage() string { return p.Embedded.FeaturedImage() }
func (p Post) Author() string        { return p.Embedded.AuthorName() }

// LastModified returns Modified when set, otherwise Date.
func (p Post) LastModified() time.Time {
	return lastModified(p.Modified, p.Date)
}

// ReadingMinutes estimates reading time from the post body.
func (p Post) ReadingMinutes() int {
	return readingMinutes(p.Content.Text())
}

// Project is an item of the custom project content type.
type Project struct {
	ID       int       `json:"id"`
	Slug     string    `json:"slug"`
	Link     string    `json:"link,omitempty"`
	Date     Timestamp `json:"date"`
	Modified Timestamp `json:"modified"`
	Title    Rendered  `json:"title"`
	Content  Rendered  `json:"content"`
	Excerpt  Rendered  `json:"excerpt"`
	ACF      Fields    `json:"acf"`
	Embedded Embedded  `json:"_embedded"`
}

func (p Project) FeaturedImage() string { return p.Embedded.FeaturedImage() }

// Featured reports the featured_status custom field.
func (p Project) Featured() bool { return bool(p.ACF.FeaturedStatus) }

// LastModified returns Modified when set, otherwise Date.
func (p Project) LastModified() time.Time {
	return lastModified(p.Modified, p.Date)
}

// ReadingMinutes estimates reading time over the body, the challenges
// section and the scope section.
func (p Project) ReadingMinutes() int {
	return readingMinutes(
		p.Content.Text(),
		Rendered{p.ACF.ChallengesAndSolutions}.Text(),
		Rendered{p.ACF.ProjectScope}.Text(),
	)
}

// Fields are the project's ACF custom fields.
type Fields struct {
	ProjectURL             string      `json:"project_url,omitempty"`
	GithubURL              string      `json:"github_url,omitempty"`
	CompletionDate         string      `json:"completion_date,omitempty"`
	ClientName             string      `json:"client_name,omitempty"`
	FeaturedStatus         FlexBool    `json:"featured_status"`
	ProjectType            string      `json:"project_type,omitempty"`
	ProjectScope           string      `json:"project_scope,omitempty"`
	ProjectExcerpt         string      `json:"project_excerpt,omitempty"`
	Role                   string      `json:"role,omitempty"`
	ChallengesAndSolutions string      `json:"challenges_&_solutions,omitempty"`
	ColorScheme            ColorScheme `json:"color_scheme"`
	Logo                   Image       `json:"logo"`
}

// UnmarshalJSON accepts the `[]` and `false` that ACF emits for an item
// without custom fields.
func (f *Fields) UnmarshalJSON(data []byte) error {
	if emptyACF(data) {
		*f = Fields{}
		return nil
	}
	type plain Fields
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = Fields(p)
	return nil
}

// ColorScheme is the project's brand color group.
type ColorScheme struct {
	Primary   string `json:"primary_color,omitempty"`
	Secondary string `json:"secondary_color,omitempty"`
}

func (c *ColorScheme) UnmarshalJSON(data []byte) error {
	if emptyACF(data) {
		*c = ColorScheme{}
		return nil
	}
	type plain ColorScheme
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = ColorScheme(p)
	return nil
}

// Image is an ACF image field. ACF returns a URL, an attachment id or an
// object depending on the field's return format; only the URL is kept.
type Image struct {
	URL string `json:"url,omitempty"`
}

func (i *Image) UnmarshalJSON(data []byte) error {
	*i = Image{}
	data = bytes.TrimSpace(data)
	if emptyACF(data) || len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &i.URL)
	case '{':
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		i.URL = obj.URL
	}
	return nil
}

// FlexBool decodes JSON booleans, "1"/"0", "true"/"false" and 1/0.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	switch s {
	case "true", `"true"`, `"1"`, "1":
		*b = true
	case "false", `"false"`, `"0"`, "0", `""`, "null":
		*b = false
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return &json.UnmarshalTypeError{Value: s, Type: flexBoolType}
		}
		*b = n != 0
	}
	return nil
}

func emptyACF(data []byte) bool {
	switch string(bytes.TrimSpace(data)) {
	case "null", "false", "[]", `""`:
		return true
	}
	return false
}
