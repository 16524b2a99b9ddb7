package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
)

// Resource addresses one REST collection of the business API, e.g.
// "/capital-partner" or "/real-estate-asset".
type Resource struct {
	Path string
}

type createdResponse struct {
	ID json.Number `json:"id"`
}

// Create POSTs body and returns the id the server assigned.
func (r Resource) Create(ctx context.Context, c Client, body any) (int64, error) {
	var resp createdResponse
	if err := c.Post(ctx, r.Path, body, &resp); err != nil {
		return 0, err
	}
	id, err := resp.ID.Int64()
	if err != nil || id <= 0 {
		return 0, errors.Errorf("create %s: response carries no id", r.Path)
	}
	return id, nil
}

// Update replaces the entity under id.
func (r Resource) Update(ctx context.Context, c Client, id int64, body any) error {
	return c.Put(ctx, r.ItemPath(id), body, nil)
}

// SoftDelete marks the entity as removed on the server.
func (r Resource) SoftDelete(ctx context.Context, c Client, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("%s/soft/%d", r.Path, id))
}

func (r Resource) Get(ctx context.Context, c Client, id int64, out any) error {
	return c.Get(ctx, r.ItemPath(id), out)
}

func (r Resource) ItemPath(id int64) string {
	return r.Path + "/" + strconv.FormatInt(id, 10)
}

// FindBy lists the entities whose filter field equals value.
func (r Resource) FindBy(ctx context.Context, c Client, filter string, value int64) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set(filter+".equals", strconv.FormatInt(value, 10))
	return r.List(ctx, c, q)
}

// List queries the collection. Both a bare JSON array and a paged
// {"content": [...]} envelope are accepted.
func (r Resource) List(ctx context.Context, c Client, q url.Values) ([]json.RawMessage, error) {
	path := r.Path
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var raw json.RawMessage
	if err := c.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return decodeList(raw)
}

func decodeList(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.Wrap(err, "decode list")
		}
		return items, nil
	}
	var page struct {
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, errors.Wrap(err, "decode page")
	}
	return page.Content, nil
}
