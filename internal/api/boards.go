package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dori/boardly/internal/model"
)

type boardsEnvelope struct {
	Message string        `json:"message"`
	Boards  []model.Board `json:"boards"`
}

type boardEnvelope struct {
	Message string      `json:"message"`
	Board   model.Board `json:"board"`
}

type titleBody struct {
	Title string `json:"title"`
}

// FetchBoards returns every board of the signed-in user
func (c *Client) FetchBoards(ctx context.Context) ([]model.Board, error) {
	var out boardsEnvelope
	if err := c.do(ctx, http.MethodGet, "/boards", nil, schemaBoards, &out); err != nil {
		return nil, err
	}
	if out.Boards == nil {
		out.Boards = []model.Board{}
	}
	return out.Boards, nil
}

// FetchBoard returns a single board by id
func (c *Client) FetchBoard(ctx context.Context, id string) (model.Board, error) {
	var out boardEnvelope
	if err := c.do(ctx, http.MethodGet, "/boards/"+url.PathEscape(id), nil, schemaBoard, &out); err != nil {
		return model.Board{}, err
	}
	return out.Board, nil
}

// CreateBoard creates a board and returns the server copy
func (c *Client) CreateBoard(ctx context.Context, title string) (model.Board, error) {
	var out boardEnvelope
	if err := c.do(ctx, http.MethodPost, "/boards", titleBody{Title: title}, schemaBoard, &out); err != nil {
		return model.Board{}, err
	}
	return out.Board, nil
}

// UpdateBoard changes a board's title and returns the server copy
func (c *Client) UpdateBoard(ctx context.Context, id, title string) (model.Board, error) {
	var out boardEnvelope
	if err := c.do(ctx, http.MethodPut, "/boards/"+url.PathEscape(id), titleBody{Title: title}, schemaBoard, &out); err != nil {
		return model.Board{}, err
	}
	return out.Board, nil
}

// DeleteBoard deletes a board. Any 2xx counts as success; the body is ignored.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/boards/"+url.PathEscape(id), nil, "", nil)
}
