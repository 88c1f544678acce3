package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dori/boardly/internal/model"
)

type todosEnvelope struct {
	Message string       `json:"message"`
	Todos   []model.Todo `json:"todos"`
}

type todoEnvelope struct {
	Message string     `json:"message"`
	Todo    model.Todo `json:"todo"`
}

// FetchTodos returns the todos of one board
func (c *Client) FetchTodos(ctx context.Context, boardID string) ([]model.Todo, error) {
	var out todosEnvelope
	if err := c.do(ctx, http.MethodGet, "/todos/board/"+url.PathEscape(boardID), nil, schemaTodos, &out); err != nil {
		return nil, err
	}
	if out.Todos == nil {
		out.Todos = []model.Todo{}
	}
	return out.Todos, nil
}

// CreateTodo creates a todo and returns the server copy
func (c *Client) CreateTodo(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	var out todoEnvelope
	if err := c.do(ctx, http.MethodPost, "/todos", in, schemaTodo, &out); err != nil {
		return model.Todo{}, err
	}
	return out.Todo, nil
}

// UpdateTodo applies a partial update and returns the server copy
func (c *Client) UpdateTodo(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	var out todoEnvelope
	if err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), patch, schemaTodo, &out); err != nil {
		return model.Todo{}, err
	}
	return out.Todo, nil
}

// DeleteTodo deletes a todo. Any 2xx counts as success; the body is ignored.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, "", nil)
}
