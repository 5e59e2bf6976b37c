package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
)

type handlerFunc func(ctx context.Context, c *call) (any, error)

// call carries the captured path parameters, query and body of one request
type call struct {
	params map[string]string
	query  map[string]string
	body   json.RawMessage
}

// decode unmarshals the request body into v
func (c *call) decode(v any) error {
	if len(c.body) == 0 {
		return errors.New("request body is required")
	}
	if err := json.Unmarshal(c.body, v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

type route struct {
	methods []string
	pattern []string
	handler handlerFunc
}

// match reports whether the route accepts method and segments, capturing :params
func (rt route) match(method string, segments []string) (map[string]string, bool) {
	if len(segments) != len(rt.pattern) {
		return nil, false
	}
	allowed := false
	for _, m := range rt.methods {
		if m == method {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, false
	}

	params := map[string]string{}
	for i, p := range rt.pattern {
		if strings.HasPrefix(p, ":") {
			params[p[1:]] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func on(methods string, pattern string, h handlerFunc) route {
	return route{methods: strings.Split(methods, "|"), pattern: strings.Split(pattern, "/"), handler: h}
}

const (
	get       = http.MethodGet
	del       = http.MethodDelete
	write     = http.MethodPost + "|" + http.MethodPut
	getOrPost = http.MethodGet + "|" + http.MethodPost
)

// table lists routes in match order; literal segments come before parameters
func (r *Router) table() []route {
	a := r.api
	return []route{
		on(getOrPost, "init", func(ctx context.Context, _ *call) (any, error) {
			return a.Init(ctx)
		}),

		on(get, "cards", func(ctx context.Context, c *call) (any, error) {
			return a.GetCards(ctx, c.query)
		}),
		on(write, "cards", func(ctx context.Context, c *call) (any, error) {
			var card models.Card
			if err := c.decode(&card); err != nil {
				return nil, err
			}
			return a.SaveCard(ctx, card)
		}),
		on(get, "cards/:id", func(ctx context.Context, c *call) (any, error) {
			return a.GetCard(ctx, c.params["id"])
		}),
		on(del, "cards/:id", func(ctx context.Context, c *call) (any, error) {
			return a.DeleteCard(ctx, c.params["id"])
		}),

		on(get, "users", func(ctx context.Context, _ *call) (any, error) {
			return a.GetUsers(ctx)
		}),
		on(write, "users", func(ctx context.Context, c *call) (any, error) {
			var user models.User
			if err := c.decode(&user); err != nil {
				return nil, err
			}
			return a.SaveUser(ctx, user)
		}),
		on(get, "users/current", func(ctx context.Context, _ *call) (any, error) {
			return a.GetCurrentUser(ctx)
		}),
		on(write, "users/current", func(ctx context.Context, c *call) (any, error) {
			var body struct {
				ID string `json:"id"`
			}
			if err := c.decode(&body); err != nil {
				return nil, err
			}
			return a.SetCurrentUserID(ctx, body.ID)
		}),
		on(get, "users/current/id", func(ctx context.Context, _ *call) (any, error) {
			return a.GetCurrentUserID(ctx)
		}),
		on(get, "users/by-username/:username", func(ctx context.Context, c *call) (any, error) {
			return a.GetUserByUsername(ctx, c.params["username"])
		}),
		on(get, "users/:id", func(ctx context.Context, c *call) (any, error) {
			return a.GetUserByID(ctx, c.params["id"])
		}),

		on(get, "domainmap", func(ctx context.Context, _ *call) (any, error) {
			return a.GetDomainMap(ctx)
		}),

		on(get, "user-progress/:userId", func(ctx context.Context, c *call) (any, error) {
			return a.GetUserProgress(ctx, c.params["userId"])
		}),
		on(write, "user-progress/:userId/:key", func(ctx context.Context, c *call) (any, error) {
			return a.SaveProgress(ctx, c.params["userId"], c.params["key"], c.body)
		}),
		on(del, "user-progress/:userId", func(ctx context.Context, c *call) (any, error) {
			return a.ClearUserProgress(ctx, c.params["userId"])
		}),

		on(get, "test-completions/:userId", func(ctx context.Context, c *call) (any, error) {
			return a.GetTestCompletions(ctx, c.params["userId"])
		}),
		on(write, "test-completions/:userId/:key", func(ctx context.Context, c *call) (any, error) {
			return a.SaveTestCompletion(ctx, c.params["userId"], c.params["key"], c.body)
		}),
		on(del, "test-completions/:userId", func(ctx context.Context, c *call) (any, error) {
			return a.ClearTestCompletions(ctx, c.params["userId"])
		}),

		on(get, "user-unlocks/:userId", func(ctx context.Context, c *call) (any, error) {
			return a.GetUserUnlocks(ctx, c.params["userId"])
		}),
		on(write, "user-unlocks/:userId/:key", func(ctx context.Context, c *call) (any, error) {
			return a.SaveUserUnlock(ctx, c.params["userId"], c.params["key"], c.body)
		}),
		on(del, "user-unlocks/:userId", func(ctx context.Context, c *call) (any, error) {
			return a.ClearUserUnlocks(ctx, c.params["userId"])
		}),
	}
}
